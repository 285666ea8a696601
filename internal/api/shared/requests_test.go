package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Method    string `json:"method"     validate:"required,oneof=random smart manual all"`
	CardCount int    `json:"card_count" validate:"gte=0"`
}

type selfValidating struct {
	err error
}

func (s *selfValidating) Validate() error {
	return s.err
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test",
		bytes.NewReader([]byte(`{"method":"random","card_count":10}`)))

	var target decodeTarget
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "random", target.Method)
	assert.Equal(t, 10, target.CardCount)
}

func TestDecodeJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test",
		bytes.NewReader([]byte(`{"method":`)))

	var target decodeTarget
	assert.Error(t, DecodeJSON(req, &target))
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&decodeTarget{Method: "smart"}))
	assert.Error(t, ValidateRequest(&decodeTarget{Method: "psychic"}))
	assert.Error(t, ValidateRequest(&decodeTarget{Method: "random", CardCount: -1}))
}

func TestValidateRequestPrefersValidateMethod(t *testing.T) {
	sentinel := errors.New("custom validation failed")

	assert.NoError(t, ValidateRequest(&selfValidating{}))
	assert.ErrorIs(t, ValidateRequest(&selfValidating{err: sentinel}), sentinel)
}
