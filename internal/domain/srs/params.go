// Package srs implements the spaced repetition scheduling algorithm, an
// SM-2 variant driven by a 0..5 recall quality grade. The algorithm is a
// pure function over (prior memory state, quality); sessions and
// persistence are outside its knowledge.
package srs

import "github.com/NoisimRo/Flashcards-sub000/internal/domain"

// Quality grades. The classic algorithm accepts the full 0..5 scale; this
// system derives the grade from a binary correct/incorrect answer, mapping
// correct to QualityCorrect and incorrect to QualityIncorrect. The
// scheduler itself still honors the whole range, so a finer-grained UI
// would only change the mapping.
const (
	QualityBlackout  = 0
	QualityIncorrect = 2
	QualityCorrect   = 4
	QualityPerfect   = 5
)

// QualityForAnswer maps a binary answer to its SM-2 quality grade.
func QualityForAnswer(wasCorrect bool) int {
	if wasCorrect {
		return QualityCorrect
	}
	return QualityIncorrect
}

// Params defines all configurable parameters for the SRS algorithm.
type Params struct {
	// MinEaseFactor is the floor the ease factor never drops below,
	// regardless of how many consecutive failures occur.
	MinEaseFactor float64

	// PassThreshold is the lowest quality grade treated as a success.
	PassThreshold int

	// FirstInterval is the interval, in days, after the first successful
	// repetition; SecondInterval after the second. Later intervals grow
	// by the ease factor.
	FirstInterval  int
	SecondInterval int

	// MaxInterval caps interval growth, in days.
	MaxInterval int

	// MasteredIntervalDays is the interval at which a card transitions
	// to mastered after a successful repetition.
	MasteredIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance. Zero values keep the default.
type ParamsConfig struct {
	MinEaseFactor        float64
	PassThreshold        int
	FirstInterval        int
	SecondInterval       int
	MaxInterval          int
	MasteredIntervalDays int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:        domain.MinEaseFactor,
		PassThreshold:        3,   // Grades 3 and above count as success
		FirstInterval:        1,   // Review tomorrow
		SecondInterval:       6,   // Then in six days
		MaxInterval:          365, // Never schedule further than a year out
		MasteredIntervalDays: 21,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.MaxInterval > 0 {
		params.MaxInterval = config.MaxInterval
	}
	if config.MasteredIntervalDays > 0 {
		params.MasteredIntervalDays = config.MasteredIntervalDays
	}

	return params
}
