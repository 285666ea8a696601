package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// StudyConfig contains tunables for the study engine: spaced repetition
// thresholds and progression leveling parameters.
type StudyConfig struct {
	// MasteredIntervalDays is the review interval, in days, at which a card
	// is considered mastered after a successful repetition.
	MasteredIntervalDays int `mapstructure:"mastered_interval_days" validate:"required,gt=0"`

	// BaseLevelXP is the XP required to go from level 1 to level 2.
	BaseLevelXP int `mapstructure:"base_level_xp" validate:"required,gt=0"`

	// LevelGrowthPercent is how much the XP threshold grows per level.
	LevelGrowthPercent int `mapstructure:"level_growth_percent" validate:"required,gt=0"`

	// DefaultCardCount caps session size when the client does not ask for one.
	// Zero means no cap.
	DefaultCardCount int `mapstructure:"default_card_count" validate:"gte=0"`
}
