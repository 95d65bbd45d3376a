package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	ModeDM    = "dm"
	ModeGroup = "group"

	BackendAirtable = "airtable"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"

	MinGreetingCooldown = 10 * time.Minute
	MaxGreetingCooldown = time.Hour
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"aligner-bot"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	BotToken    string `env:"TG_BOT_TOK"`
	BotUsername string `env:"TG_BOT_UNAME"`

	// DeploymentMode selects between answering only in DMs and answering
	// in DMs plus one group thread.
	DeploymentMode   string `env:"DEPLOYMENT_MODE" envDefault:"dm"`
	GroupID          int64  `env:"TG_GROUP_ID"`
	ThreadID         int    `env:"TG_THREAD_ID"`
	AnnounceChatID   int64  `env:"ANNOUNCE_CHAT_ID"`
	AnnounceThreadID int    `env:"ANNOUNCE_THREAD_ID"`

	GreetingCooldown time.Duration `env:"GREETING_COOLDOWN" envDefault:"1h"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"15m"`
	Timezone         string        `env:"KUDOS_TIMEZONE" envDefault:"America/Denver"`

	StoreBackend      string `env:"STORE_BACKEND" envDefault:"airtable"`
	AirtableToken     string `env:"AIRTABLE_TOK"`
	AirtableBaseID    string `env:"AIRTABLE_BASE_ID"`
	AirtablePartTable string `env:"AIRTABLE_DB_PART_ID"`
	AirtableKudoTable string `env:"AIRTABLE_DB_VOTE_ID"`
	AirtableURL       string `env:"AIRTABLE_URL" envDefault:"https://api.airtable.com/v0"`
	DatabaseURL       string `env:"DATABASE_URL"`
	DynamoTable       string `env:"DYNAMODB_TABLE"`

	// ParamPrefix, when set, makes the bot read TG_BOT_TOK and AIRTABLE_TOK
	// from AWS SSM Parameter Store under this prefix.
	ParamPrefix string `env:"PARAM_PREFIX"`

	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	WebhookBaseURL  string        `env:"WEBHOOK_BASE_URL"`
	WebhookSecret   string        `env:"WEBHOOK_SECRET"`
	PollTimeout     int           `env:"POLL_TIMEOUT" envDefault:"50"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

// Load parses the environment. Call Validate once secrets are resolved.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.BotUsername = strings.TrimPrefix(strings.TrimSpace(cfg.BotUsername), "@")
	cfg.DeploymentMode = strings.ToLower(strings.TrimSpace(cfg.DeploymentMode))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return fmt.Errorf("TG_BOT_TOK is required")
	}
	if c.BotUsername == "" {
		return fmt.Errorf("TG_BOT_UNAME is required")
	}

	switch c.DeploymentMode {
	case ModeDM:
	case ModeGroup:
		if c.GroupID == 0 {
			return fmt.Errorf("TG_GROUP_ID is required when DEPLOYMENT_MODE is %q", ModeGroup)
		}
		if c.ThreadID == 0 {
			return fmt.Errorf("TG_THREAD_ID is required when DEPLOYMENT_MODE is %q", ModeGroup)
		}
	default:
		return fmt.Errorf("invalid DEPLOYMENT_MODE %q", c.DeploymentMode)
	}

	switch c.StoreBackend {
	case BackendAirtable:
		for key, val := range map[string]string{
			"AIRTABLE_TOK":        c.AirtableToken,
			"AIRTABLE_BASE_ID":    c.AirtableBaseID,
			"AIRTABLE_DB_PART_ID": c.AirtablePartTable,
			"AIRTABLE_DB_VOTE_ID": c.AirtableKudoTable,
		} {
			if strings.TrimSpace(val) == "" {
				return fmt.Errorf("%s is required for the %s store", key, BackendAirtable)
			}
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", BackendPostgres)
		}
	case BackendDynamoDB:
		if strings.TrimSpace(c.DynamoTable) == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the %s store", BackendDynamoDB)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}

	if c.GreetingCooldown != 0 &&
		(c.GreetingCooldown < MinGreetingCooldown || c.GreetingCooldown > MaxGreetingCooldown) {
		return fmt.Errorf("GREETING_COOLDOWN must be 0 or between %s and %s, got %s",
			MinGreetingCooldown, MaxGreetingCooldown, c.GreetingCooldown)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid KUDOS_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func (c *Config) GroupScoped() bool {
	return c.DeploymentMode == ModeGroup
}

func (c *Config) WebhookEnabled() bool {
	return c.WebhookBaseURL != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
