package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Storage  Storage  `envPrefix:"STORAGE_"`
	Auth     Auth     `envPrefix:"AUTH_"`
	Reminder Reminder `envPrefix:"REMINDER_"`
	LLM      LLM      `envPrefix:"LLM_"`
	Telegram Telegram `envPrefix:"TELEGRAM_"`
	Logger   Logger   `envPrefix:"LOGGER_"`
}

type HTTP struct {
	Address string `env:"ADDRESS,expand" envDefault:":8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`
	// SessionSecret signs session cookies. A random one is generated at
	// startup when empty, which logs everyone out on restart.
	SessionSecret string `env:"SESSION_SECRET"`
	// SessionStore is "cookie" or "redis".
	SessionStore  string `env:"SESSION_STORE" envDefault:"cookie"`
	RedisAddress  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

type Storage struct {
	// Driver is one of csv, sqlite, mysql or postgres.
	Driver  string `env:"DRIVER" envDefault:"csv"`
	DataDir string `env:"DATA_DIR,expand" envDefault:"data"`
	// DSN is used by the database drivers. For sqlite an empty DSN means
	// todo.db inside DataDir.
	DSN string `env:"DSN,expand"`
}

// TasksFile is the CSV file holding tasks.
func (s Storage) TasksFile() string {
	return filepath.Join(s.DataDir, "tasks.csv")
}

// UsersFile is the CSV file holding users.
func (s Storage) UsersFile() string {
	return filepath.Join(s.DataDir, "users.csv")
}

type Auth struct {
	BcryptCost        int `env:"BCRYPT_COST" envDefault:"10"`
	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" envDefault:"3"`
}

type Reminder struct {
	LeadTime      time.Duration `env:"LEAD_TIME" envDefault:"1h"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"15s"`
}

type LLM struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL,expand" envDefault:"https://api.groq.com/openai/v1"`
	Model   string        `env:"MODEL" envDefault:"gemma2-9b-it"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	// MinInterval and MaxBurst shape outgoing requests to the provider.
	MinInterval time.Duration `env:"MIN_INTERVAL" envDefault:"1s"`
	MaxBurst    int           `env:"MAX_BURST" envDefault:"2"`
}

// Enabled reports whether AI descriptions can be requested.
func (l LLM) Enabled() bool {
	return l.APIKey != ""
}

type Telegram struct {
	Token  string `env:"TOKEN"`
	ChatID int64  `env:"CHAT_ID"`
}

// Enabled reports whether reminders should also go to Telegram.
func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type Logger struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"console"`
}

// Parse reads the configuration from TODO_* environment variables.
func Parse() (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: "TODO_",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &conf, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "csv", "sqlite":
	case "mysql", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %q requires TODO_STORAGE_DSN", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.HTTP.SessionStore {
	case "cookie", "redis":
	default:
		return fmt.Errorf("unknown session store %q", c.HTTP.SessionStore)
	}

	if c.Reminder.LeadTime <= 0 {
		return fmt.Errorf("reminder lead time must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("minimum password length must be at least 1")
	}

	return nil
}
