package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/ieltsprep/internal/calendar"
)

// Config holds the runtime settings of the service
type Config struct {
	Debug bool
	// DBType is sqlite or postgres
	DBType      string `validate:"oneof=sqlite sqlite3 postgres postgresql"`
	DatabaseURL string `validate:"required"`
	HTTPAddr    string `validate:"required"`
	// Bot is disabled when the token is empty
	TelegramToken   string
	EnableScheduler bool
	// Fallback timezone for users that never set one
	DefaultTimezone    string `validate:"required"`
	DefaultDailyTarget int    `validate:"min=1,max=500"`
	AdminUserIDs       []int64
}

// newViper returns a viper instance with every default registered.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", false)
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("database_url", "data/ieltsprep.db")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("enable_scheduler", true)
	v.SetDefault("default_timezone", "UTC")
	v.SetDefault("default_daily_target", 10)
	v.SetDefault("admin_user_ids", "")
	v.AutomaticEnv()
	return v
}

// Load reads the .env file at envFile when it exists, then the environment,
// and validates the result. An empty envFile defaults to ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: stat %s: %w", envFile, err)
	}

	v := newViper()
	cfg := Config{
		Debug:              v.GetBool("debug"),
		DBType:             strings.ToLower(v.GetString("db_type")),
		DatabaseURL:        v.GetString("database_url"),
		HTTPAddr:           v.GetString("http_addr"),
		TelegramToken:      strings.TrimSpace(v.GetString("telegram_bot_token")),
		EnableScheduler:    v.GetBool("enable_scheduler"),
		DefaultTimezone:    v.GetString("default_timezone"),
		DefaultDailyTarget: v.GetInt("default_daily_target"),
		AdminUserIDs:       parseIDs(v.GetString("admin_user_ids")),
	}

	if !calendar.ValidTimezone(cfg.DefaultTimezone) {
		log.Printf("Warning: invalid DEFAULT_TIMEZONE %q, using UTC", cfg.DefaultTimezone)
		cfg.DefaultTimezone = "UTC"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the config
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func parseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Warning: Invalid admin user ID: %s", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
