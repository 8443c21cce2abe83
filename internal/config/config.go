package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env      string
	Port     string
	LogLevel string
	DataDir  string
	// SettingsFile holds the provider overrides saved from the admin API.
	SettingsFile string
	// CreditLogFile is the JSONL audit file used when no database or Redis is configured.
	CreditLogFile string
}

type DBCfg struct{ DSN string }

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
}

type SecurityCfg struct {
	AdminToken string // guards every /api route
}

type Cfg struct {
	App   AppCfg
	DB    DBCfg
	Redis RedisCfg
	Sec   SecurityCfg
}

func Load() Cfg {
	// 1) Load .env into process env (if file exists)
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	// 2) Read from env via viper
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ADMIN_TOKEN", "")

	dataDir := viper.GetString("DATA_DIR")
	viper.SetDefault("CREDIT_SETTINGS_FILE", filepath.Join(dataDir, "credit_settings.json"))
	viper.SetDefault("CREDIT_LOG_FILE", filepath.Join(dataDir, "credit_log.jsonl"))

	cfg := Cfg{
		App: AppCfg{
			Env:           viper.GetString("APP_ENV"),
			Port:          viper.GetString("APP_PORT"),
			LogLevel:      viper.GetString("LOG_LEVEL"),
			DataDir:       dataDir,
			SettingsFile:  viper.GetString("CREDIT_SETTINGS_FILE"),
			CreditLogFile: viper.GetString("CREDIT_LOG_FILE"),
		},
		DB: DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Sec: SecurityCfg{
			AdminToken: strings.TrimSpace(viper.GetString("ADMIN_TOKEN")),
		},
	}

	// 3) Warn on settings that lock the API down
	if cfg.Sec.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is empty; all /api routes will answer 401")
	}
	return cfg
}

// SetupLogging configures the global zerolog logger for the process.
func SetupLogging(cfg Cfg) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.App.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if cfg.App.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
