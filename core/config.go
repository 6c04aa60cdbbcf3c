package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env                     string
		Build                   string
		Debug                   bool
		TestMode                bool
		AppName                 string
		WorkDir                 string
		DefaultTargetPercentage int
		Location                *time.Location
		RollbarToken            string
		SendgridApiKey          string
		defaultFromEmail        string

		Database  DatabaseConfig
		Server    ServerConfig
		Reminders ReminderConfig
	}

	ServerConfig struct {
		Address         string
		DebugHost       string
		Host            string
		ShutdownTimeout time.Duration
	}

	ReminderConfig struct {
		Enabled bool
		Resync  string // cron spec
		Email   string // recipient; console output when empty
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Bunkmeter")
	v.SetDefault("defaultTargetPercentage", 75)
	v.SetDefault("timezone", "Local")
	v.SetDefault("defaultFromEmail", "Bunkmeter <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("db.engine", "sqlite3")
	v.SetDefault("db.dsn", "bunkmeter.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "bunkmeter")
	v.SetDefault("db.disableTLS", true)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.resync", "@hourly")
	v.SetDefault("reminders.email", "")
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	return configFrom(v, env, wd)
}

func configFrom(v *viper.Viper, env, wd string) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, errors.Wrap(err, "loading timezone")
	}

	target := v.GetInt("defaultTargetPercentage")
	if target < 0 || target > 100 {
		return nil, errors.Errorf("defaultTargetPercentage must be within 0..100, got %d", target)
	}

	return &Config{
		Env:                     env,
		Build:                   v.GetString("build"),
		Debug:                   v.GetBool("debug"),
		TestMode:                v.GetBool("testMode"),
		AppName:                 v.GetString("appName"),
		WorkDir:                 wd,
		DefaultTargetPercentage: target,
		Location:                loc,
		RollbarToken:            v.GetString("rollbarToken"),
		SendgridApiKey:          v.GetString("sendgridApiKey"),
		defaultFromEmail:        v.GetString("defaultFromEmail"),
		Database: DatabaseConfig{
			Engine:     v.GetString("db.engine"),
			DSN:        v.GetString("db.dsn"),
			Host:       v.GetString("db.host"),
			Port:       v.GetInt("db.port"),
			User:       v.GetString("db.user"),
			Password:   v.GetString("db.password"),
			Name:       v.GetString("db.name"),
			DisableTLS: v.GetBool("db.disableTLS"),
		},
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			Host:            v.GetString("server.host"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Reminders: ReminderConfig{
			Enabled: v.GetBool("reminders.enabled"),
			Resync:  v.GetString("reminders.resync"),
			Email:   v.GetString("reminders.email"),
		},
	}, nil
}

// NewTestConfig returns the configuration used by tests: in-memory storage, UTC and no external services.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("timezone", "UTC")
	v.Set("db.engine", EngineMemory)
	v.Set("reminders.enabled", false)
	conf, err := configFrom(v, "TEST", os.TempDir())
	if err != nil {
		panic(err)
	}
	return conf
}
