package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sgprime/sgprime/internal/store"
)

// openStore opens the database selected by configuration. Defaults to an
// on-disk SQLite file so the binary works with zero configuration.
func openStore() (*store.Store, error) {
	driver := viper.GetString("database.driver")
	if driver == "" {
		driver = store.DriverSQLite
	}
	dsn := viper.GetString("database.dsn")
	if driver == store.DriverSQLite && dsn == "" {
		dsn = "sgprime.db"
	}

	s, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// buildLogger constructs the process logger from the logging configuration.
// debug forces debug-level output regardless of configuration.
func buildLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(viper.GetString("logging.level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(viper.GetString("logging.format")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// durationSetting parses a duration configuration value, falling back when
// the key is unset or malformed.
func durationSetting(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
