package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration for the reservation service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionSecret string
	SessionTTL    time.Duration
	RateLimit     float64
	Timezone      *time.Location
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required and malformed values are
// accumulated so one error reports every problem at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:reservations.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
		RateLimit:  50,
		Timezone:   time.UTC,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVATIONS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVATIONS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("RESERVATIONS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("RESERVATIONS_SESSION_SECRET")); secret == "" {
		missing = append(missing, "RESERVATIONS_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("RESERVATIONS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "RESERVATIONS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("RESERVATIONS_RATE_LIMIT")); limitValue != "" {
		limit, err := strconv.ParseFloat(limitValue, 64)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "RESERVATIONS_RATE_LIMIT")
		} else {
			cfg.RateLimit = limit
		}
	}

	if tzValue := strings.TrimSpace(os.Getenv("RESERVATIONS_TIMEZONE")); tzValue != "" {
		location, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "RESERVATIONS_TIMEZONE")
		} else {
			cfg.Timezone = location
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
