package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/example/campus-booking/internal/catalog"
)

// Config captures environment driven configuration values for the campus booking service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	ModuleCodes   []string
	CASMaxRetries int
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is applied first when present. Optional
// fields fall back to sensible defaults; invalid values are reported together
// in a single error.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:campus.db?_pragma=busy_timeout(5000)",
		ModuleCodes:   catalog.DefaultCodes,
		CASMaxRetries: 3,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CAMPUS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CAMPUS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CAMPUS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if codesValue := strings.TrimSpace(os.Getenv("CAMPUS_MODULE_CATALOG")); codesValue != "" {
		codes := parseCodes(codesValue)
		if len(codes) == 0 {
			invalid = append(invalid, "CAMPUS_MODULE_CATALOG")
		} else {
			cfg.ModuleCodes = codes
		}
	}

	if retriesValue := strings.TrimSpace(os.Getenv("CAMPUS_CAS_MAX_RETRIES")); retriesValue != "" {
		retries, err := strconv.Atoi(retriesValue)
		if err != nil || retries < 1 {
			invalid = append(invalid, "CAMPUS_CAS_MAX_RETRIES")
		} else {
			cfg.CASMaxRetries = retries
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func parseCodes(value string) []string {
	parts := strings.Split(value, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
