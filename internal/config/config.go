package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Required variables are
// enforced by must() at load time; optional ones fall back to a
// default suitable for local development.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	UploadDir        string // directory holding profile pictures
	PictureSecret    string // secret used to sign picture download tokens
	PictureURLTTLMin int    // picture download token time-to-live in minutes
}

// Load reads configuration values from environment variables and
// returns a Config.  Missing required values cause the program to
// exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		UploadDir:        getenv("UPLOAD_DIR", "uploads"),
		PictureSecret:    must("PICTURE_TOKEN_SECRET"),
		PictureURLTTLMin: envInt("PICTURE_URL_TTL_MIN", 60),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the variable's value or a default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt parses an integer variable, falling back to the default on
// absence or parse failure.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
