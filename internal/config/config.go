package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Ticket bounds and the registration cap are plain ints
// so handlers and the registration service never re-parse them.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	JWTSecret        string // secret used to sign JWTs
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing
	MaxRegistrations int    // hard cap on guest group registrations
	TicketPrefix     string // two-letter prefix every ticket code carries
	TicketMin        int    // lowest valid ticket number (inclusive)
	TicketMax        int    // highest valid ticket number (inclusive)
	AdminEmail       string // optional bootstrap admin email (static credential seed)
	AdminPassword    string // optional bootstrap admin password
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Ticket bounds default to the
// 1..1000 window and a two-letter "NI" prefix when unset.
func Load() Config {
	cfg := Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		MaxRegistrations: mustInt("MAX_REGISTRATIONS"),
		TicketPrefix:     optional("TICKET_PREFIX", "NI"),
		TicketMin:        optionalInt("TICKET_MIN", 1),
		TicketMax:        optionalInt("TICKET_MAX", 1000),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}
	if len(cfg.TicketPrefix) != 2 {
		log.Fatalf("TICKET_PREFIX must be exactly two letters, got %q", cfg.TicketPrefix)
	}
	if cfg.TicketMin < 1 || cfg.TicketMax < cfg.TicketMin {
		log.Fatalf("invalid ticket range [%d,%d]", cfg.TicketMin, cfg.TicketMax)
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// optional returns the env value or a default when unset.
func optional(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optionalInt returns the env value parsed as int, or a default when unset
// or unparsable.
func optionalInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
