package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings normalizes option values
	"time"    // time parses token lifetimes
)

// Token carrier sources accepted by AUTH_TOKEN_SOURCE.  Exactly one canonical
// carrier is consulted per request; the other is ignored entirely.
const (
	TokenSourceCookie = "cookie" // read the access token from the accessToken cookie
	TokenSourceHeader = "header" // read the access token from the Authorization header
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for token
// lifetimes, ints for costs.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	AccessSecret   string        // secret used to sign access tokens
	AccessExpiry   time.Duration // access token lifetime
	RefreshSecret  string        // secret used to sign refresh tokens
	RefreshExpiry  time.Duration // refresh token lifetime
	BcryptCost     int           // bcrypt cost for password hashing
	TokenSource    string        // canonical access-token carrier: cookie | header
	CookieSecure   bool          // mark auth cookies Secure (disable only for local dev)
	MediaUploadURL string        // endpoint of the external media host
	MediaAPIKey    string        // optional bearer credential for the media host
	MediaTimeout   time.Duration // bound on a single media upload round trip
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                                // environment (dev/test/prod)
		Port:           must("APP_PORT"),                               // port to bind the HTTP server
		DBUser:         must("DB_USER"),                                // database user
		DBPass:         os.Getenv("DB_PASS"),                           // database password (empty allowed)
		DBHost:         must("DB_HOST"),                                // database host
		DBPort:         must("DB_PORT"),                                // database port
		DBName:         must("DB_NAME"),                                // database name
		AccessSecret:   must("ACCESS_TOKEN_SECRET"),                    // access-token signing key
		AccessExpiry:   mustDur("ACCESS_TOKEN_EXPIRY"),                 // access-token lifetime, e.g. "15m"
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),                   // refresh-token signing key
		RefreshExpiry:  mustDur("REFRESH_TOKEN_EXPIRY"),                // refresh-token lifetime, e.g. "240h"
		BcryptCost:     mustInt("BCRYPT_COST"),                         // bcrypt cost factor
		TokenSource:    tokenSource(),                                  // cookie (default) or header
		CookieSecure:   envBool("COOKIE_SECURE", true),                 // Secure attribute on auth cookies
		MediaUploadURL: must("MEDIA_UPLOAD_URL"),                       // external media host endpoint
		MediaAPIKey:    os.Getenv("MEDIA_API_KEY"),                     // media host credential (optional)
		MediaTimeout:   envDur("MEDIA_UPLOAD_TIMEOUT", 15*time.Second), // upload bound
	}
}

// tokenSource validates AUTH_TOKEN_SOURCE and falls back to the cookie
// carrier.  Anything other than the two known values is a configuration
// mistake worth halting on.
func tokenSource() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_TOKEN_SOURCE")))
	switch v {
	case "":
		return TokenSourceCookie
	case TokenSourceCookie, TokenSourceHeader:
		return v
	}
	log.Fatalf("invalid AUTH_TOKEN_SOURCE: %q (want cookie or header)", v)
	return ""
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

// mustDur is like must() but parses the value as a Go duration string.
func mustDur(key string) time.Duration {
	s := must(key)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
