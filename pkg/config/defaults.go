// Package config provides centralized default values for styletree
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

// getEnvSecret is getEnvString without echoing the value.
func getEnvSecret(key string) string {
	val := os.Getenv(key)
	if val != "" {
		log.Printf("Config override: %s=****", key)
	}
	return val
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	log.Printf("Config override: %s=%s", key, strings.Join(out, ","))
	return out
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	CORSOrigins        []string

	// Database
	DBDriver                 string
	SQLitePath               string
	TursoDatabase            string
	TursoToken               string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int

	// Content
	PagesDir        string
	MediaDir        string
	AssetBaseURL    string
	DefaultLanguage string
	Languages       []string

	// Forms
	FormTokenSecret    string
	FormTokenTTL       time.Duration
	FormStatePath      string
	FormStateTTL       time.Duration
	PageCacheTTL       time.Duration
	OptionCacheTTL     time.Duration
	CacheCleanupPeriod time.Duration
	OptionFetchTimeout time.Duration
	OptionPrefetchWait time.Duration

	// Email
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	// Admin
	AdminToken string

	// Logging
	LogDirectory string
	LogToFile    bool
	LogJSON      bool
	LogLevel     string
)

func init() {
	Load()
}

// Load (re)reads every setting from the environment.
func Load() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	CORSOrigins = getEnvList("CORS_ORIGINS", []string{"http://localhost:4321", "http://127.0.0.1:4321"})

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	SQLitePath = getEnvString("SQLITE_PATH", "db/styletree.db")
	TursoDatabase = getEnvString("TURSO_DATABASE", "")
	TursoToken = getEnvSecret("TURSO_TOKEN")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)

	// Content
	PagesDir = getEnvString("PAGES_DIR", "pages")
	MediaDir = getEnvString("MEDIA_DIR", "media")
	AssetBaseURL = getEnvString("ASSET_BASE_URL", "/media")
	DefaultLanguage = getEnvString("DEFAULT_LANGUAGE", "en")
	Languages = getEnvList("LANGUAGES", []string{"en"})

	// Forms
	FormTokenSecret = getEnvSecret("FORM_TOKEN_SECRET")
	FormTokenTTL = getEnvDuration("FORM_TOKEN_TTL", 24*time.Hour)
	FormStatePath = getEnvString("FORM_STATE_PATH", "")
	// A form cannot be submitted once its token expires.
	FormStateTTL = getEnvDuration("FORM_STATE_TTL", FormTokenTTL)
	PageCacheTTL = getEnvDuration("PAGE_CACHE_TTL", 10*time.Minute)
	OptionCacheTTL = getEnvDuration("OPTION_CACHE_TTL", time.Minute)
	CacheCleanupPeriod = getEnvDuration("CACHE_CLEANUP_PERIOD", 5*time.Minute)
	OptionFetchTimeout = getEnvDuration("OPTION_FETCH_TIMEOUT", 5*time.Second)
	OptionPrefetchWait = getEnvDuration("OPTION_PREFETCH_WAIT", 150*time.Millisecond)

	// Email
	ResendAPIKey = getEnvSecret("RESEND_API_KEY")
	EmailFrom = getEnvString("EMAIL_FROM", "forms@styletree.local")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "Styletree Forms")

	// Admin
	AdminToken = getEnvSecret("ADMIN_TOKEN")

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogJSON = getEnvBool("LOG_JSON", true)
	LogLevel = getEnvString("LOG_LEVEL", "INFO")
}
