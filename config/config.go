// Package config holds the server and bot settings. Defaults live here;
// environment variables (optionally from a .env file) override them and
// command-line flags in main override both.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// SERVER
// =============================================================================

// ServerConfig holds the room server settings.
type ServerConfig struct {
	Addr        string
	LogFile     string // empty logs to stderr
	Debug       bool
	MapDir      string   // one <name>.json per stage map
	CORSOrigins []string // empty allows any origin

	UpdatesPerSecond float64 // per-connection updatePlayer limit
	UpdateBurst      int
}

// DefaultServer returns the server defaults.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:             ":8080",
		LogFile:          "platform-party.log",
		MapDir:           "maps",
		UpdatesPerSecond: 2 * DefaultTickRate,
		UpdateBurst:      10,
	}
}

// ServerFromEnv applies PORT, LOG_FILE, DEBUG, MAP_DIR, CORS_ORIGINS,
// UPDATES_PER_SECOND and UPDATE_BURST over the defaults.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Addr = ":" + strconv.Itoa(p)
	}
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.MapDir = getEnvString("MAP_DIR", cfg.MapDir)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getEnvFloat("UPDATES_PER_SECOND", 0); v > 0 {
		cfg.UpdatesPerSecond = v
	}
	if v := getEnvInt("UPDATE_BURST", 0); v > 0 {
		cfg.UpdateBurst = v
	}

	return cfg
}

// =============================================================================
// CLIENT
// =============================================================================

// DefaultTickRate is the client simulation rate in ticks per second.
const DefaultTickRate = 60

// ClientConfig holds the bot client settings.
type ClientConfig struct {
	ServerURL string // http(s) base URL; the WebSocket URL is derived from it
	Room      string
	UserName  string
	MapName   string
	Codec     string // json or msgpack
	TickRate  int
}

// DefaultClient returns the client defaults.
func DefaultClient() ClientConfig {
	return ClientConfig{
		ServerURL: "http://localhost:8080",
		Room:      "lobby",
		MapName:   "default",
		Codec:     "json",
		TickRate:  DefaultTickRate,
	}
}

// ClientFromEnv applies PLATFORM_SERVER, PLATFORM_ROOM, PLATFORM_USER,
// PLATFORM_MAP, PLATFORM_CODEC and TICK_RATE over the defaults.
func ClientFromEnv() ClientConfig {
	cfg := DefaultClient()

	cfg.ServerURL = getEnvString("PLATFORM_SERVER", cfg.ServerURL)
	cfg.Room = getEnvString("PLATFORM_ROOM", cfg.Room)
	cfg.UserName = getEnvString("PLATFORM_USER", cfg.UserName)
	cfg.MapName = getEnvString("PLATFORM_MAP", cfg.MapName)
	cfg.Codec = getEnvString("PLATFORM_CODEC", cfg.Codec)
	if r := getEnvInt("TICK_RATE", 0); r > 0 {
		cfg.TickRate = r
	}

	return cfg
}

// =============================================================================
// LOADING
// =============================================================================

// LoadDotEnv loads the first .env file found among paths (default ".env",
// "../.env") and returns its path, or "" when none exists. Variables already
// set in the environment win.
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
