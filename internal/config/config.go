// Package config parses command-line flags for the server and the desktop
// client. Every flag falls back to an environment variable, and a .env file
// in the working directory is loaded first when present.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort      = 8080
	DefaultSendQueue = 64
)

// Server is the configuration of the room server.
type Server struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	JWTSecret    string
	Echo         bool
	MDNS         bool
	SendQueue    int
	LogLevel     slog.Level
}

// Client is the configuration of the desktop client and of export.
type Client struct {
	Server   string
	Token    string
	Room     string
	Discover bool
	History  bool
	Output   string
	LogLevel slog.Level
}

// Token is the configuration of the token subcommand.
type Token struct {
	Secret string
	UserID string
	TTL    time.Duration
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ParseServer validates server flags.
func ParseServer(args []string) (Server, error) {
	var (
		cfg   Server
		level string
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (memory, sqlite or postgres)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Token signing secret (prefer env)")
	fs.BoolVar(&cfg.Echo, "echo", true, "Send chat messages back to their sender")
	fs.BoolVar(&cfg.MDNS, "mdns", false, "Advertise the server on the local network")
	fs.IntVar(&cfg.SendQueue, "queue", 0, "Outgoing messages buffered per connection")
	fs.StringVar(&level, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}
	set := visited(fs)

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			return Server{}, err
		}
		cfg.Port = port
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Server{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "memory"
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType != "memory" && cfg.DatabaseURL == "" {
		return Server{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Server{}, errors.New("JWT_SECRET required")
	}

	if !set["echo"] {
		echo, err := envBool("ROOMBOARD_ECHO", true)
		if err != nil {
			return Server{}, err
		}
		cfg.Echo = echo
	}
	if !set["mdns"] {
		mdns, err := envBool("ROOMBOARD_MDNS", false)
		if err != nil {
			return Server{}, err
		}
		cfg.MDNS = mdns
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = DefaultSendQueue
	}

	lvl, err := logLevel(level)
	if err != nil {
		return Server{}, err
	}
	cfg.LogLevel = lvl
	return cfg, nil
}

// ParseClient validates client flags. name is the subcommand for messages.
func ParseClient(name string, args []string) (Client, error) {
	var (
		cfg   Client
		level string
	)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Server, "s", "", "Server address, host:port or ws:// URL")
	fs.StringVar(&cfg.Token, "token", "", "Access token (prefer env)")
	fs.StringVar(&cfg.Room, "room", "", "Room to join")
	fs.BoolVar(&cfg.Discover, "discover", false, "Find a server on the local network")
	fs.BoolVar(&cfg.History, "history", true, "Load the room history on join")
	fs.StringVar(&cfg.Output, "o", "", "Output file")
	fs.StringVar(&level, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Client{}, err
	}

	if cfg.Server == "" {
		cfg.Server = os.Getenv("ROOMBOARD_SERVER")
	}
	if cfg.Server == "" && !cfg.Discover {
		cfg.Server = "localhost:" + strconv.Itoa(DefaultPort)
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("ROOMBOARD_TOKEN")
	}
	if cfg.Token == "" {
		return Client{}, errors.New("access token required (use -token or ROOMBOARD_TOKEN env)")
	}
	if cfg.Room == "" {
		cfg.Room = strings.TrimSpace(fs.Arg(0))
	}
	if cfg.Room == "" {
		return Client{}, errors.New("room required (use -room)")
	}

	lvl, err := logLevel(level)
	if err != nil {
		return Client{}, err
	}
	cfg.LogLevel = lvl
	return cfg, nil
}

// ParseToken validates token flags. The user id may be given positionally.
func ParseToken(args []string) (Token, error) {
	var cfg Token
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.UserID, "user", "", "User id to put in the token")
	fs.DurationVar(&cfg.TTL, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
	fs.StringVar(&cfg.Secret, "jwt-secret", "", "Token signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Token{}, err
	}
	if cfg.UserID == "" {
		cfg.UserID = strings.TrimSpace(fs.Arg(0))
	}
	if cfg.UserID == "" {
		return Token{}, errors.New("user required (use -user)")
	}
	if cfg.TTL < 0 {
		return Token{}, fmt.Errorf("invalid ttl %s", cfg.TTL)
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("JWT_SECRET")
	}
	if cfg.Secret == "" {
		return Token{}, errors.New("JWT_SECRET required")
	}
	return cfg, nil
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable", key)
	}
	return b, nil
}

// logLevel reads the flag value, then LOG_LEVEL. Empty means info.
func logLevel(flagValue string) (slog.Level, error) {
	s := flagValue
	if s == "" {
		s = os.Getenv("LOG_LEVEL")
	}
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}
