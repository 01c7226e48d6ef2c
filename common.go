package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const configFileName = ".gcalgate.toml"

type Config struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
	// Optional overrides of the Google OAuth endpoints.
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`

	LogLevel  string `toml:"log_level"`
	LogPretty bool   `toml:"log_pretty"`

	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Calendar CalendarConfig `toml:"calendar"`
	Proxy    ProxyConfig    `toml:"proxy"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver          string        `toml:"driver"` // sqlite or mongo
	Path            string        `toml:"path"`
	MongoURI        string        `toml:"mongo_uri"`
	MongoDatabase   string        `toml:"mongo_database"`
	WriteAttempts   int           `toml:"write_attempts"`
	WriteRetryDelay time.Duration `toml:"write_retry_delay"`
}

type CalendarConfig struct {
	Provider       string       `toml:"provider"` // google or caldav
	CalendarID     string       `toml:"calendar_id"`
	TimeZone       string       `toml:"time_zone"`
	OwnerUserID    string       `toml:"owner_user_id"`
	OwnerEmail     string       `toml:"owner_email"`
	DefaultSummary string       `toml:"default_summary"`
	Endpoint       string       `toml:"endpoint"`
	CalDAV         CalDAVConfig `toml:"caldav"`
}

type CalDAVConfig struct {
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

type ProxyConfig struct {
	AutocompleteEndpoint string        `toml:"autocomplete_endpoint"`
	DetailsEndpoint      string        `toml:"details_endpoint"`
	Timeout              time.Duration `toml:"timeout"`
	DetailsTimeout       time.Duration `toml:"details_timeout"`
	DetailsFields        string        `toml:"details_fields"`
	RateLimitRPS         float64       `toml:"rate_limit_rps"`
	RateLimitBurst       int           `toml:"rate_limit_burst"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:          "sqlite",
			Path:            ".gcalgate.db",
			MongoDatabase:   "gcalgate",
			WriteAttempts:   3,
			WriteRetryDelay: 2 * time.Second,
		},
		Calendar: CalendarConfig{
			Provider:       "google",
			TimeZone:       "Asia/Kolkata",
			DefaultSummary: "STHI Intro Meeting",
		},
		Proxy: ProxyConfig{
			AutocompleteEndpoint: "https://maps.googleapis.com/maps/api/place/autocomplete/json",
			DetailsEndpoint:      "https://maps.googleapis.com/maps/api/place/details/json",
			Timeout:              15 * time.Second,
			DetailsTimeout:       10 * time.Second,
			DetailsFields:        "place_id,name,formatted_address,geometry,formatted_phone_number,international_phone_number,website,type",
			RateLimitRPS:         5,
			RateLimitBurst:       10,
		},
	}
}

// readConfig loads filename if given, otherwise looks for the default config
// in the current dir and then in `$HOME/.config/gcalgate/`. A missing file is
// not an error: defaults and environment overrides still apply.
func readConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	config := defaultConfig()

	var data []byte
	var err error
	if filename != "" {
		data, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	} else {
		data, err = os.ReadFile(configFileName)
		if errors.Is(err, fs.ErrNotExist) {
			data, err = os.ReadFile(filepath.Join(os.Getenv("HOME"), ".config", "gcalgate", configFileName))
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if len(data) > 0 {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(config)
	return config, nil
}

// applyEnv lets deployments keep secrets and ids out of the config file.
func applyEnv(config *Config) {
	overrides := map[string]*string{
		"GCALGATE_CLIENT_ID":       &config.ClientID,
		"GCALGATE_CLIENT_SECRET":   &config.ClientSecret,
		"GCALGATE_REDIRECT_URL":    &config.RedirectURL,
		"GCALGATE_CALENDAR_ID":     &config.Calendar.CalendarID,
		"GCALGATE_OWNER_USER_ID":   &config.Calendar.OwnerUserID,
		"GCALGATE_OWNER_EMAIL":     &config.Calendar.OwnerEmail,
		"GCALGATE_STORE_DRIVER":    &config.Store.Driver,
		"GCALGATE_DB_PATH":         &config.Store.Path,
		"GCALGATE_MONGO_URI":       &config.Store.MongoURI,
		"GCALGATE_CALDAV_PASSWORD": &config.Calendar.CalDAV.Password,
		"GCALGATE_ADDR":            &config.Server.Addr,
		"GCALGATE_LOG_LEVEL":       &config.LogLevel,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

func newOAuthConfig(config *Config) *oauth2.Config {
	endpoint := google.Endpoint
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	return &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  config.RedirectURL,
		Scopes:       []string{calendar.CalendarScope},
	}
}

func setupLogging(config *Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil || config.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.LogPretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
