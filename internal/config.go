package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/recently/internal/recent"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Site   SiteConfig        `yaml:"site"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

var urlPath = regexp.MustCompile(`^/\S*$`)

// SiteConfig describes the documentation site and how its listing is built.
type SiteConfig struct {
	// Root is the directory holding the Markdown sources.
	Root string `yaml:"root"`
	// ListingURL is where the recent-updates page is published. It is never listed itself.
	ListingURL string `yaml:"listing_url"`
	// Exclude lists further URLs kept out of both views.
	Exclude []string `yaml:"exclude"`

	RecentLimit          int    `yaml:"recent_limit"`
	MonthLimit           int    `yaml:"month_limit"`
	RecentDescriptionLen int    `yaml:"recent_description_length"`
	MonthDescriptionLen  int    `yaml:"month_description_length"`
	Placeholder          string `yaml:"placeholder"`

	// Timezone is an IANA zone name used for dates without an offset and for month boundaries.
	Timezone string `yaml:"timezone"`
	// OutputDir receives the files written by the build command.
	OutputDir string `yaml:"output_dir"`
	// Template optionally replaces the built-in HTML fragment.
	Template string `yaml:"template"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.ListingURL, validation.Required, validation.Match(urlPath)),
		validation.Field(&c.Exclude, validation.Each(validation.Match(urlPath))),
		validation.Field(&c.RecentLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.MonthLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.RecentDescriptionLen, validation.Required, validation.Min(4)),
		validation.Field(&c.MonthDescriptionLen, validation.Required, validation.Min(4)),
		validation.Field(&c.Placeholder, validation.Required),
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := c.Location()
			return err
		})),
		validation.Field(&c.OutputDir, validation.Required),
	)
}

// Location resolves Timezone. An empty zone means UTC.
func (c *SiteConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", c.Timezone)
	}
	return loc, nil
}

// RecentOptions returns builder options for this site. Now is left zero;
// callers set the build time.
func (c *SiteConfig) RecentOptions(loc *time.Location) recent.Options {
	excluded := append([]string(nil), recent.DefaultExcluded...)
	excluded = append(excluded, c.ListingURL)
	excluded = append(excluded, c.Exclude...)
	return recent.Options{
		Location:             loc,
		Excluded:             excluded,
		RecentLimit:          c.RecentLimit,
		MonthLimit:           c.MonthLimit,
		RecentDescriptionLen: c.RecentDescriptionLen,
		MonthDescriptionLen:  c.MonthDescriptionLen,
		Placeholder:          c.Placeholder,
	}
}

// OutputPaths returns the paths, relative to OutputDir, of the HTML fragment
// and its JSON companion. Both follow the listing URL.
func (c *SiteConfig) OutputPaths() (htmlPath, jsonPath string) {
	htmlPath = strings.TrimPrefix(c.ListingURL, "/")
	if htmlPath == "" || strings.HasSuffix(htmlPath, "/") {
		htmlPath += "index.html"
	}
	jsonPath = strings.TrimSuffix(htmlPath, ".html") + ".json"
	return htmlPath, jsonPath
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Root:                 "./docs",
			ListingURL:           "/recent-updates.html",
			RecentLimit:          recent.DefaultRecentLimit,
			MonthLimit:           recent.DefaultMonthLimit,
			RecentDescriptionLen: recent.DefaultRecentDescriptionLen,
			MonthDescriptionLen:  recent.DefaultMonthDescriptionLen,
			Placeholder:          recent.DefaultPlaceholder,
			OutputDir:            "./docs/_includes",
		},
		SQLite: SQLiteConfig{
			Path: "./recently.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
