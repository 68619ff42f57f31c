package internal

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/recently/internal/recent"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSiteConfig_Validation(t *testing.T) {
	cases := map[string]func(c *SiteConfig){
		"empty root":          func(c *SiteConfig) { c.Root = "" },
		"relative listing":    func(c *SiteConfig) { c.ListingURL = "recent.html" },
		"zero recent limit":   func(c *SiteConfig) { c.RecentLimit = 0 },
		"negative month":      func(c *SiteConfig) { c.MonthLimit = -1 },
		"tiny description":    func(c *SiteConfig) { c.MonthDescriptionLen = 2 },
		"unknown zone":        func(c *SiteConfig) { c.Timezone = "Mars/Olympus" },
		"relative exclusion":  func(c *SiteConfig) { c.Exclude = []string{"feed.xml"} },
		"missing output dir":  func(c *SiteConfig) { c.OutputDir = "" },
		"missing placeholder": func(c *SiteConfig) { c.Placeholder = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(&cfg.Site)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSiteConfig_Location(t *testing.T) {
	c := NewDefaultConfig().Site
	loc, err := c.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("empty zone = %v, %v, want UTC", loc, err)
	}
	c.Timezone = "America/Los_Angeles"
	loc, err = c.Location()
	if err != nil || loc.String() != "America/Los_Angeles" {
		t.Errorf("zone = %v, %v", loc, err)
	}
}

func TestSiteConfig_RecentOptions(t *testing.T) {
	c := NewDefaultConfig().Site
	c.ListingURL = "/docs/changes.html"
	c.Exclude = []string{"/private.html"}
	c.RecentLimit = 5

	opts := c.RecentOptions(time.UTC)
	if opts.RecentLimit != 5 || opts.MonthLimit != recent.DefaultMonthLimit {
		t.Errorf("limits = %d/%d", opts.RecentLimit, opts.MonthLimit)
	}
	for _, want := range []string{"/404.html", "/docs/changes.html", "/private.html"} {
		if !slices.Contains(opts.Excluded, want) {
			t.Errorf("excluded %v missing %s", opts.Excluded, want)
		}
	}
}

func TestSiteConfig_OutputPaths(t *testing.T) {
	cases := []struct{ url, html, json string }{
		{"/recent-updates.html", "recent-updates.html", "recent-updates.json"},
		{"/docs/changes.html", "docs/changes.html", "docs/changes.json"},
		{"/changes/", "changes/index.html", "changes/index.json"},
	}
	for _, c := range cases {
		s := SiteConfig{ListingURL: c.url}
		h, j := s.OutputPaths()
		if h != c.html || j != c.json {
			t.Errorf("OutputPaths(%q) = %q, %q, want %q, %q", c.url, h, j, c.html, c.json)
		}
	}
}
