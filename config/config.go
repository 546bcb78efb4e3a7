package config

import (
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config holds crawler configuration.
type Config struct {
	BaseURL        string
	CatalogueURL   string // base for resolving product detail links
	DatabasePath   string
	Workers        int
	Timeout        time.Duration
	UserAgent      string
	FetchCacheSize int
	MetricsAddr    string
	Verbose        bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://books.toscrape.com/index.html",
		CatalogueURL:   "https://books.toscrape.com/catalogue/",
		DatabasePath:   "libros_secciones.db",
		Workers:        runtime.GOMAXPROCS(0),
		Timeout:        10 * time.Second,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		FetchCacheSize: 512,
		MetricsAddr:    "",
		Verbose:        false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.CatalogueURL == "" {
		return fmt.Errorf("catalogue URL cannot be empty")
	}
	catURL, err := url.Parse(c.CatalogueURL)
	if err != nil {
		return fmt.Errorf("invalid catalogue URL: %w", err)
	}
	if catURL.Host == "" {
		return fmt.Errorf("catalogue URL must include a host")
	}
	if !strings.HasSuffix(c.CatalogueURL, "/") {
		return fmt.Errorf("catalogue URL must end with a slash")
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.FetchCacheSize < 0 {
		return fmt.Errorf("fetch cache size cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// EnvInt reads an integer environment variable. The second return reports
// whether the variable was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable and whether it was set.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
