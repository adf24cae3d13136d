package config

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Blog is a configured remote publishing endpoint posts can be opened from.
type Blog struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	Enabled     bool   `yaml:"enabled"`
}

// Password resolves the basic auth password from the environment.
func (b Blog) Password() string {
	if b.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(b.PasswordEnv)
}

type Config struct {
	Retention string `yaml:"retention"`
	LogLevel  string `yaml:"log_level,omitempty"`
	Blogs     []Blog `yaml:"blogs"`
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 30 * 24 * time.Hour
	}
	d, err := ParseDuration(c.Retention)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

// ParseDuration accepts Go durations plus an "Nd" day suffix.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

// Level maps log_level (or BLOGPULL_LOG_LEVEL) onto a slog level.
func (c *Config) Level() slog.Level {
	lvl := c.LogLevel
	if env := os.Getenv("BLOGPULL_LOG_LEVEL"); env != "" {
		lvl = env
	}
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) EnabledBlogs() []Blog {
	var out []Blog
	for _, b := range c.Blogs {
		if b.Enabled {
			out = append(out, b)
		}
	}
	return out
}

// FindBlog looks up an enabled blog by name, case-insensitively.
func (c *Config) FindBlog(name string) (int, bool) {
	for i, b := range c.EnabledBlogs() {
		if strings.EqualFold(b.Name, name) {
			return i, true
		}
	}
	return -1, false
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "blogpull", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "blogpull", "blogpull.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "blogpull", "blogpull.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (or the XDG default), writing the embedded
// defaults there on first run. A .env file in the working directory is
// loaded first so password_env lookups can resolve from it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: embedded defaults still apply
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	seen := make(map[string]bool)
	for i, b := range cfg.Blogs {
		if b.Name == "" {
			return fmt.Errorf("blog %d: name is required", i)
		}
		key := strings.ToLower(b.Name)
		if seen[key] {
			return fmt.Errorf("blog %q: duplicate name", b.Name)
		}
		seen[key] = true
		if b.URL == "" {
			return fmt.Errorf("blog %q: url is required", b.Name)
		}
		u, err := url.Parse(b.URL)
		if err != nil {
			return fmt.Errorf("blog %q: invalid url: %w", b.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("blog %q: url scheme must be http or https, got %q", b.Name, u.Scheme)
		}
		if !validTypes[b.Type] {
			return fmt.Errorf("blog %q: unknown type %q (valid: rss, atom)", b.Name, b.Type)
		}
		if b.PasswordEnv != "" && b.Username == "" {
			return fmt.Errorf("blog %q: password_env set without username", b.Name)
		}
	}
	if _, err := ParseDuration(cfg.retentionOrDefault()); err != nil {
		return fmt.Errorf("invalid retention %q: %w", cfg.Retention, err)
	}
	return nil
}

func (c *Config) retentionOrDefault() string {
	if c.Retention == "" {
		return "30d"
	}
	return c.Retention
}
