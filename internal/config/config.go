// Package config manages YAML-based configuration, CLI flags, and the recently scanned roots.
package config

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// MaxRecent caps how many scanned roots are remembered.
const MaxRecent = 10

// Config holds all configuration options for the scan service
type Config struct {
	// Host is the address the server binds, loopback by default
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Watch   bool   `yaml:"watch"`
	Open    bool   `yaml:"open"`
	Verbose bool   `yaml:"verbose"`

	// Recently scanned roots, most recent first
	Recent []string `yaml:"recent,omitempty"`

	// Internal: path to config file for saving
	configPath string
	mu         sync.Mutex
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Host:  "127.0.0.1",
		Port:  8080,
		Watch: true,
		Open:  false,
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/fileorganizer"
	}
	return filepath.Join(home, ".config", "fileorganizer")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from file and command line arguments (without the program name)
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fset := flag.NewFlagSet("fileorganizer", flag.ContinueOnError)
	host := fset.String("host", "", "Address to bind (default 127.0.0.1)")
	port := fset.Int("port", 0, "HTTP server port")
	watch := fset.Bool("watch", true, "Watch scanned roots for changes")
	open := fset.Bool("open", false, "Open browser on startup")
	verbose := fset.Bool("verbose", false, "Log skipped paths and debug output")
	configFile := fset.String("config", "", "Configuration file path")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	// Determine config file path
	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else {
		// Try ~/.config/fileorganizer/config.yaml first
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("fileorganizer.yaml"); err == nil {
			cfgPath = "fileorganizer.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only return error if user explicitly specified config file
			return nil, err
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	// Command line flags override config file (only if explicitly set)
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["watch"] {
		cfg.Watch = *watch
	}
	if set["open"] {
		cfg.Open = *open
	}
	if set["verbose"] {
		cfg.Verbose = *verbose
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save saves the current configuration to the config file
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	saveConfig := struct {
		Host    string   `yaml:"host"`
		Port    int      `yaml:"port"`
		Watch   bool     `yaml:"watch"`
		Open    bool     `yaml:"open"`
		Verbose bool     `yaml:"verbose"`
		Recent  []string `yaml:"recent,omitempty"`
	}{
		Host:    c.Host,
		Port:    c.Port,
		Watch:   c.Watch,
		Open:    c.Open,
		Verbose: c.Verbose,
		Recent:  c.Recent,
	}

	data, err := yaml.Marshal(saveConfig)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// AddRecent moves path to the front of the recent roots, resolving it to an
// absolute path first. It reports whether the list changed.
func (c *Config) AddRecent(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Recent) > 0 && c.Recent[0] == absPath {
		return false
	}

	recent := make([]string, 0, MaxRecent)
	recent = append(recent, absPath)
	for _, r := range c.Recent {
		if r != absPath && len(recent) < MaxRecent {
			recent = append(recent, r)
		}
	}
	c.Recent = recent
	return true
}

// RecentRoots returns a copy of the recently scanned roots
func (c *Config) RecentRoots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.Recent...)
}

// Addr returns the host:port the server listens on
func (c *Config) Addr() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// SetConfigFilePath changes where Save writes
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}
