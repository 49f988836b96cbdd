package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	URLs         string        // raw "; "-separated target list
	CSVPath      string        // output CSV, truncated at startup
	Delay        time.Duration // pause between iterations, also the socket timeout
	Iterations   int
	LogFile      string
	LogLevel     int    // 1 info, 2 debug
	ListenAddr   string // status API; empty disables it
	DatabaseURL  string // postgres; empty disables it
	SQLitePath   string // empty disables it
	SlackWebhook string
	APIToken     string // optional token for the status API
	ConfigFile   string
}

// fileConfig is the YAML layout accepted by -config.
type fileConfig struct {
	URLs         string   `yaml:"urls"`
	Targets      []string `yaml:"targets"`
	Output       string   `yaml:"output"`
	IterSleepMS  int      `yaml:"iter_sleep_ms"`
	IterCount    int      `yaml:"iter_count"`
	Log          string   `yaml:"log"`
	LogLevel     int      `yaml:"loglevel"`
	Listen       string   `yaml:"listen"`
	DatabaseURL  string   `yaml:"database_url"`
	SQLite       string   `yaml:"sqlite"`
	SlackWebhook string   `yaml:"slack_webhook"`
	APIToken     string   `yaml:"api_token"`
}

// FromEnv returns the defaults, overridden by whatever the environment sets.
func FromEnv() Config {
	cfg := Config{
		URLs:         os.Getenv("HTTPPROBE_URLS"),
		CSVPath:      os.Getenv("CSV_FILE"),
		Delay:        5000 * time.Millisecond,
		Iterations:   3,
		LogFile:      os.Getenv("LOG_FILE"),
		LogLevel:     1,
		ListenAddr:   os.Getenv("API_ADDR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		SlackWebhook: os.Getenv("SLACK_WEBHOOK"),
		APIToken:     os.Getenv("API_TOKEN"),
		ConfigFile:   os.Getenv("HTTPPROBE_CONFIG"),
	}
	if v := os.Getenv("ITER_SLEEP_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Delay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("ITER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Iterations = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}
	return cfg
}

// Load builds the configuration from, in increasing precedence: defaults,
// environment, the YAML file named by -config, and explicit flags.
func Load(name string, args []string, usage io.Writer) (Config, error) {
	cfg := FromEnv()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(usage)
	var (
		urls       = fs.String("s", cfg.URLs, "URL list for probing separated by \"; \"")
		csvPath    = fs.String("o", cfg.CSVPath, "output CSV file")
		sleepMS    = fs.Int("t", int(cfg.Delay/time.Millisecond), "time between iterations (msec), also the socket timeout")
		iterations = fs.Int("n", cfg.Iterations, "number of iterations")
		logFile    = fs.String("log", cfg.LogFile, "log file name")
		logLevel   = fs.Int("loglevel", cfg.LogLevel, "log verbosity: 1 info, 2 debug")
		configFile = fs.String("config", cfg.ConfigFile, "optional YAML config file")
		listen     = fs.String("listen", cfg.ListenAddr, "status API listen address (empty disables)")
		dbURL      = fs.String("db", cfg.DatabaseURL, "postgres DSN for result storage (empty disables)")
		sqlitePath = fs.String("sqlite", cfg.SQLitePath, "SQLite file for result storage (empty disables)")
		slack      = fs.String("slack", cfg.SlackWebhook, "Slack webhook notified about failing iterations")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.ConfigFile = *configFile
	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.URLs = *urls
		case "o":
			cfg.CSVPath = *csvPath
		case "t":
			cfg.Delay = time.Duration(*sleepMS) * time.Millisecond
		case "n":
			cfg.Iterations = *iterations
		case "log":
			cfg.LogFile = *logFile
		case "loglevel":
			cfg.LogLevel = *logLevel
		case "listen":
			cfg.ListenAddr = *listen
		case "db":
			cfg.DatabaseURL = *dbURL
		case "sqlite":
			cfg.SQLitePath = *sqlitePath
		case "slack":
			cfg.SlackWebhook = *slack
		}
	})

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if len(fc.Targets) > 0 {
		c.URLs = strings.Join(fc.Targets, "; ")
	} else if fc.URLs != "" {
		c.URLs = fc.URLs
	}
	setString(&c.CSVPath, fc.Output)
	setString(&c.LogFile, fc.Log)
	setString(&c.ListenAddr, fc.Listen)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.SQLitePath, fc.SQLite)
	setString(&c.SlackWebhook, fc.SlackWebhook)
	setString(&c.APIToken, fc.APIToken)
	if fc.IterSleepMS != 0 {
		c.Delay = time.Duration(fc.IterSleepMS) * time.Millisecond
	}
	if fc.IterCount != 0 {
		c.Iterations = fc.IterCount
	}
	if fc.LogLevel != 0 {
		c.LogLevel = fc.LogLevel
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.URLs) == "" {
		errs = append(errs, errors.New("no URLs given (-s)"))
	}
	if c.CSVPath == "" {
		errs = append(errs, errors.New("no output CSV given (-o)"))
	}
	if c.LogFile == "" {
		errs = append(errs, errors.New("no log file given (-log)"))
	}
	if c.Delay <= 0 {
		errs = append(errs, fmt.Errorf("iteration delay must be positive, got %s", c.Delay))
	}
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iteration count must be positive, got %d", c.Iterations))
	}
	if c.LogLevel != 1 && c.LogLevel != 2 {
		errs = append(errs, fmt.Errorf("loglevel must be 1 or 2, got %d", c.LogLevel))
	}
	return errors.Join(errs...)
}
