// Package config loads service settings from a YAML file, an optional .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Artifacts struct {
		ScalerPath string `yaml:"scaler_path"`
		ModelPath  string `yaml:"model_path"`
		Watch      bool   `yaml:"watch"`
	} `yaml:"artifacts"`
	Predict struct {
		StrictCategories bool `yaml:"strict_categories"`
		CacheSize        int  `yaml:"cache_size"`
	} `yaml:"predict"`
	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Environment variables that override the file.
const (
	EnvScalerPath = "SCALER_PATH"
	EnvModelPath  = "RF_PATH"
	EnvPort       = "PORT"
	EnvLogLevel   = "LOG_LEVEL"
)

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 1112
	cfg.Server.Timeout = 30 * time.Second
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Predict.CacheSize = 1024
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Log.MaxSizeMB = 100
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	return cfg
}

// Load builds the configuration. An empty configPath skips the YAML file; an
// empty envFile means ".env" in the working directory. A missing .env file is
// not an error, a missing YAML file is.
func Load(configPath, envFile string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", configPath, err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvScalerPath); v != "" {
		c.Artifacts.ScalerPath = v
	}
	if v := os.Getenv(EnvModelPath); v != "" {
		c.Artifacts.ModelPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate fails when either artifact path is unset or unreadable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if err := checkReadable(EnvScalerPath, c.Artifacts.ScalerPath); err != nil {
		return err
	}
	return checkReadable(EnvModelPath, c.Artifacts.ModelPath)
}

func checkReadable(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s is not set", name)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", name, path)
	}
	return nil
}
