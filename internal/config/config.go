package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		HTTPPort   string `yaml:"http_port"`
		PublicAddr string `yaml:"public_addr"`
	} `yaml:"server"`
	Session struct {
		Tick       string `yaml:"tick"`
		GridSize   int    `yaml:"grid_size"`
		SendBuffer int    `yaml:"send_buffer"`
	} `yaml:"session"`
	Catalog struct {
		ID   string `yaml:"id"`
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"catalog"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file sets a value.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "5555"
	cfg.Server.HTTPPort = "8080"
	cfg.Session.Tick = "100ms"
	cfg.Session.GridSize = 20
	cfg.Session.SendBuffer = 64
	cfg.Catalog.ID = "christmas"
	cfg.Catalog.Path = "config/levels.yaml"
	cfg.Catalog.TTL = "10m"
	cfg.Redis.TTL = "10m"
	cfg.Log.Format = "console"
	return cfg
}

// Load reads YAML config from path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first configuration fault.
func (c Config) Validate() error {
	if err := validPort(c.Server.Port); err != nil {
		return fmt.Errorf("server.port: %w", err)
	}
	if c.Server.HTTPPort != "" {
		if err := validPort(c.Server.HTTPPort); err != nil {
			return fmt.Errorf("server.http_port: %w", err)
		}
	}
	if c.Session.GridSize < 1 {
		return fmt.Errorf("session.grid_size must be at least 1, got %d", c.Session.GridSize)
	}
	if c.Catalog.Path == "" && c.Postgres.URL == "" {
		return errors.New("catalog: set catalog.path or postgres.url")
	}
	if c.Log.Format != "" && c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// TCPAddr is the participant listen address.
func (c Config) TCPAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// HTTPAddr is the HTTP listen address, empty when HTTP is disabled.
func (c Config) HTTPAddr() string {
	if c.Server.HTTPPort == "" {
		return ""
	}
	return net.JoinHostPort(c.Server.Host, c.Server.HTTPPort)
}

// JoinAddr is the address shown to students, falling back to the listen address.
func (c Config) JoinAddr() string {
	if c.Server.PublicAddr != "" {
		return c.Server.PublicAddr
	}
	return c.TCPAddr()
}

func validPort(raw string) error {
	p, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid port %q", raw)
	}
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range", p)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
