package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BindAddress is the address the serve command listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// Country selects the Sigfox frequency zone (e.g. "sg", "us", "fr")
	Country string
	// Device is the expected device ID, used in emulator mode
	Device string
	// Emulator enables the local Sigfox emulator mode
	Emulator bool
	// CommandTimeout bounds the wait for each command response
	CommandTimeout time.Duration
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB0"
		c.BindAddress = "0.0.0.0:8080"
		c.LogLevel = "info"
		c.Country = "sg"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if country := os.Getenv("SIGFOX_COUNTRY"); country != "" {
			c.Country = country
		}

		if device := os.Getenv("SIGFOX_DEVICE"); device != "" {
			c.Device = device
		}

		if emulator := os.Getenv("SIGFOX_EMULATOR"); emulator != "" {
			if b, err := strconv.ParseBool(emulator); err == nil {
				c.Emulator = b
			}
		}

		return nil
	}
}

type fileConfig struct {
	SerialPort     string `toml:"serial_port"`
	BindAddress    string `toml:"bind_address"`
	LogLevel       string `toml:"log_level"`
	Country        string `toml:"country"`
	Device         string `toml:"device"`
	Emulator       bool   `toml:"emulator"`
	CommandTimeout string `toml:"command_timeout"`
}

// WithFile overlays configuration from a TOML file. Only keys present
// in the file override earlier values.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return fmt.Errorf("load config file: %w", err)
		}

		if meta.IsDefined("serial_port") {
			c.SerialPort = raw.SerialPort
		}
		if meta.IsDefined("bind_address") {
			c.BindAddress = raw.BindAddress
		}
		if meta.IsDefined("log_level") {
			c.LogLevel = raw.LogLevel
		}
		if meta.IsDefined("country") {
			c.Country = raw.Country
		}
		if meta.IsDefined("device") {
			c.Device = raw.Device
		}
		if meta.IsDefined("emulator") {
			c.Emulator = raw.Emulator
		}
		if meta.IsDefined("command_timeout") {
			d, err := time.ParseDuration(raw.CommandTimeout)
			if err != nil {
				return fmt.Errorf("parse command_timeout: %w", err)
			}
			c.CommandTimeout = d
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			case "country":
				c.Country = f.Value.String()
			case "device":
				c.Device = f.Value.String()
			case "emulator":
				if b, err := strconv.ParseBool(f.Value.String()); err == nil {
					c.Emulator = b
				}
			}
		})
		return nil
	}
}
