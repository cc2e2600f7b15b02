package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config holds the gateway configuration
type Config struct {
	// BindAddress is the address the HTTP server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// HTTPToken, when set, is required of HTTP clients as a bearer token
	HTTPToken string `yaml:"http_token"`
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// SimPIN is the SIM card PIN code
	SimPIN string `yaml:"sim_pin"`

	// MQTTBroker enables the MQTT front end when non-empty (e.g. "tcp://localhost:1883")
	MQTTBroker string `yaml:"mqtt_broker"`
	// MQTTClientID identifies this gateway to the broker
	MQTTClientID string `yaml:"mqtt_client_id"`
	// MQTTTopic is the topic subscribed for outbound send requests
	MQTTTopic string `yaml:"mqtt_topic"`
	// MQTTPrefix prefixes the topics inbound messages and status changes are published on
	MQTTPrefix string `yaml:"mqtt_prefix"`
	// MQTTUsername and MQTTPassword are the broker credentials, if any
	MQTTUsername string `yaml:"mqtt_username"`
	MQTTPassword string `yaml:"mqtt_password"`

	// RatePerMin caps how many messages the gateway sends per minute
	RatePerMin int `yaml:"rate_per_min"`
	// MaxRetries bounds resend attempts for a failed message
	MaxRetries int `yaml:"max_retries"`
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
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.MQTTClientID = "cellgw-1"
		c.MQTTTopic = "cellgw/send"
		c.MQTTPrefix = "cellgw"
		c.RatePerMin = 30
		c.MaxRetries = 3
		return nil
	}
}

// WithFile loads configuration from a YAML file. A missing path is not an
// error when the file was not explicitly requested; pass required=true for
// files named on the command line.
func WithFile(path string, required bool) ConfigOption {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && !required {
				return nil
			}
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		setString := func(dst *string, key string) {
			if v := os.Getenv(key); v != "" {
				*dst = v
			}
		}
		setInt := func(dst *int, key string) {
			if v := os.Getenv(key); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					*dst = n
				}
			}
		}

		setString(&c.BindAddress, "BIND_ADDRESS")
		setString(&c.HTTPToken, "HTTP_TOKEN")
		setString(&c.SerialPort, "SERIAL_PORT")
		setInt(&c.BaudRate, "BAUD_RATE")
		setString(&c.LogLevel, "LOG_LEVEL")
		setString(&c.SimPIN, "SIM_PIN")
		setString(&c.MQTTBroker, "MQTT_BROKER")
		setString(&c.MQTTClientID, "MQTT_CLIENT_ID")
		setString(&c.MQTTTopic, "MQTT_TOPIC")
		setString(&c.MQTTPrefix, "MQTT_PREFIX")
		setString(&c.MQTTUsername, "MQTT_USERNAME")
		setString(&c.MQTTPassword, "MQTT_PASSWORD")
		setInt(&c.RatePerMin, "RATE_PER_MIN")
		setInt(&c.MaxRetries, "MAX_RETRIES")
		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "sim-pin":
				c.SimPIN = f.Value.String()
			case "mqtt-broker":
				c.MQTTBroker = f.Value.String()
			}
		})
		return nil
	}
}
