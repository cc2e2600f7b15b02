package sim800

import (
	"time"

	"gridsense.io/telemetry/cellgw/at"
)

// Config carries the settings for one modem connection.
type Config struct {
	// Dialer opens the transport. Required.
	Dialer Dialer
	// SimPIN unlocks the SIM card during initialization, if the card
	// demands one.
	SimPIN string
	// Handler receives unsolicited events. Optional; registration happens
	// once, at connection open.
	Handler EventHandler
	// Patterns is the unsolicited classification table. Defaults to the
	// stock SIM800 table; override for firmware variants.
	Patterns *at.PatternSet
	// ATTimeout is the default budget for a command response. 5 s unless
	// the protocol step documents a longer bound.
	ATTimeout time.Duration
	// SendTimeout is the budget for the SMS send confirmation, which the
	// network may take tens of seconds to deliver.
	SendTimeout time.Duration
	// AttachTimeout is the budget for GPRS attach/detach.
	AttachTimeout time.Duration
	// InitTimeout bounds the whole initialization sequence, including
	// waiting for the SIM to come up after PIN entry.
	InitTimeout time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Patterns == nil {
		c.Patterns = at.NewPatternSet()
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.AttachTimeout == 0 {
		c.AttachTimeout = 10 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
}

// ConfigBuilder assembles a Config fluently; Build validates it and fills
// in defaults.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.SimPIN = pin
	return b
}

func (b *ConfigBuilder) WithHandler(h EventHandler) *ConfigBuilder {
	b.config.Handler = h
	return b
}

func (b *ConfigBuilder) WithPatterns(s *at.PatternSet) *ConfigBuilder {
	b.config.Patterns = s
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithSendTimeout(d time.Duration) *ConfigBuilder {
	b.config.SendTimeout = d
	return b
}

func (b *ConfigBuilder) WithAttachTimeout(d time.Duration) *ConfigBuilder {
	b.config.AttachTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	b.config.setDefaults()
	return b.config, nil
}
