// Package config loads the JSON file that wires up venues, symbols, and
// the reference arbitrage strategy for a feedgateway process.
package config

import (
	"encoding/json"
	"os"

	"github.com/driftfeed/marketfeed/internal/errors"
)

// VenueConfig describes one venue pipeline to start.
type VenueConfig struct {
	Name        string   `json:"name"`
	Host        string   `json:"host"`
	Port        string   `json:"port"`
	Symbols     []string `json:"symbols"`
	Channels    []string `json:"channels"`
	APIKey      string   `json:"apiKey"`
	APISecret   string   `json:"apiSecret"`
	Passphrase  string   `json:"passphrase"`
	IOCore      int      `json:"ioCore"`
	ParserCore  int      `json:"parserCore"`
	RingSize    int      `json:"ringSize"`
}

// ArbConfig configures the reference cross-venue arbitrage strategy.
// Enabled defaults to false: the strategy only runs when both venue
// names are present and Enabled is explicitly set.
type ArbConfig struct {
	Enabled bool    `json:"enabled"`
	VenueA  string  `json:"venueA"`
	VenueB  string  `json:"venueB"`
	Symbol  string  `json:"symbol"`
	FeeRate float64 `json:"feeRate"`
}

// ProfilingConfig configures the optional pyroscope continuous profiler.
type ProfilingConfig struct {
	Enabled    bool   `json:"enabled"`
	ServerAddr string `json:"serverAddr"`
	AppName    string `json:"appName"`
}

// Config is the top-level feedgateway configuration file.
type Config struct {
	Venues    []VenueConfig   `json:"venues"`
	Arb       ArbConfig       `json:"arb"`
	Profiling ProfilingConfig `json:"profiling"`
}

// Load reads and parses a JSON config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: reading file")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: parsing json")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	names := make(map[string]bool, len(c.Venues))
	for _, v := range c.Venues {
		if v.Name == "" {
			return errors.New("config: venue name is empty")
		}
		if v.Host == "" {
			return errors.New("config: venue " + v.Name + " has no host")
		}
		if len(v.Symbols) == 0 {
			return errors.New("config: venue " + v.Name + " has no symbols")
		}
		names[v.Name] = true
	}
	if c.Arb.Enabled {
		if !names[c.Arb.VenueA] || !names[c.Arb.VenueB] {
			return errors.New("config: arb venues must reference configured venue names")
		}
	}
	return nil
}
