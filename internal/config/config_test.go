package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"venues": [
			{"name": "binance", "host": "stream.binance.com", "port": "9443", "symbols": ["BTCUSDT"], "channels": ["trade", "depth"]},
			{"name": "coinbase", "host": "ws-feed.exchange.coinbase.com", "port": "443", "symbols": ["BTC-USD"], "channels": ["level2", "matches"]}
		],
		"arb": {"enabled": true, "venueA": "binance", "venueB": "coinbase", "symbol": "BTCUSDT", "feeRate": 0.001}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Venues) != 2 {
		t.Fatalf("len(Venues) = %d, want 2", len(cfg.Venues))
	}
	if !cfg.Arb.Enabled || cfg.Arb.VenueA != "binance" || cfg.Arb.VenueB != "coinbase" {
		t.Fatalf("Arb = %+v", cfg.Arb)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.json"); err == nil {
		t.Fatal("Load() error = nil, want error for missing file")
	}
}

func TestLoadRejectsVenueWithoutSymbols(t *testing.T) {
	path := writeTempConfig(t, `{"venues": [{"name": "binance", "host": "stream.binance.com", "symbols": []}]}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for venue with no symbols")
	}
}

func TestLoadRejectsArbReferencingUnknownVenue(t *testing.T) {
	path := writeTempConfig(t, `{
		"venues": [{"name": "binance", "host": "stream.binance.com", "symbols": ["BTCUSDT"]}],
		"arb": {"enabled": true, "venueA": "binance", "venueB": "kraken"}
	}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for arb referencing unconfigured venue")
	}
}
