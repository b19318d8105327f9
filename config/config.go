package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Default settlement windows in seconds: one week per stage, matching the
// cadence the protocol was originally run with.
const (
	DefaultSubmissionWindow int64 = 7 * 24 * 60 * 60
	DefaultRevealWindow     int64 = 7 * 24 * 60 * 60
	DefaultFinalClaimWindow int64 = 7 * 24 * 60 * 60
)

type Config struct {
	RPCAddress       string `toml:"RPCAddress"`
	DataDir          string `toml:"DataDir"`
	Env              string `toml:"Env"`
	LogFile          string `toml:"LogFile"`
	AuthorityAddress string `toml:"AuthorityAddress"`
	// Settlement windows in seconds. The submission window runs from game
	// initialization, the reveal window from the submission deadline and the
	// final claim window from the reveal deadline.
	SubmissionWindow      int64   `toml:"SubmissionWindow"`
	RevealWindow          int64   `toml:"RevealWindow"`
	FinalClaimWindow      int64   `toml:"FinalClaimWindow"`
	RPCRateLimitPerMinute float64 `toml:"RPCRateLimitPerMinute"`
}

// Load reads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./nugwager-data"
	}
	if c.SubmissionWindow <= 0 {
		c.SubmissionWindow = DefaultSubmissionWindow
	}
	if c.RevealWindow <= 0 {
		c.RevealWindow = DefaultRevealWindow
	}
	if c.FinalClaimWindow <= 0 {
		c.FinalClaimWindow = DefaultFinalClaimWindow
	}
	if c.RPCRateLimitPerMinute <= 0 {
		c.RPCRateLimitPerMinute = 600
	}
}

// Validate rejects configurations the daemon cannot safely run with.
func (c *Config) Validate() error {
	if trimmed := strings.TrimSpace(c.AuthorityAddress); trimmed != "" {
		if !common.IsHexAddress(trimmed) {
			return fmt.Errorf("AuthorityAddress %q is not a valid hex address", c.AuthorityAddress)
		}
	}
	if c.SubmissionWindow <= 0 || c.RevealWindow <= 0 || c.FinalClaimWindow <= 0 {
		return fmt.Errorf("settlement windows must be positive")
	}
	return nil
}

// Authority parses the configured authority address. The second return is
// false when no authority is configured.
func (c *Config) Authority() ([20]byte, bool) {
	trimmed := strings.TrimSpace(c.AuthorityAddress)
	if trimmed == "" || !common.IsHexAddress(trimmed) {
		return [20]byte{}, false
	}
	return common.HexToAddress(trimmed), true
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
