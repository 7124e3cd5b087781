package cli

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gatekeeper/internal/configx"
	"github.com/spf13/pflag"
)

// DefaultServerURL is the gateway address used when nothing else is set.
const DefaultServerURL = "http://localhost:3000"

// Config holds settings shared by every CLI command.
type Config struct {
	ServerURL string `koanf:"server"`
	TokenFile string `koanf:"token_file"`
}

var envKeys = map[string]string{
	"GATEKEEPER_URL":        "server",
	"GATEKEEPER_TOKEN_FILE": "token_file",
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gatekeeper-token"
	}
	return filepath.Join(home, ".gatekeeper", "token")
}

func defaults() map[string]any {
	return map[string]any{
		"server":     DefaultServerURL,
		"token_file": defaultTokenFile(),
	}
}

// loadConfig layers defaults, environment and the persistent flags of fs.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	if err := configx.Load(fs, configx.Source{Defaults: defaults(), Env: envKeys}, cfg); err != nil {
		return nil, err
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("server must be an absolute URL, e.g. " + DefaultServerURL)
	}
	if cfg.TokenFile == "" {
		return nil, errors.New("token file path is required")
	}
	return cfg, nil
}
