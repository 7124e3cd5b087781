// Package config handles configuration for the HTTP gateway.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/configx"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
)

// Config holds runtime settings for the gateway.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr"`
	AuthServiceHost string        `koanf:"auth_service_host"`
	AuthServicePort int           `koanf:"auth_service_port"`
	JWTSecret       string        `koanf:"jwt_secret"`
	JWTExpiresIn    time.Duration `koanf:"jwt_expires_in"`
	JWTIssuer       string        `koanf:"jwt_issuer"`
	RPCTimeout      time.Duration `koanf:"rpc_timeout"`
	LogLevel        string        `koanf:"log_level"`
}

func defaults() map[string]any {
	return map[string]any{
		"http_addr":         ":3000",
		"auth_service_host": "localhost",
		"auth_service_port": 3001,
		"jwt_secret":        "",
		"jwt_expires_in":    time.Hour,
		"jwt_issuer":        "gatekeeper",
		"rpc_timeout":       5 * time.Second,
		"log_level":         "info",
	}
}

var envKeys = map[string]string{
	"GATEWAY_ADDR":      "http_addr",
	"AUTH_SERVICE_HOST": "auth_service_host",
	"AUTH_SERVICE_PORT": "auth_service_port",
	"JWT_SECRET":        "jwt_secret",
	"JWT_EXPIRES_IN":    "jwt_expires_in",
	"JWT_ISSUER":        "jwt_issuer",
	"RPC_TIMEOUT":       "rpc_timeout",
	"LOG_LEVEL":         "log_level",
}

// LoadConfig builds a Config from args (usually os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	d := defaults()

	fs := configx.NewFlagSet("gateway")
	fs.StringP("http-addr", "a", d["http_addr"].(string), "address and port to run the HTTP server")
	fs.StringP("auth-service-host", "H", d["auth_service_host"].(string), "identity service host")
	fs.IntP("auth-service-port", "P", d["auth_service_port"].(int), "identity service port")
	fs.StringP("jwt-secret", "s", "", "secret used to sign session tokens")
	fs.DurationP("jwt-expires-in", "t", d["jwt_expires_in"].(time.Duration), "session token lifetime")
	fs.String("jwt-issuer", d["jwt_issuer"].(string), "issuer claim of session tokens")
	fs.Duration("rpc-timeout", d["rpc_timeout"].(time.Duration), "timeout of each identity call")
	fs.StringP("log-level", "l", d["log_level"].(string), "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := configx.Load(fs, configx.Source{Defaults: d, Env: envKeys}, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthServiceAddr is the dial target of the identity service.
func (c *Config) AuthServiceAddr() string {
	return net.JoinHostPort(c.AuthServiceHost, strconv.Itoa(c.AuthServicePort))
}

// Validate rejects settings the gateway cannot start with. Secret strength
// is checked by the session issuer.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.AuthServiceHost == "" {
		errs = append(errs, errors.New("auth_service_host is required"))
	}
	if c.AuthServicePort <= 0 || c.AuthServicePort > 65535 {
		errs = append(errs, fmt.Errorf("auth_service_port must be between 1 and 65535, got %d", c.AuthServicePort))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("jwt_expires_in must be positive"))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, errors.New("rpc_timeout must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
