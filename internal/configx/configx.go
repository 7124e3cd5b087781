// Package configx layers configuration sources with koanf: built-in
// defaults, then an optional JSON or YAML file, then environment variables,
// then command-line flags. Later layers win.
package configx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFlag is the flag naming the optional config file.
const ConfigFlag = "config"

// Source describes one configuration struct.
type Source struct {
	// Defaults maps koanf keys to their built-in values.
	Defaults map[string]any

	// Env maps environment variable names to koanf keys. Variables not
	// listed are ignored.
	Env map[string]string
}

// NewFlagSet returns a flag set that tolerates flags it does not know and
// already carries the -c/--config flag.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.StringP(ConfigFlag, "c", "", "path to a JSON or YAML config file")
	return fs
}

// Load merges every layer and unmarshals the result into out using
// `koanf` struct tags. fs must already be parsed. Flag names use dashes
// and map to keys with underscores (--grpc-addr sets grpc_addr).
func Load(fs *pflag.FlagSet, src Source, out any) error {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(src.Defaults, "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	if path, _ := fs.GetString(ConfigFlag); path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envCB := func(name string) string {
		return src.Env[name]
	}
	if err := k.Load(env.Provider("", ".", envCB), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	flagCB := func(f *pflag.Flag) (string, interface{}) {
		if f.Name == ConfigFlag {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagCB), nil); err != nil {
		return fmt.Errorf("load flags: %w", err)
	}

	if err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
}
