package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PROMPTQ_"

// ReadConfig loads config.toml from the working directory.
func ReadConfig() (configDefinition, error) {
	return ReadConfigFile("config.toml")
}

// ReadConfigFile layers defaults, the TOML file at path (optional) and
// PROMPTQ_* environment variables, then stores the result in Config.
// Nested keys use a double underscore: PROMPTQ_SHEET__SPREADSHEET_ID.
func ReadConfigFile(path string) (configDefinition, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return configDefinition{}, fmt.Errorf("load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return configDefinition{}, fmt.Errorf("load %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return configDefinition{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return configDefinition{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg configDefinition
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return configDefinition{}, fmt.Errorf("unmarshal config: %w", err)
	}
	Config = cfg
	return cfg, nil
}

// envKey maps PROMPTQ_RATE_LIMIT__MAX_CALLS to rate_limit.max_calls.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}
