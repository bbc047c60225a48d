// Package envconfig reads the configuration snapshot the engine hands to
// the host through the process environment.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// ConfigVar holds the configuration snapshot as a JSON object mapping
	// namespaced keys to string values.
	ConfigVar = "STACKHOST_CONFIG"
	// SecretKeysVar holds the keys of ConfigVar whose values are secret, as
	// a JSON array of strings.
	SecretKeysVar = "STACKHOST_CONFIG_SECRET_KEYS"
)

// LookupFunc resolves one environment variable. It has the shape of
// os.LookupEnv so tests can substitute a fixed environment.
type LookupFunc func(key string) (string, bool)

// Environment is the parsed configuration snapshot.
type Environment struct {
	Values     map[string]string
	SecretKeys []string
}

// Read parses the snapshot out of the environment, consulting it exactly
// once per variable. Absent or empty variables yield an empty snapshot;
// present but malformed ones are an error. A nil lookup reads the real
// process environment.
func Read(lookup LookupFunc) (*Environment, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := &Environment{Values: make(map[string]string)}
	if raw, ok := lookup(ConfigVar); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &env.Values); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ConfigVar, err)
		}
	}
	if raw, ok := lookup(SecretKeysVar); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &env.SecretKeys); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", SecretKeysVar, err)
		}
	}
	return env, nil
}

// IsSecret reports whether key is listed as secret.
func (e *Environment) IsSecret(key string) bool {
	for _, k := range e.SecretKeys {
		if k == key {
			return true
		}
	}
	return false
}
