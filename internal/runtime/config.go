package runtime

import (
	"sort"
	"sync"
	"sync/atomic"
)

// ConfigBackend receives configuration during injection. Every
// implementation supports per-key writes; ones that can ingest a whole
// snapshot at once additionally implement BulkSetter.
type ConfigBackend interface {
	Set(key, value string, secret bool)
}

// BulkSetter is the optional fast path for backends that apply the full
// snapshot in a single call.
type BulkSetter interface {
	SetAll(values map[string]string, secretKeys []string)
}

// InstallConfig writes the engine-provided snapshot into the backend. A
// backend implementing BulkSetter gets the snapshot in one call and its
// per-key path is never touched; any other backend receives one Set per key.
// Both paths leave the backend in the same observable state.
func InstallConfig(backend ConfigBackend, values map[string]string, secretKeys []string) {
	if bulk, ok := backend.(BulkSetter); ok {
		bulk.SetAll(values, secretKeys)
		return
	}
	secrets := make(map[string]struct{}, len(secretKeys))
	for _, key := range secretKeys {
		secrets[key] = struct{}{}
	}
	for key, value := range values {
		_, secret := secrets[key]
		backend.Set(key, value, secret)
	}
}

// ConfigStore is the canonical in-process configuration snapshot programs
// read from. It is populated during host startup and read from program code,
// potentially on other goroutines, so access is guarded.
type ConfigStore struct {
	mu      sync.RWMutex
	values  map[string]string
	secrets map[string]struct{}
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values:  make(map[string]string),
		secrets: make(map[string]struct{}),
	}
}

// Set stores one key, optionally marking it secret.
func (s *ConfigStore) Set(key, value string, secret bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	if secret {
		s.secrets[key] = struct{}{}
	}
}

// SetAll merges a whole snapshot into the store.
func (s *ConfigStore) SetAll(values map[string]string, secretKeys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		s.values[key] = value
	}
	for _, key := range secretKeys {
		s.secrets[key] = struct{}{}
	}
}

// Get looks up one key.
func (s *ConfigStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// IsSecret reports whether key was marked secret during injection.
func (s *ConfigStore) IsSecret(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[key]
	return ok
}

// Len returns the number of stored keys.
func (s *ConfigStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// All returns a copy of the stored values.
func (s *ConfigStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// SecretKeys returns the sorted keys marked secret.
func (s *ConfigStore) SecretKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.secrets))
	for key := range s.secrets {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

var processConfig atomic.Pointer[ConfigStore]

// InstallStore makes s the process-wide configuration store.
func InstallStore(s *ConfigStore) {
	processConfig.Store(s)
}

// CurrentConfig returns the process-wide store, or nil when no run is
// active. Prefer reading configuration through Context; this exists for code
// paths that have no Context in reach.
func CurrentConfig() *ConfigStore {
	return processConfig.Load()
}

// Lookup reads one key from the process-wide store. It tolerates running
// before injection, when module-level code evaluates early, by reporting
// every key as absent.
func Lookup(key string) (string, bool) {
	store := processConfig.Load()
	if store == nil {
		return "", false
	}
	return store.Get(key)
}
