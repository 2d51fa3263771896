package simulator

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// ConfigStore holds the current meteor configuration record. When a path
// is set the record is also kept as a JSON file so it survives restarts.
type ConfigStore struct {
	mu     sync.RWMutex
	cfg    domain.MeteorConfig
	consts domain.PhysicalConstants
	clock  clockwork.Clock
	path   string
}

// NewConfigStore loads the record at path, or starts from the defaults when
// path is empty, missing, or unreadable. A stored record with any invalid
// numeric field is replaced by the defaults as a whole.
func NewConfigStore(consts domain.PhysicalConstants, clock clockwork.Clock, path string) *ConfigStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg := domain.DefaultMeteorConfig()
	cfg.UpdatedAt = clock.Now()
	if saved, ok := readRecord(path); ok {
		cfg = saved.Normalize(consts)
	}
	return &ConfigStore{cfg: cfg, consts: consts, clock: clock, path: path}
}

// Get returns the stored record.
func (s *ConfigStore) Get() domain.MeteorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Put replaces the stored record. A material given without a density takes
// the table density; a density given without a material gets one inferred.
// Invalid records are rejected and leave the store unchanged.
func (s *ConfigStore) Put(cfg domain.MeteorConfig) (domain.MeteorConfig, error) {
	next := domain.MeteorConfig{}.Overlay(cfg, s.consts)
	if err := next.Validate(s.consts); err != nil {
		return domain.MeteorConfig{}, err
	}
	if next.Material == "" {
		next.Material = s.consts.MaterialFor(next.DensityKgPerM3)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next.UpdatedAt = s.clock.Now()
	if err := writeRecord(s.path, next); err != nil {
		return domain.MeteorConfig{}, err
	}
	s.cfg = next
	return next, nil
}

// Resolve applies per-request overrides to the stored record without
// saving them.
func (s *ConfigStore) Resolve(override *domain.MeteorOverride) domain.MeteorConfig {
	cfg := s.Get()
	if override != nil {
		cfg = cfg.Apply(*override, s.consts)
	}
	if cfg.Material == "" {
		cfg.Material = s.consts.MaterialFor(cfg.DensityKgPerM3)
	}
	return cfg
}

// Materials returns a copy of the density table.
func (s *ConfigStore) Materials() map[domain.Material]float64 {
	return maps.Clone(s.consts.Materials)
}

func readRecord(path string) (domain.MeteorConfig, bool) {
	if path == "" {
		return domain.MeteorConfig{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MeteorConfig{}, false
	}
	var cfg domain.MeteorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.MeteorConfig{}, false
	}
	return cfg, true
}

// writeRecord replaces the file through a rename so readers never see a
// partial record.
func writeRecord(path string, cfg domain.MeteorConfig) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meteor config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".meteor-config-*")
	if err != nil {
		return fmt.Errorf("save meteor config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save meteor config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save meteor config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save meteor config: %w", err)
	}
	return nil
}
