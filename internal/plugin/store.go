package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/opshub/console/internal/storage"
)

// InstalledKey is the storage key holding the installed set as a JSON
// array of plugin names.
const InstalledKey = "opshub_installed_plugins"

// LoadResult classifies a read of the installed set.
type LoadResult int

const (
	LoadOK LoadResult = iota
	LoadAbsent
	LoadCorrupt
	LoadUnavailable
)

func (r LoadResult) String() string {
	switch r {
	case LoadOK:
		return "ok"
	case LoadAbsent:
		return "absent"
	case LoadCorrupt:
		return "corrupt"
	case LoadUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("LoadResult(%d)", int(r))
	}
}

// InstalledStore persists the installed set.
type InstalledStore struct {
	kv storage.KV
}

func NewInstalledStore(kv storage.KV) *InstalledStore {
	return &InstalledStore{kv: kv}
}

// Load reads the installed set. Anything but LoadOK comes with an empty
// list; the error explains corrupt and unavailable results.
func (s *InstalledStore) Load(ctx context.Context) ([]string, LoadResult, error) {
	raw, err := s.kv.Get(ctx, InstalledKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, LoadAbsent, nil
	}
	if err != nil {
		return nil, LoadUnavailable, fmt.Errorf("failed to read installed plugins: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, LoadAbsent, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, LoadCorrupt, fmt.Errorf("failed to parse installed plugins: %w", err)
	}
	return dedupe(names), LoadOK, nil
}

// Save writes the installed set in the given order.
func (s *InstalledStore) Save(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode installed plugins: %w", err)
	}
	if err := s.kv.Set(ctx, InstalledKey, string(data)); err != nil {
		return fmt.Errorf("failed to save installed plugins: %w", err)
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
