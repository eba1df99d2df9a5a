package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshotter persists the whole tenant set at once.
type Snapshotter interface {
	Load(ctx context.Context) ([]tenant.Config, error)
	Save(ctx context.Context, configs []tenant.Config) error
}

// FileSnapshot stores the tenant set as one JSON array on disk.
type FileSnapshot struct {
	path string
}

// NewFileSnapshot returns a snapshot bound to path. The directory is created on first save.
func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{path: path}
}

// Load reads and decodes the snapshot file.
func (s *FileSnapshot) Load(_ context.Context) ([]tenant.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

// Save rewrites the snapshot through a temp file and rename.
func (s *FileSnapshot) Save(_ context.Context, configs []tenant.Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// EnvSnapshot loads the tenant set from a JSON blob supplied through the environment,
// for hosts without writable storage. It never writes back.
type EnvSnapshot struct {
	blob string
}

// NewEnvSnapshot wraps the raw JSON blob.
func NewEnvSnapshot(blob string) *EnvSnapshot {
	return &EnvSnapshot{blob: blob}
}

// Load decodes the blob.
func (s *EnvSnapshot) Load(_ context.Context) ([]tenant.Config, error) {
	if strings.TrimSpace(s.blob) == "" {
		return nil, ErrSnapshotNotFound
	}
	return decodeSnapshot([]byte(s.blob))
}

// Save is a no-op.
func (s *EnvSnapshot) Save(context.Context, []tenant.Config) error {
	return nil
}

func decodeSnapshot(data []byte) ([]tenant.Config, error) {
	var configs []tenant.Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return configs, nil
}
