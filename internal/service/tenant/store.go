package tenant

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
)

// Store owns every tenant config for the lifetime of the process.
type Store struct {
	mu       sync.RWMutex
	configs  map[string]tenant.Config
	snapshot Snapshotter
	now      func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store persisting through snapshot. Call Load to restore state.
func NewStore(snapshot Snapshotter, opts ...Option) *Store {
	s := &Store{
		configs:  make(map[string]tenant.Config),
		snapshot: snapshot,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with the snapshot contents.
// A missing or unreadable snapshot leaves the store empty.
func (s *Store) Load(ctx context.Context) {
	configs, err := s.snapshot.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = make(map[string]tenant.Config, len(configs))

	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		log.Println("[store] no snapshot found, starting empty")
		return
	case err != nil:
		log.Printf("[store] failed to load snapshot, starting empty: %v", err)
		return
	}

	for _, cfg := range configs {
		if cfg.ID == "" {
			continue
		}
		s.configs[cfg.ID] = cfg
	}
	log.Printf("[store] loaded %d chatbot configs", len(s.configs))
}

// Create registers a new tenant and rewrites the snapshot.
// A failed snapshot write is logged; the tenant stays available in memory.
func (s *Store) Create(ctx context.Context, input tenant.CreateInput) (tenant.Config, error) {
	if err := ctx.Err(); err != nil {
		return tenant.Config{}, err
	}

	var custom tenant.Customization
	if input.Customization != nil {
		custom = *input.Customization
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := newID(now)
	for {
		if _, taken := s.configs[id]; !taken {
			break
		}
		id = newID(now)
	}

	cfg := tenant.Config{
		ID:            id,
		ClientName:    input.ClientName,
		BusinessName:  input.BusinessName,
		BusinessInfo:  input.BusinessInfo,
		KnowledgeBase: input.KnowledgeBase,
		Customization: custom.WithDefaults(),
		CreatedAt:     now,
		Active:        true,
	}
	s.configs[id] = cfg

	if err := s.snapshot.Save(ctx, s.sortedLocked()); err != nil {
		log.Printf("[store] failed to persist snapshot after creating %s: %v", id, err)
	}

	log.Printf("[store] created chatbot id=%s business=%q", id, cfg.BusinessName)
	return cfg, nil
}

// Get looks up a tenant by id.
func (s *Store) Get(id string) (tenant.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	return cfg, ok
}

// List returns the safe summary of every tenant, oldest first.
func (s *Store) List() []tenant.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs := s.sortedLocked()
	out := make([]tenant.Summary, len(configs))
	for i, cfg := range configs {
		out[i] = cfg.Summary()
	}
	return out
}

// Count returns the number of registered tenants.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.configs)
}

func (s *Store) sortedLocked() []tenant.Config {
	out := make([]tenant.Config, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// newID is a base36 millisecond timestamp followed by a random suffix.
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix
}
