package service

import (
	"context"
	"sync"
	"time"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/domain"
)

type ModelLister interface {
	ListModels(ctx context.Context) ([]api.ModelRecord, error)
}

// ModelCatalog starts with the built-in defaults and is replaced at most once
// by the backend catalog. A failed load keeps the defaults and is not retried.
type ModelCatalog struct {
	mu        sync.RWMutex
	models    []domain.ModelDescriptor
	attempted bool
	loadedAt  time.Time
}

func NewModelCatalog() *ModelCatalog {
	return &ModelCatalog{models: domain.DefaultModels()}
}

func (c *ModelCatalog) Load(ctx context.Context, lister ModelLister) error {
	c.mu.Lock()
	if c.attempted {
		c.mu.Unlock()
		return nil
	}
	c.attempted = true
	c.mu.Unlock()

	records, err := lister.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	models := make([]domain.ModelDescriptor, 0, len(records))
	for _, r := range records {
		caps := make([]domain.Capability, len(r.Capabilities))
		for i, cp := range r.Capabilities {
			caps[i] = domain.Capability(cp)
		}
		name := r.Name
		if name == "" {
			name = r.ID
		}
		models = append(models, domain.ModelDescriptor{
			ID:                 r.ID,
			DisplayName:        name,
			ProviderLabel:      r.Provider,
			PricePerOutputUnit: r.PriceOutput,
			ContextWindowSize:  r.ContextLength,
			Capabilities:       caps,
		})
	}

	c.mu.Lock()
	c.models = models
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *ModelCatalog) List() []domain.ModelDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.ModelDescriptor(nil), c.models...)
}

func (c *ModelCatalog) Get(id string) (domain.ModelDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ModelDescriptor{}, false
}

// Name is the display name of id, or id itself when unknown.
func (c *ModelCatalog) Name(id string) string {
	if m, ok := c.Get(id); ok {
		return m.DisplayName
	}
	return id
}

// FromBackend reports whether the catalog came from the backend rather than
// the defaults.
func (c *ModelCatalog) FromBackend() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loadedAt.IsZero()
}
