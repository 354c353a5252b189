package extract

import (
	"sort"
	"sync"
)

const (
	// DefaultKey selects the all-blocks strategy.
	DefaultKey = "default"
	// LastKey selects the legacy single-block strategy.
	LastKey = "last"
)

// Registry maps format keys to strategies. Strategies are not checked; they
// must honor the Strategy contract themselves.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	fallback   Strategy
}

// NewRegistry returns a registry holding the default and legacy strategies of p.
func NewRegistry(p *Parser) *Registry {
	if p == nil {
		p = defaultParser
	}
	r := &Registry{
		strategies: make(map[string]Strategy),
		fallback:   p.ParseAllSummaryBlocks,
	}
	r.strategies[DefaultKey] = r.fallback
	r.Register(LastKey, func(content string) ([]Record, error) {
		rec, err := p.ParseFileContent(content)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	})
	return r
}

// Register binds key to fn, replacing any previous binding. Empty keys and
// nil strategies are ignored.
func (r *Registry) Register(key string, fn Strategy) {
	if key == "" || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[key] = fn
}

// Get returns the strategy for key, or the default strategy when key is
// empty or unknown.
func (r *Registry) Get(key string) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.strategies[key]; ok {
		return fn
	}
	return r.fallback
}

// Has reports whether key has an explicit binding.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[key]
	return ok
}

// Clear drops every binding except the default.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = map[string]Strategy{DefaultKey: r.fallback}
}

// Keys lists the bound keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
