package template

import (
	"sync"

	"github.com/abdul-hamid-achik/curlspec/packages/builtin"
)

// DefaultCacheSize bounds the number of compiled templates a Renderer keeps.
const DefaultCacheSize = 256

// Renderer is a reusable rendering environment. Build it once and share it;
// compiled templates are cached by source text.
type Renderer struct {
	funcs     *builtin.Registry
	cacheSize int

	mu    sync.RWMutex
	cache map[string]*Template
}

type Option func(*Renderer)

// WithFunctions replaces the builtin function registry.
func WithFunctions(reg *builtin.Registry) Option {
	return func(r *Renderer) {
		r.funcs = reg
	}
}

// WithCacheSize sets how many compiled templates are kept. Zero or less
// disables caching.
func WithCacheSize(n int) Option {
	return func(r *Renderer) {
		r.cacheSize = n
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		funcs:     builtin.NewRegistry(),
		cacheSize: DefaultCacheSize,
		cache:     make(map[string]*Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render substitutes placeholders in text. A nil vars map passes text
// through unchanged.
func (r *Renderer) Render(text string, vars map[string]any) (string, error) {
	if vars == nil {
		return text, nil
	}
	t, err := r.compile(text)
	if err != nil {
		return "", err
	}
	return t.Execute(vars, r.funcs)
}

func (r *Renderer) compile(src string) (*Template, error) {
	if r.cacheSize <= 0 {
		return Compile(src)
	}

	r.mu.RLock()
	t, ok := r.cache[src]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := Compile(src)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cache) >= r.cacheSize {
		// Full: start over rather than track recency.
		r.cache = make(map[string]*Template)
	}
	r.cache[src] = t
	return t, nil
}

// Len reports the number of cached templates.
func (r *Renderer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
