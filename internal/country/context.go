package country

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agentstation/launchsync/pkg/catalog"
)

// Loader supplies the reference countries a Context is populated from.
type Loader interface {
	FindAll(ctx context.Context) ([]catalog.Country, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]catalog.Country, error)

// FindAll implements Loader.
func (f LoaderFunc) FindAll(ctx context.Context) ([]catalog.Country, error) { return f(ctx) }

// Context is the read-through country cache for one sync run. It is
// populated at most once between resets and read without locking after that.
type Context struct {
	snap atomic.Pointer[snapshot]
	mu   sync.Mutex
}

type snapshot struct {
	byCode map[string]catalog.Country
	byName map[string]catalog.Country
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{}
}

// Populate loads the cache from loader unless it is already populated.
// Concurrent callers wait for the single writer; an empty or failed load
// leaves the context unpopulated so the next run retries.
func (c *Context) Populate(ctx context.Context, loader Loader) error {
	if c.Populated() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Populated() {
		return nil
	}

	countries, err := loader.FindAll(ctx)
	if err != nil {
		return err
	}
	snap := &snapshot{
		byCode: make(map[string]catalog.Country, len(countries)),
		byName: make(map[string]catalog.Country, len(countries)),
	}
	for _, ct := range countries {
		code := normalize(ct.Code)
		if code == "" {
			continue
		}
		ct.Code = code
		snap.byCode[code] = ct
		if name := strings.ToLower(strings.TrimSpace(ct.Name)); name != "" {
			snap.byName[name] = ct
		}
	}
	if len(snap.byCode) > 0 {
		c.snap.Store(snap)
	}
	return nil
}

// Populated reports whether the cache holds a loaded country set.
func (c *Context) Populated() bool { return c.snap.Load() != nil }

// Lookup returns the country cached under code.
func (c *Context) Lookup(code string) (catalog.Country, bool) {
	s := c.snap.Load()
	if s == nil {
		return catalog.Country{}, false
	}
	ct, ok := s.byCode[normalize(code)]
	return ct, ok
}

// LookupName returns the country whose display name equals name, ignoring case.
func (c *Context) LookupName(name string) (catalog.Country, bool) {
	s := c.snap.Load()
	if s == nil {
		return catalog.Country{}, false
	}
	ct, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return ct, ok
}

// Len returns the number of cached countries.
func (c *Context) Len() int {
	if s := c.snap.Load(); s != nil {
		return len(s.byCode)
	}
	return 0
}

// Reset drops the cache so the next Populate reloads it. Readers holding
// the previous set keep a consistent view of it.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Store(nil)
}

// normalize upper-cases a code and keeps the first entry of a comma list
// such as "USA,RUS".
func normalize(code string) string {
	if i := strings.IndexByte(code, ','); i >= 0 {
		code = code[:i]
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
