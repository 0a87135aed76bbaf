package registry

import (
	"sync"

	"github.com/lumenbar/lumen/internal/template"
)

// TemplateCache memoizes compiled templates by source text. Compiling (lex +
// parse) is the expensive step; the immutable result can be shared by every
// widget with the same source and re-rendered against fresh bindings.
type TemplateCache struct {
	compiled map[string]*template.Template
	mutex    sync.RWMutex
}

// NewTemplateCache creates an empty template cache
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		compiled: make(map[string]*template.Template),
	}
}

// Compile returns the compiled form of source, compiling on first use.
// Compile errors are not cached; a corrected source recompiles cleanly.
func (c *TemplateCache) Compile(source string) (*template.Template, error) {
	c.mutex.RLock()
	tmpl, ok := c.compiled[source]
	c.mutex.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.Compile(source)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.compiled[source] = tmpl
	c.mutex.Unlock()

	return tmpl, nil
}

// Invalidate drops the cached compilation of source, if present.
func (c *TemplateCache) Invalidate(source string) {
	c.mutex.Lock()
	delete(c.compiled, source)
	c.mutex.Unlock()
}

// Len returns the number of cached compilations
func (c *TemplateCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.compiled)
}
