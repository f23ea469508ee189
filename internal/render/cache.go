package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPool keeps a sync.Pool of glamour renderers for every distinct
// Options value. Replies in the chat panel are rendered on each viewport
// refresh, so building a renderer per message is too slow.
type rendererPool struct {
	mu    sync.RWMutex
	pools map[Options]*sync.Pool
}

var globalPool = newRendererPool()

func newRendererPool() *rendererPool {
	return &rendererPool{pools: make(map[Options]*sync.Pool)}
}

// poolKey maps equivalent options onto one pool
func poolKey(opts Options) Options {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	if opts.Style == "" {
		opts.Style = StyleNeuroVine
	}
	return opts
}

func (p *rendererPool) pool(opts Options) *sync.Pool {
	key := poolKey(opts)

	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[key]; ok {
		return pool
	}
	pool = &sync.Pool{
		New: func() any {
			renderer, err := createRenderer(key)
			if err != nil {
				return nil
			}
			return renderer
		},
	}
	p.pools[key] = pool
	return pool
}

func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	if renderer, ok := p.pool(opts).Get().(*glamour.TermRenderer); ok {
		return renderer, nil
	}
	// New failed; build directly to surface the error
	return createRenderer(poolKey(opts))
}

func (p *rendererPool) put(opts Options, renderer *glamour.TermRenderer) {
	if renderer != nil {
		p.pool(opts).Put(renderer)
	}
}

func (p *rendererPool) clear() {
	p.mu.Lock()
	p.pools = make(map[Options]*sync.Pool)
	p.mu.Unlock()
}

func (p *rendererPool) size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pools)
}

func createRenderer(opts Options) (*glamour.TermRenderer, error) {
	opts = poolKey(opts)

	rendererOpts := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
	}

	if opts.Style == StyleNeuroVine {
		rendererOpts = append(rendererOpts, glamour.WithStyles(NeuroVineStyle()))
	} else {
		rendererOpts = append(rendererOpts, glamour.WithStylePath(opts.Style))
	}

	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops all pooled renderers.
func ClearCache() {
	globalPool.clear()
}

// CacheSize returns the number of distinct renderer configurations in use.
func CacheSize() int {
	return globalPool.size()
}
