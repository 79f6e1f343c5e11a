package transform

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/decoder"
	"github.com/ilkit/ilexpr/errz"
	"github.com/ilkit/ilexpr/metadata"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes the tree of each method body, keyed by the identity of its
// *metadata.Method. Descriptors that only share a name, such as overloads,
// are cached apart.
// Concurrent requests for the same method share a single transformation.
// Failures are cached too, since the result depends only on the body and
// the symbol table.
type Cache struct {
	decoder     *decoder.Decoder
	transformer *Transformer
	entries     *lru.Cache
	group       singleflight.Group
}

type cacheEntry struct {
	tree *ast.Tree
	err  error
}

// NewCache returns a Cache holding up to size trees.
func NewCache(size int, dec *decoder.Decoder, t *Transformer) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{decoder: dec, transformer: t, entries: entries}, nil
}

// Get returns the tree for body, decoding and transforming it on first use.
func (c *Cache) Get(body *metadata.MethodBody) (*ast.Tree, error) {
	if body == nil || body.Method == nil {
		return nil, errz.Malformed(errz.NoOffset, "missing method descriptor")
	}
	key := body.Method
	if v, ok := c.entries.Get(key); ok {
		e := v.(cacheEntry)
		return e.tree, e.err
	}
	v, _, _ := c.group.Do(fmt.Sprintf("%p", key), func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		e := c.build(body)
		c.entries.Add(key, e)
		return e, nil
	})
	e := v.(cacheEntry)
	return e.tree, e.err
}

func (c *Cache) build(body *metadata.MethodBody) cacheEntry {
	list, err := c.decoder.Decode(body.Code)
	if err != nil {
		return cacheEntry{err: err}
	}
	tree, err := c.transformer.Transform(list, body)
	return cacheEntry{tree: tree, err: err}
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge removes every cached tree.
func (c *Cache) Purge() {
	c.entries.Purge()
}
