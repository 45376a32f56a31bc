// Package cache provides a small generic LRU cache used to memoise values
// that are expensive to build and keyed by their geometry, such as express
// matrices and continuum trap tables.
//
//	c := cache.New[key, *Matrix](64)
//	m, err := c.GetOrCreate(k, func() (*Matrix, error) { return build(k) })
//
// # Thread Safety
//
// Cache is safe for concurrent use. Values are shared between callers, so
// they must be treated as immutable once created.
package cache
