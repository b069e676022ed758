// Package assets resolves asset files against a search path, caches their
// bytes and defines the Loader contract the scene builder loads through.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// ErrNotFound is returned when no search directory holds a file.
var ErrNotFound = errors.New("asset not found")

// Loader turns asset file names into engine resources. A failed load is
// reported to the caller, which decides whether to fall back to a placeholder.
type Loader interface {
	Mesh(file string) (*scene.Mesh, error)
	Texture(file string) (*scene.Texture, error)
	Program(vertex, fragment string) (uint32, error)
	Sound(file string) ([]byte, error)
}

// SearchPath is an ordered list of directories. Directories are searched in
// reverse order (last added = highest priority).
type SearchPath struct {
	mu   sync.RWMutex
	dirs []string
}

// NewSearchPath creates a search path over dirs.
func NewSearchPath(dirs ...string) *SearchPath {
	p := &SearchPath{}
	for _, d := range dirs {
		p.Add(d)
	}
	return p
}

// Add appends dir. Adding a directory already present moves it to the top.
func (p *SearchPath) Add(dir string) {
	dir = filepath.Clean(dir)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs = slices.DeleteFunc(p.dirs, func(d string) bool { return d == dir })
	p.dirs = append(p.dirs, dir)
}

// Remove drops dir and reports whether it was present.
func (p *SearchPath) Remove(dir string) bool {
	dir = filepath.Clean(dir)
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.dirs)
	p.dirs = slices.DeleteFunc(p.dirs, func(d string) bool { return d == dir })
	return len(p.dirs) != n
}

// Dirs returns the directories in search order.
func (p *SearchPath) Dirs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := slices.Clone(p.dirs)
	slices.Reverse(out)
	return out
}

// Resolve returns the path of the first directory holding name. Absolute
// names are checked as they are.
func (p *SearchPath) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	for _, dir := range p.Dirs() {
		path := filepath.Join(dir, name)
		if isFile(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// Store reads asset files through a search path and caches their bytes.
type Store struct {
	path  *SearchPath
	cache *Cache
}

// NewStore creates a store over path. A nil path searches the working
// directory only.
func NewStore(path *SearchPath) *Store {
	if path == nil {
		path = NewSearchPath(".")
	}
	return &Store{path: path, cache: NewCache()}
}

// Path returns the store's search path.
func (s *Store) Path() *SearchPath {
	return s.path
}

// Load returns the contents of name.
func (s *Store) Load(name string) ([]byte, error) {
	if data, ok := s.cache.Get(name); ok {
		return data, nil
	}

	path, err := s.path.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s.cache.Set(name, data)
	return data, nil
}

// Close drops every cached file.
func (s *Store) Close() {
	s.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
