// Package cache stores compiled container definitions between runs, keyed by
// the source files they were compiled from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/serializer"
)

// DefaultDir is where the cache lives unless configured otherwise
const DefaultDir = ".anchor"

const extension = ".xml"

// Cache maps a digest of source files to a serialized ContainerDefinition
type Cache struct {
	dir        string
	serializer *serializer.Serializer
	logger     *zap.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger used to report misses
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithSerializer replaces the serializer, mostly to pin a version in tests
func WithSerializer(s *serializer.Serializer) Option {
	return func(c *Cache) {
		c.serializer = s
	}
}

// New creates a cache rooted at dir
func New(dir string, opts ...Option) *Cache {
	if dir == "" {
		dir = DefaultDir
	}
	c := &Cache{
		dir:        dir,
		serializer: serializer.New(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the cache directory
func (c *Cache) Dir() string { return c.dir }

// Key digests the tool version and the path and content of every file.
// The order of files does not matter.
func (c *Cache) Key(files []string) (string, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	hash := sha256.New()
	io.WriteString(hash, c.serializer.Version())
	hash.Write([]byte{0})

	for _, file := range sorted {
		io.WriteString(hash, filepath.ToSlash(file))
		hash.Write([]byte{0})

		content, err := os.ReadFile(file)
		if err != nil {
			return "", errors.FileSystemError("read", file, err)
		}
		hash.Write(content)
		hash.Write([]byte{0})
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Path returns the file an entry is stored in
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+extension)
}

// Load returns the definition stored under key. A missing, corrupt or
// version-mismatched entry is a miss.
func (c *Cache) Load(key string) (definition.ContainerDefinition, bool, error) {
	path := c.Path(key)
	data, err := os.ReadFile(path)
	if stderrors.Is(err, os.ErrNotExist) {
		c.logger.Debug("cache miss", zap.String("key", key))
		return definition.ContainerDefinition{}, false, nil
	}
	if err != nil {
		return definition.ContainerDefinition{}, false, errors.FileSystemError("read", path, err)
	}

	def, err := c.serializer.Deserialize(data)
	if err != nil {
		var mismatch *errors.MismatchedSerializerVersionsError
		if stderrors.As(err, &mismatch) {
			c.logger.Info("cache entry written by another version",
				zap.String("key", key),
				zap.String("expected", mismatch.Expected),
				zap.String("actual", mismatch.Actual))
		} else {
			c.logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		}
		return definition.ContainerDefinition{}, false, nil
	}

	c.logger.Debug("cache hit", zap.String("key", key))
	return def, true, nil
}

// Store writes def under key and returns the file it was written to. The
// entry is replaced atomically.
func (c *Cache) Store(key string, def definition.ContainerDefinition) (string, error) {
	data, err := c.serializer.Serialize(def)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", errors.FileSystemError("create", c.dir, err)
	}

	tmp, err := os.CreateTemp(c.dir, key+"-*.tmp")
	if err != nil {
		return "", errors.FileSystemError("create", c.dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.FileSystemError("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.FileSystemError("write", tmp.Name(), err)
	}

	path := c.Path(key)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.FileSystemError("write", path, err)
	}

	c.logger.Debug("cache stored", zap.String("key", key), zap.String("path", path))
	return path, nil
}

// Entries returns the keys currently stored, sorted
func (c *Cache) Entries() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if stderrors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.FileSystemError("read directory", c.dir, err)
	}

	var keys []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), extension) {
			keys = append(keys, strings.TrimSuffix(entry.Name(), extension))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes the cache directory
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return errors.FileSystemError("remove", c.dir, err)
	}
	return nil
}
