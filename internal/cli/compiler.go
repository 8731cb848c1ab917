package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toyz/anchor/internal/analyzer"
	"github.com/toyz/anchor/internal/cache"
	"github.com/toyz/anchor/internal/config"
	"github.com/toyz/anchor/internal/generator"
	"github.com/toyz/anchor/internal/scanner"
	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
)

// Compilation is the outcome of one compile run
type Compilation struct {
	RunID      string
	Definition definition.ContainerDefinition
	// Analysis is nil when the definition was read from the cache
	Analysis  *analyzer.Analysis
	Module    scanner.Module
	Files     []string
	CacheKey  string
	CacheHit  bool
	CachePath string
	Duration  time.Duration
}

// Compiler runs scan, analysis and caching for the configured directories
type Compiler struct {
	cfg       *config.Config
	scanner   *scanner.Scanner
	analyzer  *analyzer.Analyzer
	cache     *cache.Cache
	generator *generator.Generator
	logger    *zap.Logger
}

// NewCompiler creates a compiler
func NewCompiler(cfg *config.Config, s *scanner.Scanner, a *analyzer.Analyzer, c *cache.Cache, g *generator.Generator, logger *zap.Logger) *Compiler {
	return &Compiler{cfg: cfg, scanner: s, analyzer: a, cache: c, generator: g, logger: logger}
}

// Compile produces the definition of the configured directories. The cache
// is consulted unless fresh is set; a fresh compilation always carries the
// analysis.
func (c *Compiler) Compile(ctx context.Context, fresh bool) (*Compilation, error) {
	start := time.Now()
	comp := &Compilation{RunID: uuid.NewString()}
	logger := c.logger.With(zap.String("run", comp.RunID))

	files, err := c.sourceFiles()
	if err != nil {
		return nil, err
	}
	comp.Files = files

	if c.cfg.Cache.Enabled {
		if comp.CacheKey, err = c.cache.Key(files); err != nil {
			return nil, err
		}
		if !fresh {
			def, hit, err := c.cache.Load(comp.CacheKey)
			if err != nil {
				return nil, err
			}
			if hit {
				comp.Definition = def
				comp.CacheHit = true
				comp.CachePath = c.cache.Path(comp.CacheKey)
				comp.Duration = time.Since(start)
				logger.Debug("definition loaded from cache", zap.String("key", comp.CacheKey))
				return comp, nil
			}
		}
	}

	result, err := c.scanner.Scan(ctx, c.cfg.Directories)
	if err != nil {
		return nil, err
	}
	analysis, err := c.analyzer.Analyze(result)
	if err != nil {
		return nil, err
	}
	comp.Analysis = analysis
	comp.Module = result.Module
	comp.Definition = analysis.Definition

	if c.cfg.Cache.Enabled {
		if comp.CachePath, err = c.cache.Store(comp.CacheKey, comp.Definition); err != nil {
			return nil, err
		}
	}
	comp.Duration = time.Since(start)
	logger.Debug("definition compiled",
		zap.Int("files", len(files)),
		zap.Int("services", len(comp.Definition.ServiceDefinitions())),
		zap.Duration("duration", comp.Duration))
	return comp, nil
}

// Emit writes the Go registration file for a fresh compilation and returns
// its path
func (c *Compiler) Emit(comp *Compilation) (string, error) {
	if comp.Analysis == nil {
		return "", errors.New(errors.UnknownErrorCode, "generated code needs a fresh compilation")
	}
	file, err := filepath.Abs(c.cfg.Output.File)
	if err != nil {
		return "", err
	}
	importPath, err := comp.Module.ImportPath(filepath.Dir(file))
	if err != nil {
		return "", err
	}

	out := generator.Output{
		File:       file,
		Package:    c.cfg.Output.Package,
		ImportPath: importPath,
		Dotenv:     c.cfg.Stores.Env.Dotenv,
		ConfigFile: c.cfg.Stores.Config.File,
	}
	if err := c.generator.Write(comp.Analysis, out); err != nil {
		return "", err
	}
	return c.cfg.Output.File, nil
}

// Load returns the current definition; it satisfies server.LoadFunc
func (c *Compiler) Load(ctx context.Context) (definition.ContainerDefinition, error) {
	comp, err := c.Compile(ctx, false)
	if err != nil {
		return definition.ContainerDefinition{}, err
	}
	return comp.Definition, nil
}

func (c *Compiler) sourceFiles() ([]string, error) {
	dirs, err := scanner.ResolvePatterns(c.cfg.Directories)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, dir := range dirs {
		found, err := scanner.SourceFiles(dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}
