package cli

import (
	"io"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toyz/anchor/internal/analyzer"
	"github.com/toyz/anchor/internal/cache"
	"github.com/toyz/anchor/internal/config"
	"github.com/toyz/anchor/internal/generator"
	"github.com/toyz/anchor/internal/scanner"
	"github.com/toyz/anchor/pkg/anchor/store"
)

// Options are the flags shared by every command. Set values override the
// configuration file.
type Options struct {
	ConfigPath  string
	Verbose     bool
	Quiet       bool
	Debug       bool
	Directories []string
	Profiles    string
	Module      string
	CacheDir    string
	NoCache     bool
	Output      string
	Package     string
	Addr        string
}

// Streams are the writers commands report to
type Streams struct {
	Out io.Writer
	Err io.Writer
}

func (o Options) level() DiagnosticLevel {
	switch {
	case o.Quiet:
		return DiagnosticError
	case o.Debug:
		return DiagnosticDebug
	case o.Verbose:
		return DiagnosticVerbose
	default:
		return DiagnosticInfo
	}
}

// newContainer wires every component a command may need
func newContainer(opts Options, streams Streams) (*dig.Container, error) {
	c := dig.New()
	providers := []interface{}{
		func() Options { return opts },
		func() Streams { return streams },
		provideConfig,
		provideDiagnostics,
		provideLogger,
		provideScanner,
		provideAnalyzer,
		provideCache,
		provideGenerator,
		provideStores,
		NewCompiler,
	}
	for _, provider := range providers {
		if err := c.Provide(provider); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func provideConfig(opts Options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.Find(".")
	}
	if err != nil {
		return nil, err
	}

	if len(opts.Directories) > 0 {
		cfg.Directories = opts.Directories
	}
	if opts.Profiles != "" {
		cfg.Profiles = splitList(opts.Profiles)
	}
	if opts.Module != "" {
		cfg.Module = opts.Module
	}
	if opts.CacheDir != "" {
		cfg.Cache.Dir = opts.CacheDir
	}
	if opts.NoCache {
		cfg.Cache.Enabled = false
	}
	if opts.Output != "" {
		cfg.Output.File = opts.Output
	}
	if opts.Package != "" {
		cfg.Output.Package = opts.Package
	}
	if opts.Addr != "" {
		cfg.Serve.Addr = opts.Addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideDiagnostics(opts Options, streams Streams) *DiagnosticSystem {
	return NewDiagnosticSystem(opts.level(), streams.Out, streams.Err)
}

// provideLogger builds the structured logger library components log to.
// It stays quiet below warnings unless verbose or debug output is requested.
func provideLogger(opts Options, streams Streams) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case opts.Quiet:
		level = zapcore.ErrorLevel
	case opts.Debug:
		level = zapcore.DebugLevel
	case opts.Verbose:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(streams.Err),
		level,
	)
	return zap.New(core)
}

func provideScanner(cfg *config.Config, logger *zap.Logger) (*scanner.Scanner, error) {
	opts := []scanner.Option{scanner.WithLogger(logger)}
	if cfg.Module != "" {
		module, err := scanner.FindModule(".")
		if err != nil {
			wd, wdErr := os.Getwd()
			if wdErr != nil {
				return nil, err
			}
			module = scanner.Module{Dir: wd}
		}
		module.Path = cfg.Module
		opts = append(opts, scanner.WithModule(module))
	}
	return scanner.New(opts...), nil
}

func provideAnalyzer(logger *zap.Logger) *analyzer.Analyzer {
	return analyzer.New(analyzer.WithLogger(logger))
}

func provideCache(cfg *config.Config, logger *zap.Logger) *cache.Cache {
	return cache.New(cfg.Cache.Dir, cache.WithLogger(logger))
}

func provideGenerator(logger *zap.Logger) *generator.Generator {
	return generator.New(generator.WithLogger(logger))
}

// provideStores builds the parameter stores definitions are resolved against
func provideStores(cfg *config.Config) (store.Stores, error) {
	stores := []store.ParameterStore{
		store.NewEnvironment(store.WithDotenv(cfg.Stores.Env.Dotenv...)),
	}
	if cfg.Stores.Config.File != "" {
		configStore, err := store.LoadConfig(cfg.Stores.Config.File)
		if err != nil {
			return store.Stores{}, err
		}
		stores = append(stores, configStore)
	}
	return store.NewStores(stores...)
}

func splitList(list string) []string {
	var result []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
