package commands

import (
	"os"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/conf"
	"github.com/nodecfg/nodecfg/errors"
	"github.com/nodecfg/nodecfg/graph"
	"github.com/nodecfg/nodecfg/logger"
	"github.com/nodecfg/nodecfg/schema"
)

// loadConfig loads and validates the nodecfg configuration
func loadConfig() (*conf.Config, error) {
	cfg, err := conf.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// buildRegistry registers every configured schema and derives templates.
// Schema files that fail to load abort the command; partial registries
// would silently mis-type graphs.
func buildRegistry(cfg *conf.Config, log *zap.SugaredLogger) (*schema.Registry, *graph.Catalog, error) {
	registry := schema.NewRegistry(log)
	catalog := graph.NewCatalog(log)

	for _, sc := range cfg.Schemas {
		source, err := os.ReadFile(sc.Path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read schema %q", sc.Name)
		}
		s, err := registry.Register(sc.Name, string(source), sc.RefType, sc.RootClass)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to register schema %q", sc.Name)
		}
		catalog.AddSchema(s)
		log.Infow("Schema registered",
			"schema", s.Name,
			"classes", len(s.Order),
		)
	}

	return registry, catalog, nil
}

// resolveSchema finds a schema by name, registering an ad hoc one from
// --schema-file when the flag is set.
func resolveSchema(registry *schema.Registry, catalog *graph.Catalog, name, file, refType, rootClass string) (*schema.Schema, error) {
	if file != "" {
		source, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read schema file %s", file)
		}
		s, err := registry.Register(name, string(source), refType, rootClass)
		if err != nil {
			return nil, err
		}
		catalog.AddSchema(s)
		return s, nil
	}

	s, ok := registry.Get(name)
	if !ok {
		return nil, errors.Newf("schema %q is not configured (add it to nodecfg.toml or pass --schema-file)", name)
	}
	return s, nil
}

// commandLogger returns the global logger named for a command
func commandLogger(name string) *zap.SugaredLogger {
	return logger.Logger.Named(name)
}
