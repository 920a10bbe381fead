package conf

import "github.com/nodecfg/nodecfg/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.New("server.port cannot be 0 (omit for default port 8750)")
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	// Node ceiling: 0 = use default, negative = invalid
	if c.Graph.MaxNodes < 0 {
		return errors.Newf("graph.max_nodes must be >= 0, got %d", c.Graph.MaxNodes)
	}

	seen := make(map[string]bool, len(c.Schemas))
	for i, s := range c.Schemas {
		if s.Name == "" {
			return errors.Newf("schemas[%d].name cannot be empty", i)
		}
		if s.Path == "" {
			return errors.Newf("schemas[%d].path cannot be empty (schema %q)", i, s.Name)
		}
		if s.RefType == "" {
			return errors.Newf("schemas[%d].ref_type cannot be empty (schema %q)", i, s.Name)
		}
		if seen[s.Name] {
			return errors.Newf("duplicate schema name %q", s.Name)
		}
		seen[s.Name] = true
	}

	return nil
}
