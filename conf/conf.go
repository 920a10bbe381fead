package conf

import "fmt"

// Config represents the core nodecfg configuration
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Log     LogConfig      `mapstructure:"log"`
	Graph   GraphConfig    `mapstructure:"graph"`
	Schemas []SchemaConfig `mapstructure:"schemas"`
}

// ServerConfig configures the editor-facing web server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"`            // Server port: nil = default 8750, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS / websocket origin whitelist
	LogTheme       string   `mapstructure:"log_theme"`       // Color theme: gruvbox, everforest
}

// Server port constants
const (
	DefaultServerPort = 8750 // Development port (above privileged range)
)

// LogConfig configures log output
type LogConfig struct {
	JSON      bool `mapstructure:"json"`      // Structured JSON output instead of console
	Verbosity int  `mapstructure:"verbosity"` // 0=user .. 4=all
}

// GraphConfig bounds the live graph
type GraphConfig struct {
	MaxNodes int `mapstructure:"max_nodes"` // Node count ceiling per graph (default: 2048)
}

// SchemaConfig names one schema source registered at startup
type SchemaConfig struct {
	Name      string `mapstructure:"name"`       // Registry key, e.g. "pipeline"
	Path      string `mapstructure:"path"`       // Path to the class-definition source file
	RefType   string `mapstructure:"ref_type"`   // Reference/index type name, e.g. "Index"
	RootClass string `mapstructure:"root_class"` // Designated root class; "" = none
}

// GetServerPort returns the configured port or the default
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed origins with the local defaults
// applied when unconfigured
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// GetServerLogTheme returns the log theme (default: everforest)
func (c *Config) GetServerLogTheme() string {
	if c.Server.LogTheme == "" {
		return "everforest"
	}
	return c.Server.LogTheme
}

// GetMaxNodes returns the graph node ceiling (default: 2048)
func (c *Config) GetMaxNodes() int {
	if c.Graph.MaxNodes <= 0 {
		return 2048
	}
	return c.Graph.MaxNodes
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Port: %d, LogTheme: %s}, Schemas: %d}",
		c.GetServerPort(), c.GetServerLogTheme(), len(c.Schemas))
}
