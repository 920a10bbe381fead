package conf

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.log_theme", "everforest")

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	// Graph defaults
	v.SetDefault("graph.max_nodes", 2048)
}
