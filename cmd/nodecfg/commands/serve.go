package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodecfg/nodecfg/conf"
	"github.com/nodecfg/nodecfg/graph"
	"github.com/nodecfg/nodecfg/logger"
	"github.com/nodecfg/nodecfg/server"
	"github.com/nodecfg/nodecfg/version"
)

// ServeCmd starts the graph editor server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the graph editor server",
	Long: `Launch the websocket and JSON API server hosting the live graph.
Editor clients connect over /ws; the /api endpoints exchange whole graphs
and config documents. Schema files listed in the configuration are watched
for changes.`,
	RunE: runServe,
}

var (
	servePort    int
	serveNoWatch bool
)

func init() {
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config)")
	ServeCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable config file watching")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Config-level log settings apply unless the CLI flags already raised them
	if cfg.Log.JSON || cfg.Log.Verbosity > 0 {
		if err := logger.InitializeWithVerbosity(cfg.Log.JSON, cfg.Log.Verbosity); err != nil {
			return err
		}
	}
	log := commandLogger("serve")

	registry, catalog, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}
	g := graph.NewGraph(catalog, log)
	srv := server.NewServer(cfg, registry, catalog, g, log)

	port := cfg.GetServerPort()
	if servePort != 0 {
		port = servePort
	}
	addr := fmt.Sprintf(":%d", port)

	// Reload schemas when the project config or any schema file changes
	if !serveNoWatch {
		if path := conf.ProjectConfigPath(); path != "" {
			watcher, err := conf.NewConfigWatcher(path)
			if err != nil {
				log.Warnw("Config watching disabled", "error", err)
			} else {
				for _, sc := range cfg.Schemas {
					if err := watcher.WatchPath(sc.Path); err != nil {
						log.Warnw("Schema file not watched",
							"path", sc.Path,
							"error", err)
					}
				}
				watcher.OnReload(func(next *conf.Config) error {
					// Re-register into the live registry and catalog;
					// registration is atomic so a bad schema leaves the old
					// one in place
					for _, sc := range next.Schemas {
						source, err := os.ReadFile(sc.Path)
						if err != nil {
							return err
						}
						s, err := registry.Register(sc.Name, string(source), sc.RefType, sc.RootClass)
						if err != nil {
							return err
						}
						catalog.AddSchema(s)
						if err := watcher.WatchPath(sc.Path); err != nil {
							log.Warnw("Schema file not watched",
								"path", sc.Path,
								"error", err)
						}
					}
					srv.BroadcastTemplates()
					return nil
				})
				watcher.Start()
				defer watcher.Stop()
			}
		}
	}

	pterm.DefaultHeader.Printf("nodecfg %s", version.Get().Short())
	pterm.Info.Printf("Listening on %s\n", addr)
	pterm.Info.Printf("Schemas: %d, editor endpoint: ws://localhost%s/ws\n", len(cfg.Schemas), addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		pterm.Warning.Printf("Received %s, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	pterm.Success.Println("Server stopped")
	return nil
}
