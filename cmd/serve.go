package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/basket/pkg/api"
	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/realtime"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the search API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.Bool("debug"), c.String("host"), c.Int("port"))
		},
	}
}

// serve runs the API server until SIGINT or SIGTERM. Source definitions are
// reloaded on SIGHUP and whenever the config file changes.
func serve(ctx context.Context, configPath string, debug bool, host string, port int) error {
	logger := log.ForService("serve")

	cfg, err := loadConfig(configPath, debug)
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	hub := realtime.NewHub(16)
	rt, err := newRuntime(ctx, cfg, withHub(hub))
	if err != nil {
		return err
	}
	defer rt.close()

	apiServer := api.NewServer(rt.service, rt.registry)
	apiServer.SetHub(hub)
	apiServer.SetRecentLimit(cfg.Cache.RecentLimit)

	server := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s", server.Addr)
		logger.Infof("%d sources: %v", len(rt.registry.ListSources()), rt.registry.ListSources())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	reload := func(reason string) {
		logger.Infof("%s, reloading sources", reason)
		newCfg, err := reloadSources(configPath, rt.registry)
		if err != nil {
			logger.Errorf("reload failed, keeping current sources: %v", err)
			return
		}
		if newCfg.Store != cfg.Store {
			logger.Warnf("store changes take effect after a restart")
		}
		logger.Infof("reloaded %d sources", len(rt.registry.ListSources()))
	}

	// Watch the config file for changes
	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			events, watchErrs = watcher.Events, watcher.Errors
			logger.Debugf("watching %s for changes", configPath)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return shutdown(server)
		case err, ok := <-errCh:
			if ok && err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload("received SIGHUP")
				continue
			}
			logger.Infof("shutting down")
			return shutdown(server)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			// Editors often replace the file atomically, dropping the watch
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("config file removed, keeping current sources")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-watch config file: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			reload(fmt.Sprintf("config file changed (%s)", event.Op))
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warnf("config file watcher error: %v", err)
		}
	}
}

// reloadSources rebuilds the source instances from the config file and swaps
// them into registry. Searches already running keep the sources they
// started with.
func reloadSources(configPath string, registry *core.Registry) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	fresh := core.GetGlobalRegistry()
	if err := createSourcesFromConfig(fresh, cfg); err != nil {
		return nil, err
	}
	registry.ReplaceSources(fresh)
	return cfg, nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
