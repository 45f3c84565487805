package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/polaris-gslb/polaris/internal/api"
	"github.com/polaris-gslb/polaris/internal/config"
	"github.com/polaris-gslb/polaris/internal/monitor"
	"github.com/polaris-gslb/polaris/internal/pool"
	"github.com/polaris-gslb/polaris/internal/topology"
	"github.com/polaris-gslb/polaris/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		configFile   = flag.String("config", "/etc/polaris/lb.yaml", "path to the LB configuration file")
		topologyFile = flag.String("topology", "", "path to the topology map file (required for twrr pools)")
		listenAddr   = flag.String("listen", "127.0.0.1:8686", "state API listen address")
		checkOnly    = flag.Bool("check", false, "load the configuration, print distribution snapshots and exit")
	)
	flag.Parse()

	cfg, err := config.LoadFromFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	var topo topology.Resolver
	if *topologyFile != "" {
		resolver, err := topology.LoadFromFile(*topologyFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load topology map")
		}
		topo = resolver
	}

	loader := config.NewLoader(monitor.DefaultRegistry(), topo, log)
	pools, err := loader.Pools(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build pools from configuration")
	}

	log.ConfigLogger().Infof("loaded %d pool(s) from %s", len(pools), *configFile)

	if *checkOnly {
		if err := dumpSnapshots(pools); err != nil {
			log.WithError(err).Fatal("failed to dump distribution snapshots")
		}
		return
	}

	serveStateAPI(*listenAddr, pools, log)
}

// dumpSnapshots prints one distribution snapshot per pool as JSON
func dumpSnapshots(pools map[string]*pool.Pool) error {
	names := make([]string, 0, len(pools))
	for name := range pools {
		names = append(names, name)
	}
	sort.Strings(names)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, name := range names {
		out := struct {
			Pool     string             `json:"pool"`
			Snapshot *pool.DistSnapshot `json:"snapshot"`
		}{name, pools[name].DistSnapshot(nil)}

		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// serveStateAPI runs the state endpoints until SIGINT/SIGTERM
func serveStateAPI(addr string, pools map[string]*pool.Pool, log *logger.Logger) {
	handler := api.NewStateHandler(pools, log)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("state API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("state API server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infof("received signal %v, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
