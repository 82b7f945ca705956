/*
Package main
File: main.go
Description: Server entry point. Loads the static machine/recipe catalog,
optionally restores a saved graph, starts the real-time WebSocket hub, and
runs the background heartbeat that drives the simulation one tick at a time.
*/

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/everforgeworks/fabrica/internal/api"
	"github.com/everforgeworks/fabrica/internal/catalog"
	"github.com/everforgeworks/fabrica/internal/sim"
)

var (
	flagConfig string
	flagListen string
	flagTick   time.Duration
	flagLoad   string
)

var rootCmd = &cobra.Command{
	Use:   "fabricad",
	Short: "Factory node-graph simulation server",
	Long: `fabricad runs a tick-based factory simulation: machines with typed
ports are wired into a graph, and every tick the engine balances power,
transports resources along connections, and advances production recipes.

Clients talk to it over a JSON REST API (graph mutation, recipe selection,
persistence) and receive per-tick state over a WebSocket feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "configs/factory.yaml", "catalog YAML (resources, machines, recipes)")
	rootCmd.Flags().StringVarP(&flagListen, "listen", "l", ":8081", "HTTP listen address")
	rootCmd.Flags().DurationVarP(&flagTick, "tick", "t", time.Second, "simulation tick interval")
	rootCmd.Flags().StringVar(&flagLoad, "load", "", "saved graph JSON to restore at boot")
}

func run() error {
	// 1. Load the static catalog from YAML.
	cat, err := catalog.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log.Printf("CATALOG: %d resources, %d machines loaded", len(cat.Resources()), len(cat.Machines()))

	factory := sim.NewFactory(cat)

	// 2. Optionally restore a saved graph.
	if flagLoad != "" {
		data, err := os.ReadFile(flagLoad)
		if err != nil {
			return fmt.Errorf("load graph: %w", err)
		}
		if err := factory.LoadJSON(data); err != nil {
			return fmt.Errorf("load graph: %w", err)
		}
		log.Printf("GRAPH: restored from %s", flagLoad)
	}

	// 3. Initialize and start the real-time WebSocket hub, and wire it to
	// the engine's post-tick notification.
	hub := api.NewHub()
	go hub.Run()
	factory.OnTick(func(tick uint64) {
		hub.BroadcastTick(tick, factory.TickSnapshot())
	})

	// 4. THE FACTORY HEARTBEAT
	// One goroutine owns the tick cadence; ticks never overlap because each
	// Tick call runs to completion before the next ticker fire is read.
	go func() {
		ticker := time.NewTicker(flagTick)
		for range ticker.C {
			factory.Tick()
		}
	}()

	// 5. Hot-reload: SIGHUP re-reads the catalog without a restart. The live
	// graph keeps running; only the static definitions refresh.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for {
			<-sigChan
			log.Println("SIGNAL: Reloading catalog...")
			fresh, err := catalog.Load(flagConfig)
			if err != nil {
				log.Printf("SIGNAL: reload failed, keeping current catalog: %v", err)
				continue
			}
			factory.ReplaceCatalog(fresh)
		}
	}()

	// 6. Router and handlers.
	mux := http.NewServeMux()
	server := &api.Server{Factory: factory, Hub: hub}
	server.Routes(mux)

	// 7. Serve.
	log.Printf("FABRICA: Simulation server live on %s (tick %s)", flagListen, flagTick)
	return http.ListenAndServe(flagListen, api.CORS(mux))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
