package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"doccanvas/internal/autosave"
	"doccanvas/internal/collab"
	"doccanvas/internal/config"
	"doccanvas/internal/editor"
	lan "doccanvas/internal/net"
	"doccanvas/internal/storage"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "canvasd",
		Short: "Collaborative document canvas server",
		Long:  "canvasd hosts real-time collaboration sessions for document templates and stores them locally.",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	cmd.AddCommand(newServeCommand(&configPath))
	cmd.AddCommand(newDiscoverCommand())
	return cmd
}

func newServeCommand(configPath *string) *cobra.Command {
	var listen, dbPath string
	var noMDNS bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the collaboration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			if noMDNS {
				cfg.MDNS = false
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")
	cmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "disable LAN advertisement")
	return cmd
}

func newDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Find canvasd servers on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			found := false
			err := lan.Browse(func(addr string) {
				found = true
				fmt.Println(addr)
			})
			if err != nil {
				return err
			}
			if !found {
				fmt.Println("no servers found")
			}
			return nil
		},
	}
}

func serve(cfg config.Config) error {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := editor.NewManager(store, editor.ManagerOptions{
		BackupPath:    cfg.BackupPath,
		SnapTolerance: cfg.SnapTolerance,
		Autosave: autosave.Options{
			Debounce:     cfg.AutosaveDebounce.Std(),
			SaveInterval: cfg.AutosaveInterval.Std(),
			HistoryLimit: cfg.HistoryLimit,
			BackupMaxAge: cfg.BackupMaxAge.Std(),
		},
	})
	defer manager.CloseAll()

	registry := collab.NewRegistry(cfg.ChangeLogLimit)
	hub := collab.NewHub(registry)
	hub.Joined = func(docID string) {
		if err := manager.Open(context.Background(), docID); err != nil {
			log.Printf("[serve] open document %s: %v", docID, err)
		}
	}
	hub.Left = func(docID string, remaining int) {
		if remaining == 0 {
			manager.Close(docID)
		}
	}
	hub.Changed = func(docID, userID, action, fieldID string, payload json.RawMessage) {
		if err := manager.Apply(docID, action, fieldID, payload); err != nil {
			log.Printf("[collab] apply %s change from %s on %s: %v", action, userID, docID, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	registerTemplateRoutes(mux, store)

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}

	if cfg.MDNS {
		if _, portStr, err := net.SplitHostPort(cfg.Listen); err == nil {
			if port, err := strconv.Atoi(portStr); err == nil {
				mdnsServer, err := lan.Advertise(port)
				if err != nil {
					log.Printf("[serve] mDNS advertisement failed: %v", err)
				} else {
					defer mdnsServer.Shutdown()
				}
			}
		}
	}

	if ip, err := lan.OutgoingIP(); err == nil {
		log.Printf("[serve] listening on %s (ws://%s%s/ws)", cfg.Listen, ip, cfg.Listen)
	} else {
		log.Printf("[serve] listening on %s", cfg.Listen)
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-sig:
	}

	log.Println("[serve] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
