package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"agentgrid.ai/internal/auth"
	"agentgrid.ai/internal/persistence/indexdb"
	persistlog "agentgrid.ai/internal/persistence/log"
	"agentgrid.ai/internal/sim/social"
	"agentgrid.ai/internal/sim/tuning"
	"agentgrid.ai/internal/sim/world"
	"agentgrid.ai/internal/transport/httpapi"
	"agentgrid.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		seed       = flag.Int64("seed", 0, "spawn rng seed (0 = time-based)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite audit index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	// Optional: read-model audit index (does not affect world behavior).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
		if err := idx.RecordTuning(tune); err != nil {
			logger.Printf("index backend: record tuning: %v", err)
		}
	} else {
		logger.Printf("audit index disabled (-disable_db)")
	}

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()

	tokens := auth.NewRegistry()
	notifications := social.NewNotifications()
	memories := social.NewMemories(tune.MemoryCap)
	exchange := social.NewExchange(notifications)

	w := world.New(world.WorldConfig{
		Width:             tune.GridWidth,
		Height:            tune.GridHeight,
		MaxHealth:         tune.MaxHealth,
		HistoryCap:        tune.HistoryCap,
		SpawnAttempts:     tune.SpawnAttempts,
		HeartbeatInterval: time.Duration(tune.HeartbeatMs) * time.Millisecond,
		GraceWindow:       time.Duration(tune.GraceWindowMs) * time.Millisecond,
		Seed:              *seed,
	}, world.Deps{
		Notifications: notifications,
		Memories:      memories,
		Exchange:      exchange,
		Credentials:   tokens,
		Audit:         multiAuditLogger{a: auditLog, b: idx},
		Logger:        logger,
	})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"status":  "ok",
			"players": w.Metrics().Agents,
		})
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP agentgrid_world_agents Current number of agents in the world.\n")
		fmt.Fprintf(rw, "# TYPE agentgrid_world_agents gauge\n")
		fmt.Fprintf(rw, "agentgrid_world_agents %d\n", m.Agents)

		fmt.Fprintf(rw, "# HELP agentgrid_world_sessions Current number of open sessions.\n")
		fmt.Fprintf(rw, "# TYPE agentgrid_world_sessions gauge\n")
		fmt.Fprintf(rw, "agentgrid_world_sessions %d\n", m.Sessions)

		fmt.Fprintf(rw, "# HELP agentgrid_world_heartbeats_total Heartbeat ticks since start.\n")
		fmt.Fprintf(rw, "# TYPE agentgrid_world_heartbeats_total counter\n")
		fmt.Fprintf(rw, "agentgrid_world_heartbeats_total %d\n", m.Heartbeats)

		fmt.Fprintf(rw, "# HELP agentgrid_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE agentgrid_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "agentgrid_world_queue_depth{queue=%q} %d\n", "commands", m.CommandQueue)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())
	mux.Handle("/api/", http.StripPrefix("/api", httpapi.NewServer(w, tokens, exchange, memories, logger).Router()))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// multiAuditLogger fans audit entries out to the JSONL journal and, when
// enabled, the sqlite index.
type multiAuditLogger struct {
	a world.AuditLogger
	b *indexdb.SQLiteIndex
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
