// Command casebox is the main entrypoint for the case-opening service.
// It:
//   - Loads configuration and initializes structured logging.
//   - Opens persistence (flat JSON files, or Postgres when DB_DSN is set)
//     and warms the cooldown gate and inventory ledger from it.
//   - Starts the anonymous chat listener that queues eligible "!open" users.
//   - Exposes the HTTP API with /api/open, /api/pending, /healthz, /status,
//     and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/onnwee/casebox/chat"
	"github.com/onnwee/casebox/config"
	"github.com/onnwee/casebox/cooldown"
	"github.com/onnwee/casebox/db"
	"github.com/onnwee/casebox/drop"
	"github.com/onnwee/casebox/inventory"
	"github.com/onnwee/casebox/jsonstore"
	"github.com/onnwee/casebox/queue"
	"github.com/onnwee/casebox/server"
	"github.com/onnwee/casebox/settings"
	"github.com/onnwee/casebox/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("casebox", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Settings file: never fatal, falls back to defaults on absence or corruption
	settingsStore := settings.Load(cfg.SettingsPath)
	snap := settingsStore.Snapshot()
	slog.Info("settings loaded", slog.String("path", cfg.SettingsPath), slog.Int("rarities", len(snap.Rarities)), slog.Int("items", len(snap.Items)))

	// Persistence backend: Postgres when DB_DSN is set, flat JSON files otherwise
	var cooldownStore cooldown.Store
	var inventoryStore inventory.Store
	var ping func(ctx context.Context) error
	if cfg.DBDsn != "" {
		slog.Info("using postgres persistence")
		var database *sql.DB
		database, err = db.Connect()
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(migrateCtx, database); err != nil {
			cancel()
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
		cancel()
		cooldownStore = &db.CooldownStore{DB: database}
		inventoryStore = &db.InventoryStore{DB: database}
		ping = database.PingContext
	} else {
		slog.Info("using flat-file persistence", slog.String("dir", cfg.DataDir))
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			slog.Error("failed to create data dir", slog.Any("err", err))
			os.Exit(1)
		}
		cooldownStore = jsonstore.NewCooldownFile(filepath.Join(cfg.DataDir, "cooldowns.json"))
		inventoryStore = jsonstore.NewInventoryFile(filepath.Join(cfg.DataDir, "inventory.json"))
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gate := cooldown.NewGate(cfg.CooldownWindow, cooldownStore)
	if err := gate.Load(ctx); err != nil {
		slog.Warn("cooldown warm load failed, starting empty", slog.Any("err", err))
	}
	ledger := inventory.NewLedger(inventoryStore)
	if err := ledger.Load(ctx); err != nil {
		slog.Warn("inventory warm load failed, starting empty", slog.Any("err", err))
	}
	pending := queue.NewPending()

	svc := &drop.Service{
		Settings: settingsStore,
		Gate:     gate,
		Ledger:   ledger,
		Config:   drop.Config{WidenOnEmptyRarity: os.Getenv("WIDEN_ON_EMPTY_RARITY") != "0"},
	}

	// Channel and token come from env first, settings file second
	channel := cfg.TwitchChannel
	if channel == "" {
		channel = snap.Channel
	}
	token := cfg.TwitchOAuthToken
	if token == "" {
		token = snap.OAuthToken
	}

	dispatcher := &chat.Dispatcher{
		Channel:    channel,
		Username:   cfg.TwitchBotUsername,
		OAuthToken: token,
	}

	var listenerState func() chat.ConnState
	if channel == "" {
		slog.Info("chat listener disabled (no channel configured)")
	} else {
		listener := &chat.Listener{
			Channel:  channel,
			Trigger:  cfg.Trigger,
			Addr:     cfg.TwitchIRCAddr,
			Gate:     gate,
			Queue:    pending,
			Notifier: dispatcher,
		}
		listenerState = listener.State
		go listener.Run(ctx)
	}

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (API, health, status, metrics)
	deps := server.Deps{
		Service:       svc,
		Settings:      settingsStore,
		Queue:         pending,
		Gate:          gate,
		Ledger:        ledger,
		Sender:        dispatcher,
		ListenerState: listenerState,
		Ping:          ping,
	}
	go func() {
		if err := server.Start(ctx, deps, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
