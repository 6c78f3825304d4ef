// Entry point for the scriptshelf HTTP service — chi router, JWT sessions,
// SQLite catalog, optional MCP over stdio.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/scriptshelf/scriptshelf/audit"
	"github.com/scriptshelf/scriptshelf/auth"
	"github.com/scriptshelf/scriptshelf/catalog"
	"github.com/scriptshelf/scriptshelf/dbopen"
	"github.com/scriptshelf/scriptshelf/shield"
	"github.com/scriptshelf/scriptshelf/trace"
)

func main() {
	cfg := catalog.DefaultConfig()
	if path := env("CONFIG", ""); path != "" {
		loaded, err := catalog.LoadConfig(path)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Listen = env("LISTEN", cfg.Listen)
	cfg.DBPath = env("DB_PATH", cfg.DBPath)
	cfg.TraceDBPath = env("TRACE_DB", cfg.TraceDBPath)
	cfg.LogMirrorPath = env("LOG_MIRROR", cfg.LogMirrorPath)
	cfg.AdminUsername = env("ADMIN_USERNAME", cfg.AdminUsername)
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if os.Getenv("SEED_CATALOG") == "false" {
		cfg.SeedCatalog = false
	}

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		secretInput := os.Getenv("SESSION_SECRET")
		if secretInput == "" {
			slog.Error("JWT_SECRET or SESSION_SECRET is required")
			os.Exit(1)
		}
		// Derive a 32-byte JWT secret via SHA-256 (satisfies auth.MinSecretLen).
		secretHash := sha256.Sum256([]byte(secretInput))
		jwtSecret = secretHash[:]
	}
	if err := auth.ValidateSecret(jwtSecret); err != nil {
		slog.Error("jwt secret", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbOpts := []dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(catalog.Schema),
		dbopen.WithSchema(audit.Schema),
	}

	// Trace DB — opened with the raw "sqlite" driver (never "sqlite-trace"
	// to avoid recursion). Empty path disables SQL tracing.
	if cfg.TraceDBPath != "" {
		traceDB, err := dbopen.Open(cfg.TraceDBPath, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("trace db", "error", err)
			os.Exit(1)
		}
		defer traceDB.Close()
		traceStore := trace.NewStore(traceDB)
		if err := traceStore.Init(); err != nil {
			slog.Error("trace init", "error", err)
			os.Exit(1)
		}
		trace.SetStore(traceStore)
		defer traceStore.Close()
		dbOpts = append(dbOpts, dbopen.WithTrace())
	}

	// Catalog DB.
	db, err := dbopen.Open(cfg.DBPath, dbOpts...)
	if err != nil {
		slog.Error("catalog db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Activity logger (writes to the catalog DB, optionally mirrored to a file).
	var auditOpts []audit.Option
	if cfg.LogMirrorPath != "" {
		auditOpts = append(auditOpts, audit.WithMirrorFile(cfg.LogMirrorPath))
	}
	auditLogger := audit.NewLogger(db, auditOpts...)
	if err := auditLogger.Init(); err != nil {
		slog.Error("audit init", "error", err)
		os.Exit(1)
	}
	defer auditLogger.Close()

	svc := catalog.NewServiceDB(db, auditLogger)

	// Admin account.
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		if err := svc.EnsureAdmin(ctx, cfg.AdminUsername, pw); err != nil {
			slog.Error("seed admin", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("ADMIN_PASSWORD not set, admin login unavailable until a user is created")
	}

	// Starter catalog.
	if cfg.SeedCatalog {
		added, err := svc.Seed(ctx)
		if err != nil {
			slog.Error("seed catalog", "error", err)
			os.Exit(1)
		}
		if added > 0 {
			slog.Info("catalog seeded", "added", added)
		}
	}

	// Optional MCP over stdio.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "scriptshelf",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp stdio", "error", err)
			}
		}()
	}

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}
	r.Use(auth.Middleware(jwtSecret)) // Parse JWT on all routes (soft — doesn't enforce).

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public auth endpoints (no session required).
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		user, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, catalog.ErrBadCredentials) {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 401, map[string]string{"error": "invalid credentials"})
			return
		}
		claims := &auth.Claims{
			UserID:   fmt.Sprint(user.ID),
			Username: user.Username,
			Role:     user.Role,
		}
		token, err := auth.GenerateToken(jwtSecret, claims, 24*time.Hour)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
		auth.SetTokenCookie(w, token, secure)
		writeJSON(w, 200, map[string]string{"id": claims.UserID, "name": claims.Username, "role": claims.Role})
	})

	r.Post("/api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		auth.ClearTokenCookie(w)
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
			c := auth.GetClaims(r.Context())
			writeJSON(w, 200, map[string]string{"id": c.UserID, "name": c.Username, "role": c.Role})
		})
	})

	// Catalog API. Mutations require a session, reads and log ingestion stay open.
	r.Mount("/api", svc.Routes(requireSession))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("scriptshelf starting", "addr", cfg.Listen, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	auditLogger.Flush()
}

// requireSession returns 401 JSON if no valid JWT claims in context.
// auth.Middleware (applied globally) does the soft parsing.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetClaims(r.Context()) == nil {
			writeJSON(w, 401, map[string]string{"error": "not authenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
