package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/design/internal/asset"
	"github.com/inamate/design/internal/auth"
	"github.com/inamate/design/internal/config"
	"github.com/inamate/design/internal/export"
	mw "github.com/inamate/design/internal/middleware"
	"github.com/inamate/design/internal/project"
	"github.com/inamate/design/internal/session"
	"github.com/inamate/design/internal/store"
	"github.com/inamate/design/internal/typeset"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}

	font, err := typeset.NewGoFont()
	if err != nil {
		slog.Error("load font", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(st)
	projectHandler := project.NewHandler(projectService)

	assetHandler := asset.NewHandler(cfg.AssetDir)
	loader := asset.NewLoader(cfg.AssetDir, 4, slog.Default())
	exportHandler := export.NewHandler(projectService, asset.NewLibrary(cfg.AssetDir), font)

	editorOpts := cfg.Editor.Options(nil)
	editorOpts.Measurer = font
	hub := session.NewHub(projectService, session.Options{
		RenderFPS:        cfg.RenderFPS,
		AutosaveInterval: cfg.AutosaveInterval,
		Editor:           editorOpts,
		Images:           loader,
		Logger:           slog.Default(),
	})
	go hub.Run()

	origins := cfg.Origins()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/assets", assetHandler.Upload).Methods("POST")
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/invite", projectHandler.Invite).Methods("POST")
	api.HandleFunc("/projects/{projectId}/members", projectHandler.ListMembers).Methods("GET")
	api.HandleFunc("/projects/{projectId}/members/{userId}", projectHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/document", projectHandler.GetDocument).Methods("GET")
	api.HandleFunc("/projects/{projectId}/document", projectHandler.PutDocument).Methods("PUT")
	api.HandleFunc("/projects/{projectId}/export/{format}", exportHandler.Export).Methods("GET")

	// WebSocket endpoint; the token comes from the query string.
	acceptOpts := &websocket.AcceptOptions{OriginPatterns: mw.OriginPatterns(origins)}
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authService.AuthMiddleware)
	ws.HandleFunc("/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		projectID := mux.Vars(r)["projectId"]
		if _, err := projectService.Get(r.Context(), projectID, userID); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, project.ErrNotMember):
				status = http.StatusForbidden
			case errors.Is(err, project.ErrNotFound):
				status = http.StatusNotFound
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		hub.ServeWS(w, r, userID, projectID, acceptOpts)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every modified document is saved.
		hub.Stop()
		loader.Wait()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "sqlite" {
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	p, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}
