package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Shyam-duba/ChessApp/auth"
	"github.com/Shyam-duba/ChessApp/config"
	"github.com/Shyam-duba/ChessApp/coordinator"
	"github.com/Shyam-duba/ChessApp/protocol"
	"github.com/Shyam-duba/ChessApp/store"
	ws "github.com/Shyam-duba/ChessApp/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("storage error", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	authService := auth.NewService(db, cfg.TokenSecret, cfg.TokenTTL)
	encoder := protocol.NewEncoder()
	coord := coordinator.New(encoder)
	handler := protocol.NewHandler(coord, encoder)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(coord, handler, authService))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(coord))
	mux.HandleFunc("/api/auth/signup", authService.SignupHandler)
	mux.HandleFunc("/api/auth/login", authService.LoginHandler)
	mux.HandleFunc("/api/leaderboard", leaderboardHandler(db))
	mux.HandleFunc("/api/results", resultsHandler(db, authService))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
}

func wsHandler(coord *coordinator.Coordinator, handler *protocol.Handler, authService *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		// A valid token pre-identifies the session; anonymous clients
		// identify over the socket instead.
		name := ""
		if token := r.URL.Query().Get("token"); token != "" {
			name, err = authService.VerifyToken(token)
			if err != nil {
				slog.Warn("rejecting invalid connection token", "error", err)
				name = ""
			}
		}

		wsConn := ws.NewConn(uuid.New().String(), name, conn, coord, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, queued, rooms := coord.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"sessions": sessions,
			"queued":   queued,
			"rooms":    rooms,
		})
	}
}

func leaderboardHandler(db *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		standings, err := db.Leaderboard(r.Context(), limit)
		if err != nil {
			slog.Error("leaderboard error", "error", err)
			http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(standings)
	}
}

func resultsHandler(db *store.Store, authService *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		reporter, err := authService.UsernameFromRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var result store.Result
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if reporter != result.White && reporter != result.Black {
			http.Error(w, "reporter is not a participant", http.StatusForbidden)
			return
		}
		if err := db.RecordResult(r.Context(), result); err != nil {
			slog.Error("record result error", "error", err)
			http.Error(w, "could not record result", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
