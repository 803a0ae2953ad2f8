// Command api serves the scoring HTTP boundary: manual weight logs,
// participant lifecycle, and leaderboard queries.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/dbop14/FitApp-sub000/pkg/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		slog.Error("Bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := &Server{
		DB:     svc.DB,
		Logger: bootstrap.NewLogger("api"),
		TZ:     svc.Config.DefaultTimezone,
	}

	r := server.Routes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server.Logger.Info("API listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		server.Logger.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
