// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/colorswipe/duel-service/internal/auth"
	"github.com/colorswipe/duel-service/internal/cache"
	"github.com/colorswipe/duel-service/internal/database"
	"github.com/colorswipe/duel-service/internal/handlers"
	"github.com/colorswipe/duel-service/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// The match-result stream is optional; the game runs without it.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, match results will not be published: %v", err)
	}

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// leaderboard + health
	mux.Handle("/leaderboard", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LeaderboardHandler,
	)))
	mux.HandleFunc("/health", handlers.HealthHandler)

	// duel websocket
	srv := handlers.NewDuelServer(logger, database.NewRatingStore())

	mux.Handle("/duel/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.DuelWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
