package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/colorswipe/duel-service/internal/auth"
	"github.com/colorswipe/duel-service/internal/database"
)

const leaderboardSize = 20

// LeaderboardHandler returns the top players by rank score. If the request
// carries a valid session the caller's own ranked row is included even when
// they sit outside the top 20.
func LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	username := ""
	cookie := r.Header.Get("Cookie")
	if strings.Contains(cookie, "auth_token=") {
		token := extractCookieToken(cookie, "auth_token")
		if u, err := auth.AuthenticateJWT(token); err == nil {
			username = u
		}
	}

	entries, err := database.GetLeaderboard(r.Context(), username, leaderboardSize)
	if err != nil {
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// HealthHandler reports process liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
