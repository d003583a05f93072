package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"lostfound/db"
	"lostfound/middleware"
)

type FcmHandler struct {
	db *db.FirestoreDB
}

func NewFcmHandler(firestoreDB *db.FirestoreDB) *FcmHandler {
	return &FcmHandler{db: firestoreDB}
}

type registerTokenRequest struct {
	Token string `json:"token"`
}

// RegisterToken stores a device token under the caller's profile so the
// notify relay can reach their devices
func (h *FcmHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		writeError(w, "token is required", http.StatusBadRequest)
		return
	}

	if err := h.db.SaveFcmToken(r.Context(), user.UID, token); err != nil {
		log.Printf("❌ Failed to save fcm token for %s: %v", user.UID, err)
		writeError(w, "Failed to register token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
