package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lostfound/assigner"
	"lostfound/audit"
	"lostfound/db"
	"lostfound/middleware"
	"lostfound/models"
)

type ItemsHandler struct {
	db        *db.FirestoreDB
	resolver  *assigner.Resolver
	audit     *audit.Recorder
	minSecret int
}

func NewItemsHandler(firestoreDB *db.FirestoreDB, resolver *assigner.Resolver, recorder *audit.Recorder, minSecret int) *ItemsHandler {
	return &ItemsHandler{
		db:        firestoreDB,
		resolver:  resolver,
		audit:     recorder,
		minSecret: minSecret,
	}
}

type reportItemRequest struct {
	ItemType    models.ItemType `json:"itemType"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Color       string          `json:"color"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Date        string          `json:"date"` // yyyy-mm-dd
	SecretProof string          `json:"secretProof"`
	ImageData   string          `json:"imageData"`
}

type reportItemResponse struct {
	ID       string          `json:"id"`
	Assignee models.Assignee `json:"assignee"`
}

// Items dispatches POST (report) and GET (browse) on /api/items
func (h *ItemsHandler) Items(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.report(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// report creates a lost or found item and auto-assigns a maintainer.
// Assignment never blocks reporting: the resolver degrades to the central
// fallback on any lookup failure.
func (h *ItemsHandler) report(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req reportItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !req.ItemType.Valid() {
		writeError(w, "itemType must be lost or found", http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(req.Title)
	location := strings.TrimSpace(req.Location)
	if title == "" || req.Category == "" || location == "" {
		writeError(w, "title, category and location are required", http.StatusBadRequest)
		return
	}

	secret := strings.TrimSpace(req.SecretProof)
	if req.ItemType == models.ItemTypeLost && len(secret) < h.minSecret {
		writeError(w, fmt.Sprintf("Hidden proof detail must be at least %d characters", h.minSecret), http.StatusBadRequest)
		return
	}

	assignee := h.resolver.Resolve(r.Context(), location, req.Category)

	item := &models.Item{
		ID:            uuid.NewString(),
		Type:          req.ItemType,
		Title:         title,
		Category:      req.Category,
		Color:         strings.TrimSpace(req.Color),
		Description:   strings.TrimSpace(req.Description),
		ImageData:     req.ImageData,
		Status:        models.ItemStatusOpen,
		ReportedBy:    user.UID,
		ReporterEmail: user.Email,
		ReporterName:  user.Name,
		Assignee:      assignee,
		CreatedAt:     time.Now(),
	}
	if req.ItemType == models.ItemTypeLost {
		item.LastSeenLocation = location
		item.LostDate = req.Date
		item.SecretProof = secret
	} else {
		item.FoundLocation = location
		item.FoundDate = req.Date
	}

	if err := h.db.CreateItem(r.Context(), item); err != nil {
		log.Printf("❌ Failed to create item: %v", err)
		writeError(w, "Failed to report item", http.StatusInternalServerError)
		return
	}

	h.audit.Record(r.Context(), "ITEM_REPORTED",
		fmt.Sprintf("%s item %q assigned to %s", item.Type, item.Title, assignee.AssignedMaintainerName),
		user.UID, assignee.AssignedMaintainerUid)

	writeJSON(w, http.StatusCreated, reportItemResponse{
		ID:       item.ID,
		Assignee: assignee,
	})
}

// list returns open items for browsing. Secret proof details are never
// serialized.
func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request) {
	itemType := models.ItemType(r.URL.Query().Get("type"))
	if itemType == "" {
		itemType = models.ItemTypeFound
	}
	if !itemType.Valid() {
		writeError(w, "type must be lost or found", http.StatusBadRequest)
		return
	}

	items, err := h.db.ListOpenItems(r.Context(), itemType)
	if err != nil {
		log.Printf("❌ Failed to list items: %v", err)
		writeError(w, "Failed to retrieve items", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// Mine returns the caller's own reported items of the given type.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	itemType := models.ItemType(r.URL.Query().Get("type"))
	if !itemType.Valid() {
		writeError(w, "type must be lost or found", http.StatusBadRequest)
		return
	}

	items, err := h.db.ListItemsByReporter(r.Context(), itemType, user.UID)
	if err != nil {
		log.Printf("❌ Failed to list items for %s: %v", user.UID, err)
		writeError(w, "Failed to retrieve items", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}
