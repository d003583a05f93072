package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lostfound/assigner"
	"lostfound/audit"
	"lostfound/middleware"
	"lostfound/models"
)

// AdminStore is the slice of the store the admin endpoints need.
// Implemented by db.FirestoreDB.
type AdminStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, uid string, role models.Role) error
	SetUserDisabled(ctx context.Context, uid string, disabled bool, reason string) error
	UpdateMaintainerProfile(ctx context.Context, uid string, locations, categories []string, collectionPoint, officeHours string) error
	ListAllClaims(ctx context.Context) ([]models.Claim, error)
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type AdminHandler struct {
	store AdminStore
	audit *audit.Recorder
}

func NewAdminHandler(store AdminStore, recorder *audit.Recorder) *AdminHandler {
	return &AdminHandler{
		store: store,
		audit: recorder,
	}
}

// GetUsers returns all user profiles
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get users: %v", err)
		writeError(w, "Failed to retrieve users", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

type updateRoleRequest struct {
	UID  string      `json:"uid"`
	Role models.Role `json:"role"`
}

// UpdateRole changes a user's role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	admin, _ := middleware.GetUserFromContext(r.Context())

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UID == "" || !req.Role.Valid() {
		writeError(w, "uid and a valid role are required", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), req.UID, req.Role); err != nil {
		log.Printf("❌ Failed to update role for %s: %v", req.UID, err)
		writeError(w, "Failed to update role", http.StatusInternalServerError)
		return
	}

	h.audit.Record(r.Context(), "ADMIN_UPDATE_ROLE",
		fmt.Sprintf("role of %s set to %s", req.UID, req.Role),
		admin.UID, req.UID)

	writeJSON(w, http.StatusOK, map[string]string{"uid": req.UID, "role": string(req.Role)})
}

type disableUserRequest struct {
	UID      string `json:"uid"`
	Disabled bool   `json:"disabled"`
	Reason   string `json:"reason"`
}

// DisableUser disables or re-enables a user account. Disabling requires a
// reason so the user can be told why.
func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	admin, _ := middleware.GetUserFromContext(r.Context())

	var req disableUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UID == "" {
		writeError(w, "uid is required", http.StatusBadRequest)
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if req.Disabled && reason == "" {
		writeError(w, "Disabling an account requires a reason", http.StatusBadRequest)
		return
	}

	if err := h.store.SetUserDisabled(r.Context(), req.UID, req.Disabled, reason); err != nil {
		log.Printf("❌ Failed to update disabled state for %s: %v", req.UID, err)
		writeError(w, "Failed to update account", http.StatusInternalServerError)
		return
	}

	action := "ADMIN_ENABLE_USER"
	message := fmt.Sprintf("account %s re-enabled", req.UID)
	if req.Disabled {
		action = "ADMIN_DISABLE_USER"
		message = fmt.Sprintf("account %s disabled: %s", req.UID, reason)
	}
	h.audit.Record(r.Context(), action, message, admin.UID, req.UID)

	writeJSON(w, http.StatusOK, map[string]interface{}{"uid": req.UID, "disabled": req.Disabled})
}

type maintainerProfileRequest struct {
	UID             string   `json:"uid"`
	Locations       []string `json:"locations"`
	Categories      []string `json:"categories"`
	CollectionPoint string   `json:"collectionPoint"`
	OfficeHours     string   `json:"officeHours"`
}

// UpdateMaintainerProfile sets a maintainer's routing profile. Locations
// and categories are stored normalized so assignment lookups match what
// the resolver produces.
func (h *AdminHandler) UpdateMaintainerProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	admin, _ := middleware.GetUserFromContext(r.Context())

	var req maintainerProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UID == "" {
		writeError(w, "uid is required", http.StatusBadRequest)
		return
	}

	locations := normalizeAll(req.Locations)
	categories := normalizeAll(req.Categories)

	if err := h.store.UpdateMaintainerProfile(r.Context(), req.UID, locations, categories,
		strings.TrimSpace(req.CollectionPoint), strings.TrimSpace(req.OfficeHours)); err != nil {
		log.Printf("❌ Failed to update maintainer profile for %s: %v", req.UID, err)
		writeError(w, "Failed to update maintainer profile", http.StatusInternalServerError)
		return
	}

	h.audit.Record(r.Context(), "ADMIN_UPDATE_MAINTAINER",
		fmt.Sprintf("maintainer %s: locations=%v categories=%v", req.UID, locations, categories),
		admin.UID, req.UID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uid":        req.UID,
		"locations":  locations,
		"categories": categories,
	})
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := assigner.Normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

const (
	defaultLogsLimit = 100
	maxLogsLimit     = 500
)

// GetLogs returns the most recent audit log entries, newest first
func (h *AdminHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultLogsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxLogsLimit {
		limit = maxLogsLimit
	}

	entries, err := h.store.ListAuditLogs(r.Context(), limit)
	if err != nil {
		log.Printf("❌ Failed to list audit logs: %v", err)
		writeError(w, "Failed to retrieve logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  entries,
		"count": len(entries),
	})
}

// ExportClaims exports all claims to CSV
func (h *AdminHandler) ExportClaims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list, err := h.store.ListAllClaims(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get claims: %v", err)
		writeError(w, "Failed to retrieve claims", http.StatusInternalServerError)
		return
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("lostfound_claims_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Claim ID",
		"Item Type",
		"Item ID",
		"Item Title",
		"Category",
		"Claimant",
		"Status",
		"Rejected Reason",
		"Assigned Maintainer",
		"Collection Point",
		"Verified By",
		"Verified At",
		"Created At",
	}
	if err := writer.Write(header); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		return
	}

	for _, c := range list {
		verifiedAt := ""
		if !c.VerifiedAt.IsZero() {
			verifiedAt = c.VerifiedAt.Format(time.RFC3339)
		}
		row := []string{
			c.ID,
			string(c.ItemType),
			c.ItemID,
			c.ItemTitle,
			c.Category,
			c.ClaimantEmail,
			string(c.Status),
			c.RejectedReason,
			c.AssignedMaintainerName,
			c.CollectionPoint,
			c.VerifiedByName,
			verifiedAt,
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			return
		}
	}
}
