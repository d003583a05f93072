package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"lostfound/audit"
	"lostfound/claims"
	"lostfound/middleware"
	"lostfound/models"
)

// ClaimStore is the slice of the store the claim endpoints need.
// Implemented by db.FirestoreDB.
type ClaimStore interface {
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	GetItem(ctx context.Context, itemType models.ItemType, id string) (*models.Item, error)
	ListClaimsByClaimant(ctx context.Context, uid string) ([]models.Claim, error)
	ListClaimsByMaintainer(ctx context.Context, uid string) ([]models.Claim, error)
	ListAllClaims(ctx context.Context) ([]models.Claim, error)
}

type ClaimsHandler struct {
	store  ClaimStore
	engine *claims.Engine
	audit  *audit.Recorder
}

func NewClaimsHandler(store ClaimStore, engine *claims.Engine, recorder *audit.Recorder) *ClaimsHandler {
	return &ClaimsHandler{
		store:  store,
		engine: engine,
		audit:  recorder,
	}
}

type createClaimRequest struct {
	ItemType  models.ItemType `json:"itemType"`
	ItemID    string          `json:"itemId"`
	ProofText string          `json:"proofText"`
}

// Create submits a claim on behalf of the authenticated caller
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claimID, err := h.engine.Create(r.Context(), claims.CreateInput{
		ItemType:      req.ItemType,
		ItemID:        req.ItemID,
		ClaimantUid:   user.UID,
		ClaimantEmail: user.Email,
		ProofText:     req.ProofText,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.audit.Record(r.Context(), "CLAIM_CREATED",
		fmt.Sprintf("claim %s on %s item %s", claimID, req.ItemType, req.ItemID),
		user.UID, "")

	writeJSON(w, http.StatusCreated, map[string]string{"id": claimID})
}

// Mine lists the caller's own claims
func (h *ClaimsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	list, err := h.store.ListClaimsByClaimant(r.Context(), user.UID)
	if err != nil {
		log.Printf("❌ Failed to list claims for %s: %v", user.UID, err)
		writeError(w, "Failed to retrieve claims", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"claims": list,
		"count":  len(list),
	})
}

// Assigned lists claims awaiting the caller's review: a maintainer sees
// claims frozen to them, an admin sees everything
func (h *ClaimsHandler) Assigned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var (
		list []models.Claim
		err  error
	)
	if user.Role == models.RoleAdmin {
		list, err = h.store.ListAllClaims(r.Context())
	} else {
		list, err = h.store.ListClaimsByMaintainer(r.Context(), user.UID)
	}
	if err != nil {
		log.Printf("❌ Failed to list assigned claims for %s: %v", user.UID, err)
		writeError(w, "Failed to retrieve claims", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"claims": list,
		"count":  len(list),
	})
}

type claimReviewResponse struct {
	Claim models.Claim `json:"claim"`
	Item  models.Item  `json:"item"`

	// The reporter's hidden verification detail, surfaced only to the reviewer.
	SecretProof string `json:"secretProof,omitempty"`
}

// Review returns a claim together with its linked item for verification,
// including the item's hidden proof detail. Only the frozen assignee (or an
// admin) may see it.
func (h *ClaimsHandler) Review(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	claimID := r.URL.Query().Get("id")
	if claimID == "" {
		writeError(w, "Missing claim id", http.StatusBadRequest)
		return
	}

	claim, err := h.store.GetClaim(r.Context(), claimID)
	if err != nil {
		if errors.Is(err, claims.ErrNotFound) {
			writeError(w, "Claim not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to load claim %s: %v", claimID, err)
		writeError(w, "Failed to load claim", http.StatusInternalServerError)
		return
	}

	if user.Role != models.RoleAdmin && claim.AssignedMaintainerUid != user.UID {
		writeError(w, "Not assigned to you", http.StatusForbidden)
		return
	}

	item, err := h.store.GetItem(r.Context(), claim.ItemType, claim.ItemID)
	if err != nil {
		if errors.Is(err, claims.ErrNotFound) {
			writeError(w, "Item not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to load item %s/%s: %v", claim.ItemType, claim.ItemID, err)
		writeError(w, "Failed to load item", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, claimReviewResponse{
		Claim:       *claim,
		Item:        *item,
		SecretProof: item.SecretProof,
	})
}

type decideClaimRequest struct {
	ClaimID        string             `json:"claimId"`
	Outcome        models.ClaimStatus `json:"outcome"`
	RejectedReason string             `json:"rejectedReason"`
}

// Decide approves or rejects a pending claim
func (h *ClaimsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req decideClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.engine.Decide(r.Context(), claims.DecideInput{
		ClaimID:        req.ClaimID,
		ActingUid:      user.UID,
		ActingRole:     user.Role,
		Outcome:        req.Outcome,
		RejectedReason: req.RejectedReason,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.audit.Record(r.Context(), "CLAIM_DECIDED",
		fmt.Sprintf("claim %s %s", req.ClaimID, req.Outcome),
		user.UID, "")

	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Outcome)})
}
