package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"firebase.google.com/go/messaging"

	"lostfound/claims"
	"lostfound/middleware"
	"lostfound/models"
)

// ClaimReader is the slice of the store the relay endpoints need. The
// relay never trusts a caller-supplied payload: it re-reads the claim and
// the target user itself.
type ClaimReader interface {
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

// MessageSender pushes to devices. Implemented by
// *firebase.google.com/go/messaging.Client.
type MessageSender interface {
	SendMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// NotifyHandler implements the push-notification relay endpoints. It is
// the last line of authorization enforcement: each endpoint re-validates
// that the caller may trigger this notification, independent of whatever
// checks the caller already ran.
type NotifyHandler struct {
	store  ClaimReader
	sender MessageSender
}

func NewNotifyHandler(store ClaimReader, sender MessageSender) *NotifyHandler {
	return &NotifyHandler{
		store:  store,
		sender: sender,
	}
}

type notifyRequest struct {
	ClaimID string `json:"claimId"`
}

type deliveryResponse struct {
	Ok           bool   `json:"ok"`
	Reason       string `json:"reason,omitempty"`
	SuccessCount int    `json:"successCount,omitempty"`
	FailureCount int    `json:"failureCount,omitempty"`
}

// ClaimCreated notifies the assigned maintainer that a claim was
// submitted. Caller must be the claim's claimant with role
// student/teacher.
func (h *NotifyHandler) ClaimCreated(w http.ResponseWriter, r *http.Request) {
	caller, claim, ok := h.loadClaim(w, r, models.RoleStudent, models.RoleTeacher)
	if !ok {
		return
	}

	if claim.ClaimantUid != caller.UID {
		writeError(w, "Not your claim", http.StatusForbidden)
		return
	}

	if !claim.Assigned() || claim.AssignedMaintainerUid == models.CentralUid {
		writeJSON(w, http.StatusOK, deliveryResponse{Ok: false, Reason: "No maintainer assigned"})
		return
	}

	title := "New Claim Submitted"
	body := fmt.Sprintf("Item: %s • %s", orDefault(claim.ItemTitle, "Item"), claim.Category)

	h.send(w, r, claim.AssignedMaintainerUid, title, body, map[string]string{
		"type":    "claim_created",
		"claimId": claim.ID,
	})
}

// ClaimStatus notifies the claimant that their claim was decided. Caller
// must be the claim's assigned maintainer or an admin.
func (h *NotifyHandler) ClaimStatus(w http.ResponseWriter, r *http.Request) {
	caller, claim, ok := h.loadClaim(w, r, models.RoleMaintainer, models.RoleTeacher, models.RoleAdmin)
	if !ok {
		return
	}

	if caller.Role != models.RoleAdmin && claim.AssignedMaintainerUid != caller.UID {
		writeError(w, "Not assigned to you", http.StatusForbidden)
		return
	}

	if claim.ClaimantUid == "" {
		writeJSON(w, http.StatusOK, deliveryResponse{Ok: false, Reason: "No claimant"})
		return
	}

	// Title and body derive from the claim's current status, never from
	// the request.
	title := "Claim Update"
	body := fmt.Sprintf("Item: %s", orDefault(claim.ItemTitle, "Item"))
	switch claim.Status {
	case models.ClaimStatusApproved:
		title = "Claim Approved ✅"
		body = fmt.Sprintf("Approved for %q\nCollect: %s\nTime: %s",
			orDefault(claim.ItemTitle, "Item"),
			orDefault(claim.CollectionPoint, "Office"),
			orDefault(claim.OfficeHours, "10 AM – 4 PM"))
	case models.ClaimStatusRejected:
		title = "Claim Rejected ❌"
		body = fmt.Sprintf("Rejected for %q\nReason: %s",
			orDefault(claim.ItemTitle, "Item"),
			orDefault(claim.RejectedReason, "Not specified"))
	}

	h.send(w, r, claim.ClaimantUid, title, body, map[string]string{
		"type":    "claim_status",
		"claimId": claim.ID,
		"status":  string(claim.Status),
	})
}

// loadClaim runs the shared front half of both endpoints: role gate,
// request decode, claim re-read.
func (h *NotifyHandler) loadClaim(w http.ResponseWriter, r *http.Request, allowedRoles ...models.Role) (*models.User, *models.Claim, bool) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, nil, false
	}

	caller, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return nil, nil, false
	}

	allowed := false
	for _, role := range allowedRoles {
		if caller.Role == role {
			allowed = true
			break
		}
	}
	if !allowed {
		writeError(w, "Role may not trigger this notification", http.StatusForbidden)
		return nil, nil, false
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return nil, nil, false
	}
	if req.ClaimID == "" {
		writeError(w, "Missing claimId", http.StatusBadRequest)
		return nil, nil, false
	}

	claim, err := h.store.GetClaim(r.Context(), req.ClaimID)
	if err != nil {
		if errors.Is(err, claims.ErrNotFound) {
			writeError(w, "Claim not found", http.StatusNotFound)
		} else {
			log.Printf("❌ Failed to load claim %s: %v", req.ClaimID, err)
			writeError(w, "Failed to load claim", http.StatusInternalServerError)
		}
		return nil, nil, false
	}

	return caller, claim, true
}

func (h *NotifyHandler) send(w http.ResponseWriter, r *http.Request, targetUid, title, body string, data map[string]string) {
	target, err := h.store.GetUser(r.Context(), targetUid)
	if err != nil {
		if errors.Is(err, claims.ErrNotFound) {
			writeJSON(w, http.StatusOK, deliveryResponse{Ok: false, Reason: "No tokens"})
			return
		}
		log.Printf("❌ Failed to load notification target %s: %v", targetUid, err)
		writeError(w, "Failed to load target user", http.StatusInternalServerError)
		return
	}

	tokens := make([]string, 0, len(target.FcmTokens))
	for token, active := range target.FcmTokens {
		if !active {
			continue
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		writeJSON(w, http.StatusOK, deliveryResponse{Ok: false, Reason: "No tokens"})
		return
	}

	res, err := h.sender.SendMulticast(r.Context(), &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		log.Printf("❌ FCM send to %s failed: %v", targetUid, err)
		writeError(w, "Failed to send notification", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, deliveryResponse{
		Ok:           true,
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
	})
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
