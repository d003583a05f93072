// Package claims implements the claim lifecycle: creating claims against
// reported items and driving them from pending to approved or rejected,
// with the item status side effect and best-effort notifications.
package claims

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"lostfound/models"
	"lostfound/notify"
)

// DefaultMinProofLen is the minimum trimmed length of a claimant's proof
// text.
const DefaultMinProofLen = 12

// Store is the slice of the document store the engine needs. Implemented
// by db.FirestoreDB.
type Store interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetItem(ctx context.Context, itemType models.ItemType, id string) (*models.Item, error)
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	CreateClaim(ctx context.Context, claim *models.Claim) error

	// DecideClaim writes the terminal claim fields only if the claim is
	// still pending at write time; otherwise it returns ErrNotPending.
	DecideClaim(ctx context.Context, id string, d models.Decision) error

	// MarkItemRecovered transitions the item to its variant-specific
	// pickup-ready status.
	MarkItemRecovered(ctx context.Context, itemType models.ItemType, id string) error
}

// Notifier dispatches push notifications through the relay. Calls are
// best-effort: the engine logs the result but never treats it as an
// operation failure.
type Notifier interface {
	ClaimCreated(ctx context.Context, actorUid string, actorRole models.Role, claimID string) notify.Result
	ClaimStatus(ctx context.Context, actorUid string, actorRole models.Role, claimID string) notify.Result
}

// Engine drives claims through their lifecycle.
type Engine struct {
	store    Store
	notifier Notifier
	minProof int
	now      func() time.Time
}

// NewEngine creates a claim lifecycle engine. minProof <= 0 selects
// DefaultMinProofLen.
func NewEngine(store Store, notifier Notifier, minProof int) *Engine {
	if minProof <= 0 {
		minProof = DefaultMinProofLen
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		minProof: minProof,
		now:      time.Now,
	}
}

// CreateInput is the input to Create.
type CreateInput struct {
	ItemType      models.ItemType
	ItemID        string
	ClaimantUid   string
	ClaimantEmail string
	ProofText     string
}

// Create validates the claim request, freezes the item's assignment
// snapshot into a new pending claim, persists it, and notifies the
// assigned maintainer best-effort. Returns the new claim id.
func (e *Engine) Create(ctx context.Context, in CreateInput) (string, error) {
	if !in.ItemType.Valid() {
		return "", validationf("unknown item type %q", in.ItemType)
	}
	if in.ItemID == "" {
		return "", validationf("missing item reference")
	}
	if in.ClaimantUid == "" {
		return "", validationf("missing claimant")
	}
	proof := strings.TrimSpace(in.ProofText)
	if len(proof) < e.minProof {
		return "", validationf("proof text must be at least %d characters", e.minProof)
	}

	claimant, err := e.store.GetUser(ctx, in.ClaimantUid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", preconditionf("claimant %s has no profile", in.ClaimantUid)
		}
		return "", dependency("load claimant", err)
	}
	if claimant.Disabled {
		return "", preconditionf("account disabled: %s", claimant.DisabledReason)
	}

	item, err := e.store.GetItem(ctx, in.ItemType, in.ItemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", validationf("item %s/%s does not exist", in.ItemType, in.ItemID)
		}
		return "", dependency("load item", err)
	}

	// Freeze the item's assignment at this moment. Later edits to the
	// item must not retroactively alter the claim.
	snapshot := item.Assignee
	if !snapshot.Assigned() {
		snapshot = models.CentralAssignee()
	}

	claim := &models.Claim{
		ID:            uuid.NewString(),
		ItemType:      in.ItemType,
		ItemID:        in.ItemID,
		ItemTitle:     item.Title,
		Category:      item.Category,
		Location:      item.Location(),
		ClaimantUid:   in.ClaimantUid,
		ClaimantEmail: in.ClaimantEmail,
		ProofText:     proof,
		Status:        models.ClaimStatusPending,
		Assignee:      snapshot,
		CreatedAt:     e.now(),
	}

	if err := e.store.CreateClaim(ctx, claim); err != nil {
		return "", dependency("create claim", err)
	}

	if res := e.notifier.ClaimCreated(ctx, claimant.UID, claimant.Role, claim.ID); res.State != notify.Delivered {
		log.Printf("⚠️  Claim-created notification for %s not delivered: %s", claim.ID, res)
	}

	return claim.ID, nil
}

// DecideInput is the input to Decide.
type DecideInput struct {
	ClaimID        string
	ActingUid      string
	ActingRole     models.Role
	Outcome        models.ClaimStatus
	RejectedReason string
}

// Decide transitions a pending claim to approved or rejected. Approval
// additionally marks the linked item recovered; rejection never touches
// the item. The claimant is notified best-effort afterwards.
//
// The claim write and the item write are two separate store writes; a
// failure between them leaves the claim decided but the item unchanged,
// which is surfaced as a DependencyError for out-of-band reconciliation.
func (e *Engine) Decide(ctx context.Context, in DecideInput) error {
	if in.ClaimID == "" {
		return validationf("missing claim id")
	}
	if in.Outcome != models.ClaimStatusApproved && in.Outcome != models.ClaimStatusRejected {
		return validationf("outcome must be approved or rejected, got %q", in.Outcome)
	}
	reason := strings.TrimSpace(in.RejectedReason)
	if in.Outcome == models.ClaimStatusRejected && reason == "" {
		return validationf("rejection requires a reason")
	}
	if in.Outcome == models.ClaimStatusApproved {
		reason = ""
	}

	if !in.ActingRole.CanDecide() {
		return authorizationf("role %q may not decide claims", in.ActingRole)
	}

	actor, err := e.store.GetUser(ctx, in.ActingUid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return preconditionf("acting user %s has no profile", in.ActingUid)
		}
		return dependency("load acting user", err)
	}
	if actor.Disabled {
		return preconditionf("account disabled: %s", actor.DisabledReason)
	}

	claim, err := e.store.GetClaim(ctx, in.ClaimID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return preconditionf("claim %s does not exist", in.ClaimID)
		}
		return dependency("load claim", err)
	}
	if claim.Status != models.ClaimStatusPending {
		return preconditionf("claim %s is already %s", in.ClaimID, claim.Status)
	}

	// Maintainers may only decide claims frozen to them; admins decide any.
	if in.ActingRole == models.RoleMaintainer && in.ActingUid != claim.AssignedMaintainerUid {
		return authorizationf("claim %s is assigned to another maintainer", in.ClaimID)
	}

	decision := models.Decision{
		Status:         in.Outcome,
		RejectedReason: reason,
		VerifiedByUid:  in.ActingUid,
		VerifiedByName: actor.Name,
		VerifiedAt:     e.now(),
	}

	// The store re-checks the pending precondition at write time, closing
	// the race between two concurrent decisions.
	if err := e.store.DecideClaim(ctx, in.ClaimID, decision); err != nil {
		if errors.Is(err, ErrNotPending) {
			return preconditionf("claim %s was decided concurrently", in.ClaimID)
		}
		if errors.Is(err, ErrNotFound) {
			return preconditionf("claim %s does not exist", in.ClaimID)
		}
		return dependency("decide claim", err)
	}

	if in.Outcome == models.ClaimStatusApproved {
		if err := e.store.MarkItemRecovered(ctx, claim.ItemType, claim.ItemID); err != nil {
			// Claim is decided but the item is not marked; report it.
			return dependency("mark item recovered", err)
		}
	}

	if res := e.notifier.ClaimStatus(ctx, in.ActingUid, in.ActingRole, in.ClaimID); res.State != notify.Delivered {
		log.Printf("⚠️  Claim-status notification for %s not delivered: %s", in.ClaimID, res)
	}

	return nil
}
