// Package audit writes audit trail entries to the logs collection.
// Recording is best-effort: a failed write is logged, never propagated.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"lostfound/models"
)

// Store persists audit log entries. Implemented by db.FirestoreDB.
type Store interface {
	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Recorder records audit events.
type Recorder struct {
	store Store
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record writes one audit entry. targetUid may be empty.
func (r *Recorder) Record(ctx context.Context, action, message, actorUid, targetUid string) {
	log.Printf("AUDIT: User '%s' performed action '%s' - Details: %s", actorUid, action, message)

	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Message:   message,
		ActorUid:  actorUid,
		TargetUid: targetUid,
		CreatedAt: time.Now(),
	}
	if err := r.store.AppendAuditLog(ctx, entry); err != nil {
		log.Printf("⚠️  Failed to persist audit log (%s): %v", action, err)
	}
}
