// models.go
// Defines the core data structures for the Lost & Found backend.

package models

import (
	"time"
)

// Role defines the access level of a user.
type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleMaintainer Role = "maintainer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleMaintainer, RoleAdmin:
		return true
	}
	return false
}

// CanDecide reports whether the role is allowed to approve or reject claims.
func (r Role) CanDecide() bool {
	return r == RoleMaintainer || r == RoleAdmin
}

// ItemType distinguishes the two item collections.
type ItemType string

const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ItemStatus is the lifecycle state of a reported item.
type ItemStatus string

const (
	ItemStatusOpen       ItemStatus = "open"
	ItemStatusReturned   ItemStatus = "returned"
	ItemStatusHandedOver ItemStatus = "handed_over"
)

// RecoveredStatus is the terminal item status written when a claim on the
// item is approved. Lost items are "returned" to their owner; found items
// are "handed_over" to the verified claimant.
func (t ItemType) RecoveredStatus() ItemStatus {
	if t == ItemTypeFound {
		return ItemStatusHandedOver
	}
	return ItemStatusReturned
}

// ClaimStatus is the lifecycle state of a claim.
// pending -> approved | rejected; approved and rejected are terminal.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected
}

// Assignee identifies the maintainer (or the central fallback) responsible
// for an item's custody and claim review, plus where and when an approved
// claimant can collect the item.
type Assignee struct {
	AssignedMaintainerUid  string `firestore:"assignedMaintainerUid" json:"assignedMaintainerUid"`
	AssignedMaintainerName string `firestore:"assignedMaintainerName" json:"assignedMaintainerName"`
	CollectionPoint        string `firestore:"collectionPoint" json:"collectionPoint"`
	OfficeHours            string `firestore:"officeHours" json:"officeHours"`
}

// CentralUid is the synthetic uid used when no maintainer matches an item.
const CentralUid = "CENTRAL"

// CentralAssignee is the fixed fallback when no maintainer matches by
// location or category.
func CentralAssignee() Assignee {
	return Assignee{
		AssignedMaintainerUid:  CentralUid,
		AssignedMaintainerName: "Central Lost & Found",
		CollectionPoint:        "Central Office / Security Desk",
		OfficeHours:            "10:00 AM – 4:00 PM",
	}
}

// Assigned reports whether an actual assignment has been resolved.
func (a Assignee) Assigned() bool {
	return a.AssignedMaintainerUid != ""
}

// Item is a reported lost or found item. Maps to a document in the
// lost_items or found_items collection; ID and Type come from the document
// reference, not from stored fields.
type Item struct {
	ID   string   `firestore:"-" json:"id"`
	Type ItemType `firestore:"-" json:"itemType"`

	Title       string `firestore:"title" json:"title"`
	Category    string `firestore:"category" json:"category"`
	Color       string `firestore:"color,omitempty" json:"color,omitempty"`
	Description string `firestore:"description,omitempty" json:"description,omitempty"`

	// Exactly one of these is set, depending on Type.
	LastSeenLocation string `firestore:"lastSeenLocation,omitempty" json:"lastSeenLocation,omitempty"`
	FoundLocation    string `firestore:"foundLocation,omitempty" json:"foundLocation,omitempty"`

	LostDate  string `firestore:"lostDate,omitempty" json:"lostDate,omitempty"`   // yyyy-mm-dd
	FoundDate string `firestore:"foundDate,omitempty" json:"foundDate,omitempty"` // yyyy-mm-dd

	// SecretProof is the reporter's hidden verification detail (lost items
	// only). Never serialized to API responses.
	SecretProof string `firestore:"secretProof,omitempty" json:"-"`

	ImageData string     `firestore:"imageData,omitempty" json:"imageData,omitempty"` // base64 data URL
	Status    ItemStatus `firestore:"status" json:"status"`

	ReportedBy    string `firestore:"reportedBy" json:"reportedBy"`
	ReporterEmail string `firestore:"reporterEmail,omitempty" json:"reporterEmail,omitempty"`
	ReporterName  string `firestore:"reporterName,omitempty" json:"reporterName,omitempty"`

	Assignee

	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	ReturnedAt time.Time `firestore:"returnedAt,omitempty" json:"returnedAt,omitempty"`
}

// Location returns the item's location regardless of variant.
func (i *Item) Location() string {
	if i.Type == ItemTypeFound {
		return i.FoundLocation
	}
	return i.LastSeenLocation
}

// Claim is a user's assertion of ownership over a reported item. The
// embedded Assignee is a frozen copy of the item's assignment at
// claim-creation time and is never resynchronized.
type Claim struct {
	ID string `firestore:"-" json:"id"`

	ItemType ItemType `firestore:"itemType" json:"itemType"`
	ItemID   string   `firestore:"itemId" json:"itemId"`

	// Denormalized item fields, copied at creation.
	ItemTitle string `firestore:"itemTitle" json:"itemTitle"`
	Category  string `firestore:"category,omitempty" json:"category,omitempty"`
	Location  string `firestore:"location,omitempty" json:"location,omitempty"`

	ClaimantUid   string `firestore:"claimantUid" json:"claimantUid"`
	ClaimantEmail string `firestore:"claimantEmail,omitempty" json:"claimantEmail,omitempty"`
	ProofText     string `firestore:"proofText" json:"proofText"`

	Status ClaimStatus `firestore:"status" json:"status"`

	// Non-empty if and only if Status is rejected.
	RejectedReason string `firestore:"rejectedReason" json:"rejectedReason"`

	Assignee

	VerifiedByUid  string    `firestore:"verifiedByUid,omitempty" json:"verifiedByUid,omitempty"`
	VerifiedByName string    `firestore:"verifiedByName,omitempty" json:"verifiedByName,omitempty"`
	VerifiedAt     time.Time `firestore:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// Decision carries the terminal fields written to a claim when a
// maintainer or admin decides it.
type Decision struct {
	Status         ClaimStatus
	RejectedReason string
	VerifiedByUid  string
	VerifiedByName string
	VerifiedAt     time.Time
}

// User represents a user profile in the users collection. Maintainer
// profiles additionally carry pre-normalized locations/categories and the
// collection point details used by the assignment resolver.
type User struct {
	UID   string `firestore:"-" json:"uid"`
	Name  string `firestore:"name,omitempty" json:"name,omitempty"`
	Email string `firestore:"email,omitempty" json:"email,omitempty"`
	Role  Role   `firestore:"role" json:"role"`

	// Maintainer routing profile (normalized lowercase, whitespace
	// collapsed, non-alphanumerics stripped).
	Locations       []string `firestore:"locations,omitempty" json:"locations,omitempty"`
	Categories      []string `firestore:"categories,omitempty" json:"categories,omitempty"`
	CollectionPoint string   `firestore:"collectionPoint,omitempty" json:"collectionPoint,omitempty"`
	OfficeHours     string   `firestore:"officeHours,omitempty" json:"officeHours,omitempty"`

	Disabled       bool   `firestore:"disabled,omitempty" json:"disabled,omitempty"`
	DisabledReason string `firestore:"disabledReason,omitempty" json:"disabledReason,omitempty"`

	// Registered FCM device tokens, keyed by token to avoid duplicates.
	FcmTokens map[string]bool `firestore:"fcmTokens,omitempty" json:"-"`

	LastLogin time.Time `firestore:"lastLogin,omitempty" json:"lastLogin,omitempty"`
}

// AuditLog is an audit trail entry in the logs collection.
type AuditLog struct {
	ID        string    `firestore:"-" json:"id"`
	Action    string    `firestore:"action" json:"action"`
	Message   string    `firestore:"message" json:"message"`
	ActorUid  string    `firestore:"actorUid" json:"actorUid"`
	TargetUid string    `firestore:"targetUid,omitempty" json:"targetUid,omitempty"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}
