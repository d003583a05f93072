package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lostfound/claims"
	"lostfound/models"
)

// Collection names.
const (
	UsersCollection  = "users"
	LostCollection   = "lost_items"
	FoundCollection  = "found_items"
	ClaimsCollection = "claims"
	LogsCollection   = "logs"
)

// FirestoreDB wraps the Firestore client
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB initializes a new Firestore client from the shared
// Firebase app
func NewFirestoreDB(ctx context.Context, app *firebase.App) (*FirestoreDB, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore")

	return &FirestoreDB{client: client}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

func collectionFor(t models.ItemType) string {
	if t == models.ItemTypeFound {
		return FoundCollection
	}
	return LostCollection
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// --- User Operations ---

// GetUser retrieves a user profile by uid
func (db *FirestoreDB) GetUser(ctx context.Context, uid string) (*models.User, error) {
	doc, err := db.client.Collection(UsersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, claims.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	user.UID = doc.Ref.ID

	return &user, nil
}

// SetUser creates or replaces a user profile
func (db *FirestoreDB) SetUser(ctx context.Context, user *models.User) error {
	_, err := db.client.Collection(UsersCollection).Doc(user.UID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}
	return nil
}

// ListUsers retrieves all user profiles
func (db *FirestoreDB) ListUsers(ctx context.Context) ([]models.User, error) {
	iter := db.client.Collection(UsersCollection).Documents(ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}

		var user models.User
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
			continue
		}
		user.UID = doc.Ref.ID
		users = append(users, user)
	}

	return users, nil
}

// UpdateUserRole changes a user's role
func (db *FirestoreDB) UpdateUserRole(ctx context.Context, uid string, role models.Role) error {
	_, err := db.client.Collection(UsersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "role", Value: role},
	})
	if err != nil {
		if notFound(err) {
			return claims.ErrNotFound
		}
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return nil
}

// SetUserDisabled disables or re-enables a user account
func (db *FirestoreDB) SetUserDisabled(ctx context.Context, uid string, disabled bool, reason string) error {
	if !disabled {
		reason = ""
	}
	_, err := db.client.Collection(UsersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "disabled", Value: disabled},
		{Path: "disabledReason", Value: reason},
	})
	if err != nil {
		if notFound(err) {
			return claims.ErrNotFound
		}
		return fmt.Errorf("failed to update user disabled state: %w", err)
	}
	return nil
}

// UpdateMaintainerProfile replaces a maintainer's routing profile. Callers
// must pass locations and categories already normalized.
func (db *FirestoreDB) UpdateMaintainerProfile(ctx context.Context, uid string, locations, categories []string, collectionPoint, officeHours string) error {
	_, err := db.client.Collection(UsersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "locations", Value: locations},
		{Path: "categories", Value: categories},
		{Path: "collectionPoint", Value: collectionPoint},
		{Path: "officeHours", Value: officeHours},
	})
	if err != nil {
		if notFound(err) {
			return claims.ErrNotFound
		}
		return fmt.Errorf("failed to update maintainer profile: %w", err)
	}
	return nil
}

// SaveFcmToken registers a device token under users/{uid}.fcmTokens,
// keyed by token so re-registration is a no-op
func (db *FirestoreDB) SaveFcmToken(ctx context.Context, uid, token string) error {
	_, err := db.client.Collection(UsersCollection).Doc(uid).Set(ctx, map[string]interface{}{
		"fcmTokens":    map[string]bool{token: true},
		"fcmUpdatedAt": time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to save fcm token: %w", err)
	}
	return nil
}

func (db *FirestoreDB) findMaintainer(ctx context.Context, field, value string) (*models.User, error) {
	iter := db.client.Collection(UsersCollection).
		Where("role", "==", string(models.RoleMaintainer)).
		Where(field, "array-contains", value).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query maintainers by %s: %w", field, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse maintainer %s: %w", doc.Ref.ID, err)
	}
	user.UID = doc.Ref.ID

	return &user, nil
}

// FindMaintainerByLocation returns the first maintainer whose locations
// contain the normalized location, or nil when none match
func (db *FirestoreDB) FindMaintainerByLocation(ctx context.Context, location string) (*models.User, error) {
	return db.findMaintainer(ctx, "locations", location)
}

// FindMaintainerByCategory returns the first maintainer whose categories
// contain the normalized category, or nil when none match
func (db *FirestoreDB) FindMaintainerByCategory(ctx context.Context, category string) (*models.User, error) {
	return db.findMaintainer(ctx, "categories", category)
}

// --- Item Operations ---

// CreateItem creates a new item in the collection matching its type
func (db *FirestoreDB) CreateItem(ctx context.Context, item *models.Item) error {
	_, err := db.client.Collection(collectionFor(item.Type)).Doc(item.ID).Set(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by type and id
func (db *FirestoreDB) GetItem(ctx context.Context, itemType models.ItemType, id string) (*models.Item, error) {
	doc, err := db.client.Collection(collectionFor(itemType)).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, claims.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var item models.Item
	if err := doc.DataTo(&item); err != nil {
		return nil, fmt.Errorf("failed to parse item: %w", err)
	}
	item.ID = doc.Ref.ID
	item.Type = itemType
	if item.Title == "" {
		return nil, fmt.Errorf("incomplete item document %s: missing title", id)
	}
	if item.Status == "" {
		return nil, fmt.Errorf("incomplete item document %s: missing status", id)
	}

	return &item, nil
}

func (db *FirestoreDB) listItems(ctx context.Context, itemType models.ItemType, q firestore.Query) ([]models.Item, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var items []models.Item
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate items: %w", err)
		}

		var item models.Item
		if err := doc.DataTo(&item); err != nil {
			log.Printf("Warning: failed to parse item %s: %v", doc.Ref.ID, err)
			continue
		}
		item.ID = doc.Ref.ID
		item.Type = itemType
		items = append(items, item)
	}

	return items, nil
}

// ListOpenItems retrieves open items of one type, newest first
func (db *FirestoreDB) ListOpenItems(ctx context.Context, itemType models.ItemType) ([]models.Item, error) {
	q := db.client.Collection(collectionFor(itemType)).
		Where("status", "==", string(models.ItemStatusOpen)).
		OrderBy("createdAt", firestore.Desc)
	return db.listItems(ctx, itemType, q)
}

// ListItemsByReporter retrieves items reported by one user
func (db *FirestoreDB) ListItemsByReporter(ctx context.Context, itemType models.ItemType, uid string) ([]models.Item, error) {
	q := db.client.Collection(collectionFor(itemType)).
		Where("reportedBy", "==", uid)
	return db.listItems(ctx, itemType, q)
}

// MarkItemRecovered transitions an item to its variant-specific
// pickup-ready status and stamps returnedAt
func (db *FirestoreDB) MarkItemRecovered(ctx context.Context, itemType models.ItemType, id string) error {
	_, err := db.client.Collection(collectionFor(itemType)).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(itemType.RecoveredStatus())},
		{Path: "returnedAt", Value: time.Now()},
	})
	if err != nil {
		if notFound(err) {
			return claims.ErrNotFound
		}
		return fmt.Errorf("failed to mark item recovered: %w", err)
	}
	return nil
}

// --- Claim Operations ---

// CreateClaim creates a new claim
func (db *FirestoreDB) CreateClaim(ctx context.Context, claim *models.Claim) error {
	_, err := db.client.Collection(ClaimsCollection).Doc(claim.ID).Set(ctx, claim)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func claimFromDoc(doc *firestore.DocumentSnapshot) (*models.Claim, error) {
	var claim models.Claim
	if err := doc.DataTo(&claim); err != nil {
		return nil, fmt.Errorf("failed to parse claim: %w", err)
	}
	claim.ID = doc.Ref.ID
	if claim.ItemID == "" || !claim.ItemType.Valid() {
		return nil, fmt.Errorf("incomplete claim document %s: missing item reference", doc.Ref.ID)
	}
	if claim.ClaimantUid == "" {
		return nil, fmt.Errorf("incomplete claim document %s: missing claimant", doc.Ref.ID)
	}
	return &claim, nil
}

// GetClaim retrieves a claim by id
func (db *FirestoreDB) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	doc, err := db.client.Collection(ClaimsCollection).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, claims.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claimFromDoc(doc)
}

func (db *FirestoreDB) listClaims(ctx context.Context, q firestore.Query) ([]models.Claim, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []models.Claim
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate claims: %w", err)
		}

		claim, err := claimFromDoc(doc)
		if err != nil {
			log.Printf("Warning: skipping claim %s: %v", doc.Ref.ID, err)
			continue
		}
		out = append(out, *claim)
	}

	return out, nil
}

// ListClaimsByClaimant retrieves all claims filed by one user
func (db *FirestoreDB) ListClaimsByClaimant(ctx context.Context, uid string) ([]models.Claim, error) {
	q := db.client.Collection(ClaimsCollection).Where("claimantUid", "==", uid)
	return db.listClaims(ctx, q)
}

// ListClaimsByMaintainer retrieves all claims whose frozen assignment
// points at one maintainer
func (db *FirestoreDB) ListClaimsByMaintainer(ctx context.Context, uid string) ([]models.Claim, error) {
	q := db.client.Collection(ClaimsCollection).Where("assignedMaintainerUid", "==", uid)
	return db.listClaims(ctx, q)
}

// ListAllClaims retrieves every claim (admin view / export)
func (db *FirestoreDB) ListAllClaims(ctx context.Context) ([]models.Claim, error) {
	return db.listClaims(ctx, db.client.Collection(ClaimsCollection).Query)
}

// DecideClaim writes the terminal claim fields inside a transaction that
// re-reads the claim and fails with claims.ErrNotPending unless the claim
// is still pending at commit time. This closes the lost-update race
// between two concurrent decisions.
func (db *FirestoreDB) DecideClaim(ctx context.Context, id string, d models.Decision) error {
	ref := db.client.Collection(ClaimsCollection).Doc(id)

	err := db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if notFound(err) {
				return claims.ErrNotFound
			}
			return err
		}

		current, err := doc.DataAt("status")
		if err != nil {
			return fmt.Errorf("claim %s has no status: %w", id, err)
		}
		if s, _ := current.(string); s != string(models.ClaimStatusPending) {
			return claims.ErrNotPending
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(d.Status)},
			{Path: "rejectedReason", Value: d.RejectedReason},
			{Path: "verifiedByUid", Value: d.VerifiedByUid},
			{Path: "verifiedByName", Value: d.VerifiedByName},
			{Path: "verifiedAt", Value: d.VerifiedAt},
		})
	})
	if errors.Is(err, claims.ErrNotFound) || errors.Is(err, claims.ErrNotPending) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to decide claim: %w", err)
	}
	return nil
}

// --- Audit Log Operations ---

// AppendAuditLog writes an audit log entry
func (db *FirestoreDB) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	_, err := db.client.Collection(LogsCollection).Doc(entry.ID).Set(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// ListAuditLogs retrieves the most recent audit entries, newest first
func (db *FirestoreDB) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	iter := db.client.Collection(LogsCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var entries []models.AuditLog
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
		}

		var entry models.AuditLog
		if err := doc.DataTo(&entry); err != nil {
			log.Printf("Warning: failed to parse audit log %s: %v", doc.Ref.ID, err)
			continue
		}
		entry.ID = doc.Ref.ID
		entries = append(entries, entry)
	}

	return entries, nil
}
