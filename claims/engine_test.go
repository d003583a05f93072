package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/assigner"
	"lostfound/models"
	"lostfound/notify"
)

type fakeStore struct {
	users  map[string]*models.User
	items  map[string]*models.Item
	claims map[string]*models.Claim

	createErr     error
	itemUpdateErr error

	// staleClaimStatus, when set, overrides the status seen by GetClaim
	// so write-time conflict handling can be exercised.
	staleClaimStatus models.ClaimStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*models.User),
		items:  make(map[string]*models.Item),
		claims: make(map[string]*models.Claim),
	}
}

func itemKey(t models.ItemType, id string) string {
	return string(t) + "/" + id
}

func (s *fakeStore) GetUser(_ context.Context, uid string) (*models.User, error) {
	u, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) GetItem(_ context.Context, t models.ItemType, id string) (*models.Item, error) {
	i, ok := s.items[itemKey(t, id)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *i
	return &copied, nil
}

func (s *fakeStore) GetClaim(_ context.Context, id string) (*models.Claim, error) {
	c, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	if s.staleClaimStatus != "" {
		copied.Status = s.staleClaimStatus
	}
	return &copied, nil
}

func (s *fakeStore) CreateClaim(_ context.Context, claim *models.Claim) error {
	if s.createErr != nil {
		return s.createErr
	}
	copied := *claim
	s.claims[claim.ID] = &copied
	return nil
}

func (s *fakeStore) DecideClaim(_ context.Context, id string, d models.Decision) error {
	c, ok := s.claims[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status != models.ClaimStatusPending {
		return ErrNotPending
	}
	c.Status = d.Status
	c.RejectedReason = d.RejectedReason
	c.VerifiedByUid = d.VerifiedByUid
	c.VerifiedByName = d.VerifiedByName
	c.VerifiedAt = d.VerifiedAt
	return nil
}

func (s *fakeStore) MarkItemRecovered(_ context.Context, t models.ItemType, id string) error {
	if s.itemUpdateErr != nil {
		return s.itemUpdateErr
	}
	i, ok := s.items[itemKey(t, id)]
	if !ok {
		return ErrNotFound
	}
	i.Status = t.RecoveredStatus()
	return nil
}

type notifierCall struct {
	kind    string
	actor   string
	role    models.Role
	claimID string
}

type fakeNotifier struct {
	result notify.Result
	calls  []notifierCall
}

func (n *fakeNotifier) ClaimCreated(_ context.Context, actorUid string, actorRole models.Role, claimID string) notify.Result {
	n.calls = append(n.calls, notifierCall{"created", actorUid, actorRole, claimID})
	return n.result
}

func (n *fakeNotifier) ClaimStatus(_ context.Context, actorUid string, actorRole models.Role, claimID string) notify.Result {
	n.calls = append(n.calls, notifierCall{"status", actorUid, actorRole, claimID})
	return n.result
}

func testEnv(t *testing.T) (*fakeStore, *fakeNotifier, *Engine) {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{result: notify.Result{State: notify.Delivered}}
	engine := NewEngine(store, notifier, 0)

	store.users["student-1"] = &models.User{UID: "student-1", Name: "Sam", Email: "sam@campus.example", Role: models.RoleStudent}
	store.users["m1"] = &models.User{UID: "m1", Name: "Library Desk", Role: models.RoleMaintainer}
	store.users["m2"] = &models.User{UID: "m2", Name: "Other Desk", Role: models.RoleMaintainer}
	store.users["admin-1"] = &models.User{UID: "admin-1", Name: "Admin", Role: models.RoleAdmin}

	store.items[itemKey(models.ItemTypeLost, "item-1")] = &models.Item{
		ID:               "item-1",
		Type:             models.ItemTypeLost,
		Title:            "Black Wallet",
		Category:         "Wallet",
		LastSeenLocation: "Library",
		SecretProof:      "torn corner sticker",
		Status:           models.ItemStatusOpen,
		ReportedBy:       "reporter-1",
		Assignee: models.Assignee{
			AssignedMaintainerUid:  "m1",
			AssignedMaintainerName: "Library Desk",
			CollectionPoint:        "Block A",
			OfficeHours:            "9:00 AM – 5:00 PM",
		},
		CreatedAt: time.Now(),
	}

	return store, notifier, engine
}

func createPending(t *testing.T, engine *Engine) string {
	t.Helper()
	id, err := engine.Create(context.Background(), CreateInput{
		ItemType:      models.ItemTypeLost,
		ItemID:        "item-1",
		ClaimantUid:   "student-1",
		ClaimantEmail: "sam@campus.example",
		ProofText:     "it has a torn corner sticker",
	})
	require.NoError(t, err)
	return id
}

func TestCreateValidation(t *testing.T) {
	_, _, engine := testEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"unknown item type", CreateInput{ItemType: "stolen", ItemID: "item-1", ClaimantUid: "student-1", ProofText: "long enough proof text"}},
		{"missing item id", CreateInput{ItemType: models.ItemTypeLost, ClaimantUid: "student-1", ProofText: "long enough proof text"}},
		{"missing claimant", CreateInput{ItemType: models.ItemTypeLost, ItemID: "item-1", ProofText: "long enough proof text"}},
		{"short proof", CreateInput{ItemType: models.ItemTypeLost, ItemID: "item-1", ClaimantUid: "student-1", ProofText: "too short"}},
		{"whitespace proof", CreateInput{ItemType: models.ItemTypeLost, ItemID: "item-1", ClaimantUid: "student-1", ProofText: "         padded     "}},
		{"dangling item", CreateInput{ItemType: models.ItemTypeLost, ItemID: "no-such-item", ClaimantUid: "student-1", ProofText: "it has a torn corner sticker"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Create(ctx, tc.in)
			assert.True(t, IsValidation(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestCreateDisabledClaimant(t *testing.T) {
	store, _, engine := testEnv(t)
	store.users["student-1"].Disabled = true
	store.users["student-1"].DisabledReason = "misuse"

	_, err := engine.Create(context.Background(), CreateInput{
		ItemType:    models.ItemTypeLost,
		ItemID:      "item-1",
		ClaimantUid: "student-1",
		ProofText:   "it has a torn corner sticker",
	})
	assert.True(t, IsPrecondition(err))
}

func TestCreateFreezesSnapshot(t *testing.T) {
	store, notifier, engine := testEnv(t)

	claimID := createPending(t, engine)

	claim := store.claims[claimID]
	require.NotNil(t, claim)
	assert.Equal(t, models.ClaimStatusPending, claim.Status)
	assert.Equal(t, "m1", claim.AssignedMaintainerUid)
	assert.Equal(t, "Block A", claim.CollectionPoint)
	assert.Equal(t, "Black Wallet", claim.ItemTitle)
	assert.Equal(t, "Library", claim.Location)

	// Reassigning the item must not touch the in-flight claim.
	item := store.items[itemKey(models.ItemTypeLost, "item-1")]
	item.AssignedMaintainerUid = "m2"
	item.CollectionPoint = "Block B"

	claim = store.claims[claimID]
	assert.Equal(t, "m1", claim.AssignedMaintainerUid)
	assert.Equal(t, "Block A", claim.CollectionPoint)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "created", notifier.calls[0].kind)
	assert.Equal(t, "student-1", notifier.calls[0].actor)
	assert.Equal(t, claimID, notifier.calls[0].claimID)
}

func TestCreateDefaultsToCentralAssignee(t *testing.T) {
	store, _, engine := testEnv(t)
	store.items[itemKey(models.ItemTypeLost, "item-1")].Assignee = models.Assignee{}

	claimID := createPending(t, engine)

	claim := store.claims[claimID]
	assert.Equal(t, models.CentralAssignee(), claim.Assignee)
}

func TestCreateNotifierFailureIsSwallowed(t *testing.T) {
	store, notifier, engine := testEnv(t)
	notifier.result = notify.Result{State: notify.Failed, Reason: "relay down"}

	claimID := createPending(t, engine)

	assert.NotEmpty(t, claimID)
	assert.Equal(t, models.ClaimStatusPending, store.claims[claimID].Status)
}

func TestDecideValidation(t *testing.T) {
	_, _, engine := testEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   DecideInput
	}{
		{"missing claim id", DecideInput{ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved}},
		{"bad outcome", DecideInput{ClaimID: "c", ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusPending}},
		{"rejection without reason", DecideInput{ClaimID: "c", ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusRejected, RejectedReason: "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.Decide(ctx, tc.in)
			assert.True(t, IsValidation(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestDecideAuthorizationGate(t *testing.T) {
	store, _, engine := testEnv(t)
	ctx := context.Background()
	claimID := createPending(t, engine)

	// A student can never decide. The refusal is both a precondition and
	// an authorization failure.
	err := engine.Decide(ctx, DecideInput{ClaimID: claimID, ActingUid: "student-1", ActingRole: models.RoleStudent, Outcome: models.ClaimStatusApproved})
	assert.True(t, IsPrecondition(err))
	assert.True(t, IsAuthorization(err))

	// A maintainer other than the frozen assignee is refused.
	err = engine.Decide(ctx, DecideInput{ClaimID: claimID, ActingUid: "m2", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved})
	assert.True(t, IsPrecondition(err))
	assert.True(t, IsAuthorization(err))
	assert.Equal(t, models.ClaimStatusPending, store.claims[claimID].Status)

	// An admin decides any claim regardless of assignment.
	err = engine.Decide(ctx, DecideInput{ClaimID: claimID, ActingUid: "admin-1", ActingRole: models.RoleAdmin, Outcome: models.ClaimStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusApproved, store.claims[claimID].Status)
	assert.Equal(t, "admin-1", store.claims[claimID].VerifiedByUid)
	assert.Equal(t, "Admin", store.claims[claimID].VerifiedByName)
}

func TestDecideDisabledActor(t *testing.T) {
	store, _, engine := testEnv(t)
	claimID := createPending(t, engine)

	store.users["m1"].Disabled = true
	err := engine.Decide(context.Background(), DecideInput{ClaimID: claimID, ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved})
	assert.True(t, IsPrecondition(err))
	assert.Equal(t, models.ClaimStatusPending, store.claims[claimID].Status)
}

func TestApprovalMarksItemRecovered(t *testing.T) {
	store, notifier, engine := testEnv(t)
	claimID := createPending(t, engine)

	err := engine.Decide(context.Background(), DecideInput{ClaimID: claimID, ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved})
	require.NoError(t, err)

	claim := store.claims[claimID]
	assert.Equal(t, models.ClaimStatusApproved, claim.Status)
	assert.Empty(t, claim.RejectedReason)
	assert.False(t, claim.VerifiedAt.IsZero())

	item := store.items[itemKey(models.ItemTypeLost, "item-1")]
	assert.Equal(t, models.ItemStatusReturned, item.Status)

	last := notifier.calls[len(notifier.calls)-1]
	assert.Equal(t, "status", last.kind)
	assert.Equal(t, "m1", last.actor)
	assert.Equal(t, claimID, last.claimID)
}

func TestRejectionLeavesItemUntouched(t *testing.T) {
	store, _, engine := testEnv(t)
	claimID := createPending(t, engine)

	err := engine.Decide(context.Background(), DecideInput{
		ClaimID:        claimID,
		ActingUid:      "m1",
		ActingRole:     models.RoleMaintainer,
		Outcome:        models.ClaimStatusRejected,
		RejectedReason: "  proof does not match the hidden detail  ",
	})
	require.NoError(t, err)

	claim := store.claims[claimID]
	assert.Equal(t, models.ClaimStatusRejected, claim.Status)
	assert.Equal(t, "proof does not match the hidden detail", claim.RejectedReason)

	item := store.items[itemKey(models.ItemTypeLost, "item-1")]
	assert.Equal(t, models.ItemStatusOpen, item.Status)
}

func TestDecideIsTerminalOnce(t *testing.T) {
	store, _, engine := testEnv(t)
	ctx := context.Background()
	claimID := createPending(t, engine)

	require.NoError(t, engine.Decide(ctx, DecideInput{ClaimID: claimID, ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved}))

	before := *store.claims[claimID]
	itemBefore := *store.items[itemKey(models.ItemTypeLost, "item-1")]

	// Re-approval, rejection, and admin retries all fail explicitly.
	for _, in := range []DecideInput{
		{ClaimID: claimID, ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved},
		{ClaimID: claimID, ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusRejected, RejectedReason: "changed my mind"},
		{ClaimID: claimID, ActingUid: "admin-1", ActingRole: models.RoleAdmin, Outcome: models.ClaimStatusApproved},
	} {
		err := engine.Decide(ctx, in)
		assert.True(t, IsPrecondition(err), "expected PreconditionError, got %v", err)
	}

	assert.Equal(t, before, *store.claims[claimID])
	assert.Equal(t, itemBefore, *store.items[itemKey(models.ItemTypeLost, "item-1")])
}

func TestDecideMissingClaim(t *testing.T) {
	_, _, engine := testEnv(t)
	err := engine.Decide(context.Background(), DecideInput{ClaimID: "ghost", ActingUid: "admin-1", ActingRole: models.RoleAdmin, Outcome: models.ClaimStatusApproved})
	assert.True(t, IsPrecondition(err))
}

func TestDecideConcurrentLoss(t *testing.T) {
	store, _, engine := testEnv(t)
	claimID := createPending(t, engine)

	// Another actor wins the race between the engine's read and its
	// conditional write: the read still sees pending, the write does not.
	store.claims[claimID].Status = models.ClaimStatusApproved
	store.staleClaimStatus = models.ClaimStatusPending

	err := engine.Decide(context.Background(), DecideInput{ClaimID: claimID, ActingUid: "admin-1", ActingRole: models.RoleAdmin, Outcome: models.ClaimStatusApproved})
	assert.True(t, IsPrecondition(err))
}

func TestDecideItemWriteFailureIsSurfaced(t *testing.T) {
	store, _, engine := testEnv(t)
	claimID := createPending(t, engine)
	store.itemUpdateErr = errors.New("firestore unavailable")

	err := engine.Decide(context.Background(), DecideInput{ClaimID: claimID, ActingUid: "m1", ActingRole: models.RoleMaintainer, Outcome: models.ClaimStatusApproved})
	assert.True(t, IsDependency(err))

	// Documented inconsistency window: claim decided, item not yet marked.
	assert.Equal(t, models.ClaimStatusApproved, store.claims[claimID].Status)
	assert.Equal(t, models.ItemStatusOpen, store.items[itemKey(models.ItemTypeLost, "item-1")].Status)
}

type emptyDirectory struct{}

func (emptyDirectory) FindMaintainerByLocation(context.Context, string) (*models.User, error) {
	return nil, nil
}

func (emptyDirectory) FindMaintainerByCategory(context.Context, string) (*models.User, error) {
	return nil, nil
}

// Full flow: report with no matching maintainer, claim against the
// central fallback, admin approval.
func TestEndToEndCentralFallbackFlow(t *testing.T) {
	store, notifier, engine := testEnv(t)
	ctx := context.Background()

	resolver := assigner.New(emptyDirectory{})
	assignee := resolver.Resolve(ctx, "Library", "Wallet")
	assert.Equal(t, models.CentralAssignee(), assignee)

	store.items[itemKey(models.ItemTypeLost, "wallet-9")] = &models.Item{
		ID:               "wallet-9",
		Type:             models.ItemTypeLost,
		Title:            "Brown Wallet",
		Category:         "Wallet",
		LastSeenLocation: "Library",
		Status:           models.ItemStatusOpen,
		ReportedBy:       "reporter-1",
		Assignee:         assignee,
		CreatedAt:        time.Now(),
	}

	claimID, err := engine.Create(ctx, CreateInput{
		ItemType:      models.ItemTypeLost,
		ItemID:        "wallet-9",
		ClaimantUid:   "student-1",
		ClaimantEmail: "sam@campus.example",
		ProofText:     "has a torn corner sticker",
	})
	require.NoError(t, err)

	claim := store.claims[claimID]
	assert.Equal(t, models.ClaimStatusPending, claim.Status)
	assert.Equal(t, models.CentralAssignee(), claim.Assignee)

	require.NoError(t, engine.Decide(ctx, DecideInput{
		ClaimID:    claimID,
		ActingUid:  "admin-1",
		ActingRole: models.RoleAdmin,
		Outcome:    models.ClaimStatusApproved,
	}))

	assert.Equal(t, models.ClaimStatusApproved, store.claims[claimID].Status)
	assert.Equal(t, models.ItemStatusReturned, store.items[itemKey(models.ItemTypeLost, "wallet-9")].Status)

	last := notifier.calls[len(notifier.calls)-1]
	assert.Equal(t, "status", last.kind)
	assert.Equal(t, claimID, last.claimID)
}

func TestCreateStoreFailure(t *testing.T) {
	store, notifier, engine := testEnv(t)
	store.createErr = errors.New("firestore unavailable")

	_, err := engine.Create(context.Background(), CreateInput{
		ItemType:    models.ItemTypeLost,
		ItemID:      "item-1",
		ClaimantUid: "student-1",
		ProofText:   "it has a torn corner sticker",
	})
	assert.True(t, IsDependency(err))
	assert.Empty(t, notifier.calls, "no notification for a claim that was never persisted")
}
