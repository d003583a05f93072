package assigner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"lostfound/models"
)

type fakeDirectory struct {
	byLocation map[string]*models.User
	byCategory map[string]*models.User

	locationErr error
	categoryErr error

	locationQueries []string
	categoryQueries []string
}

func (d *fakeDirectory) FindMaintainerByLocation(_ context.Context, location string) (*models.User, error) {
	d.locationQueries = append(d.locationQueries, location)
	if d.locationErr != nil {
		return nil, d.locationErr
	}
	return d.byLocation[location], nil
}

func (d *fakeDirectory) FindMaintainerByCategory(_ context.Context, category string) (*models.User, error) {
	d.categoryQueries = append(d.categoryQueries, category)
	if d.categoryErr != nil {
		return nil, d.categoryErr
	}
	return d.byCategory[category], nil
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Library", "library"},
		{"  Main   Library  ", "main library"},
		{"Block-B, Floor 2!", "blockb floor 2"},
		{"a - b", "a b"},
		{"CAFETERIA\t\nWing", "cafeteria wing"},
		{"***", ""},
		{"", ""},
		{"id card #42", "id card 42"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestResolveLocationTierWins(t *testing.T) {
	libraryDesk := &models.User{
		UID:             "m-lib",
		Name:            "Library Desk",
		Role:            models.RoleMaintainer,
		CollectionPoint: "Library Front Desk",
		OfficeHours:     "9:00 AM – 5:00 PM",
	}
	walletDesk := &models.User{UID: "m-wallet", Name: "Valuables", Role: models.RoleMaintainer}

	dir := &fakeDirectory{
		byLocation: map[string]*models.User{"library": libraryDesk},
		byCategory: map[string]*models.User{"wallet": walletDesk},
	}
	r := New(dir)

	got := r.Resolve(context.Background(), "Library", "Wallet")
	assert.Equal(t, "m-lib", got.AssignedMaintainerUid)
	assert.Equal(t, "Library Front Desk", got.CollectionPoint)
	// Category tier is never reached when location matches.
	assert.Empty(t, dir.categoryQueries)
}

func TestResolveCategoryTier(t *testing.T) {
	walletDesk := &models.User{UID: "m-wallet", Name: "Valuables", Role: models.RoleMaintainer}
	dir := &fakeDirectory{
		byLocation: map[string]*models.User{},
		byCategory: map[string]*models.User{"wallet": walletDesk},
	}
	r := New(dir)

	got := r.Resolve(context.Background(), "Nowhere", "Wallet")
	assert.Equal(t, "m-wallet", got.AssignedMaintainerUid)
	assert.Equal(t, []string{"nowhere"}, dir.locationQueries)
	assert.Equal(t, []string{"wallet"}, dir.categoryQueries)
}

func TestResolveCentralFallback(t *testing.T) {
	r := New(&fakeDirectory{})

	got := r.Resolve(context.Background(), "Nowhere", "Nothing")
	assert.Equal(t, models.Assignee{
		AssignedMaintainerUid:  "CENTRAL",
		AssignedMaintainerName: "Central Lost & Found",
		CollectionPoint:        "Central Office / Security Desk",
		OfficeHours:            "10:00 AM – 4:00 PM",
	}, got)
}

func TestResolveEmptyInputsSkipLookups(t *testing.T) {
	dir := &fakeDirectory{}
	r := New(dir)

	got := r.Resolve(context.Background(), "  ", "!!!")
	assert.Equal(t, models.CentralAssignee(), got)
	assert.Empty(t, dir.locationQueries)
	assert.Empty(t, dir.categoryQueries)
}

func TestResolveLookupErrorsDegrade(t *testing.T) {
	walletDesk := &models.User{UID: "m-wallet", Name: "Valuables", Role: models.RoleMaintainer}
	dir := &fakeDirectory{
		byCategory:  map[string]*models.User{"wallet": walletDesk},
		locationErr: errors.New("index missing"),
	}
	r := New(dir)

	// Location tier fails, category tier still matches.
	got := r.Resolve(context.Background(), "Library", "Wallet")
	assert.Equal(t, "m-wallet", got.AssignedMaintainerUid)

	// Both tiers failing falls back to central.
	dir.categoryErr = errors.New("index missing")
	got = r.Resolve(context.Background(), "Library", "Wallet")
	assert.Equal(t, models.CentralAssignee(), got)
}

func TestResolveProfileDefaults(t *testing.T) {
	bare := &models.User{UID: "m-bare", Role: models.RoleMaintainer}
	dir := &fakeDirectory{byLocation: map[string]*models.User{"gym": bare}}
	r := New(dir)

	got := r.Resolve(context.Background(), "Gym", "")
	assert.Equal(t, "m-bare", got.AssignedMaintainerUid)
	assert.Equal(t, "Maintainer", got.AssignedMaintainerName)
	assert.Equal(t, "Maintainer Office", got.CollectionPoint)
	assert.Equal(t, "10:00 AM – 4:00 PM", got.OfficeHours)
}
