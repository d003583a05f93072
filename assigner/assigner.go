// Package assigner routes a reported item to the maintainer responsible
// for it, matching first by location, then by category, then falling back
// to the central office. Assignment must never fail item reporting, so
// lookup errors degrade to the next tier instead of propagating.
package assigner

import (
	"context"
	"log"
	"strings"

	"lostfound/models"
)

// Directory looks up maintainer profiles. Lookups receive pre-normalized
// values and return (nil, nil) when nothing matches. Implemented by
// db.FirestoreDB.
type Directory interface {
	FindMaintainerByLocation(ctx context.Context, location string) (*models.User, error)
	FindMaintainerByCategory(ctx context.Context, category string) (*models.User, error)
}

// Normalize canonicalizes a location or category for matching: trim,
// lowercase, collapse runs of whitespace, strip everything outside
// [a-z0-9 ]. Stripping and collapsing happen in one pass, so punctuation
// surrounded by spaces folds into a single space ("a - b" -> "a b") rather
// than leaving the double space a collapse-then-strip order would.
// Maintainer profiles store their locations/categories already normalized
// this way.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			space = b.Len() > 0
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolver picks an assignee for a reported item.
type Resolver struct {
	dir Directory
}

// New creates a Resolver over the given maintainer directory.
func New(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve determines the assignee for an item's location and category.
// Tiers, first match wins:
//
//  1. maintainer whose locations contain the normalized location
//  2. maintainer whose categories contain the normalized category
//  3. the fixed central fallback
//
// Resolve never fails; directory errors are logged and treated as "no
// match" for that tier.
func (r *Resolver) Resolve(ctx context.Context, location, category string) models.Assignee {
	loc := Normalize(location)
	cat := Normalize(category)

	if loc != "" {
		m, err := r.dir.FindMaintainerByLocation(ctx, loc)
		if err != nil {
			log.Printf("⚠️  Maintainer lookup by location %q failed: %v", loc, err)
		} else if m != nil {
			return assigneeFromProfile(m)
		}
	}

	if cat != "" {
		m, err := r.dir.FindMaintainerByCategory(ctx, cat)
		if err != nil {
			log.Printf("⚠️  Maintainer lookup by category %q failed: %v", cat, err)
		} else if m != nil {
			return assigneeFromProfile(m)
		}
	}

	return models.CentralAssignee()
}

func assigneeFromProfile(m *models.User) models.Assignee {
	a := models.Assignee{
		AssignedMaintainerUid:  m.UID,
		AssignedMaintainerName: m.Name,
		CollectionPoint:        m.CollectionPoint,
		OfficeHours:            m.OfficeHours,
	}
	if a.AssignedMaintainerName == "" {
		a.AssignedMaintainerName = "Maintainer"
	}
	if a.CollectionPoint == "" {
		a.CollectionPoint = "Maintainer Office"
	}
	if a.OfficeHours == "" {
		a.OfficeHours = "10:00 AM – 4:00 PM"
	}
	return a
}
