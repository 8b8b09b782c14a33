// Package roster lists and filters conversation records on top of the
// provider client.
package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/parley-dev/parley/internal/provider"
)

const (
	// listLimit is the page size requested from the provider.
	listLimit = 50
	// maxRecent caps what the repository exposes; callers needing more
	// wait on a paging extension.
	maxRecent = 10
)

// activeStatuses are the lowercased status values that count as active.
// Unknown or empty statuses are never active.
var activeStatuses = map[string]struct{}{
	"active":    {},
	"connected": {},
	"ready":     {},
	"live":      {},
	"running":   {},
}

// Lister is the slice of the provider client the repository needs.
type Lister interface {
	List(ctx context.Context, limit int) ([]provider.Record, error)
}

// Repository retrieves conversation records. It never mutates a record in
// place; every call materializes fresh ones.
type Repository struct {
	client Lister
}

func New(client Lister) *Repository {
	return &Repository{client: client}
}

// Recent returns up to the 10 most recent conversations, newest first.
// Records whose created_at does not parse sort as oldest rather than
// failing the listing; ties keep their input order.
func (r *Repository) Recent(ctx context.Context) ([]provider.Record, error) {
	records, err := r.client.List(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedTime().After(records[j].CreatedTime())
	})

	if len(records) > maxRecent {
		records = records[:maxRecent]
	}
	return records, nil
}

// Active returns the recent conversations whose status counts as active.
func (r *Repository) Active(ctx context.Context) ([]provider.Record, error) {
	records, err := r.Recent(ctx)
	if err != nil {
		return nil, err
	}

	var active []provider.Record
	for _, rec := range records {
		if IsActive(rec) {
			active = append(active, rec)
		}
	}
	return active, nil
}

// Find reports whether id appears in the recent listing, returning the
// listed record when it does.
func (r *Repository) Find(ctx context.Context, id string) (provider.Record, bool, error) {
	records, err := r.Recent(ctx)
	if err != nil {
		return provider.Record{}, false, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return provider.Record{}, false, nil
}

// IsActive reports whether the record's status, lowercased, is one of the
// active set.
func IsActive(rec provider.Record) bool {
	_, ok := activeStatuses[strings.ToLower(rec.Status)]
	return ok
}
