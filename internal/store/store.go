// Package store persists datasets. FileStore keeps one JSON document per
// dataset on disk; MemoryStore backs tests.
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
)

// DatasetStore is the persistence collaborator of the CLI.
type DatasetStore interface {
	// List returns the datasets of userID, newest first. An empty projectID
	// matches every project.
	List(ctx context.Context, userID, projectID string) ([]dataset.Dataset, error)
	// Get returns nil and no error when id is unknown.
	Get(ctx context.Context, id string) (*dataset.Dataset, error)
	// Save stores ds and returns its id, assigning a new one when empty.
	Save(ctx context.Context, ds dataset.Dataset) (string, error)
	// Update applies the set fields of p. Unknown ids give errs.ErrNotFound.
	Update(ctx context.Context, id string, p Patch) error
	Delete(ctx context.Context, id string) error
	// Search matches term case-insensitively against name and type.
	Search(ctx context.Context, userID, term string) ([]dataset.Dataset, error)
}

// Patch lists the mutable dataset fields. Nil fields are left untouched.
type Patch struct {
	Name                *string
	Data                []dataset.Record
	Normalized          *bool
	NormalizationMethod *dataset.Method
}

// NormalizedPatch is the patch that persists a normalization result.
func NormalizedPatch(ds dataset.Dataset) Patch {
	normalized := ds.Normalized
	method := ds.NormalizationMethod
	return Patch{Data: ds.Data, Normalized: &normalized, NormalizationMethod: &method}
}

// DataPatch replaces the rows only.
func DataPatch(data []dataset.Record) Patch {
	return Patch{Data: data}
}

func (p Patch) apply(ds *dataset.Dataset, now time.Time) {
	if p.Name != nil {
		ds.Name = *p.Name
	}
	if p.Data != nil {
		ds.Data = dataset.CloneRecords(p.Data)
	}
	if p.Normalized != nil {
		ds.Normalized = *p.Normalized
	}
	if p.NormalizationMethod != nil {
		ds.NormalizationMethod = *p.NormalizationMethod
	}
	ds.UpdatedAt = now
}

// prepare fills id and timestamps for a dataset about to be saved.
func prepare(ds dataset.Dataset, now time.Time) dataset.Dataset {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now
	return ds
}

func matchesUser(ds dataset.Dataset, userID string) bool {
	return userID == "" || ds.UserID == userID
}

func matchesTerm(ds dataset.Dataset, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ds.Name), term) ||
		strings.Contains(strings.ToLower(string(ds.Type)), term)
}

func newestFirst(out []dataset.Dataset) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
