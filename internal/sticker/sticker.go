// Package sticker owns the per-owner sticker collection: id assignment,
// listing, deletion, and fuzzy search.
package sticker

import (
	"context"
	"errors"
	"fmt"
)

// SearchThreshold is the minimum partial-ratio score (exclusive) a stored
// name must reach against the query to count as a match.
const SearchThreshold = 90

// Sticker is one row of an owner's collection. LocalID is assigned
// sequentially per owner starting at 1 and is never reused after deletion,
// so collections may have gaps. Ref is the opaque platform file id; it is
// stored and passed through, never interpreted.
type Sticker struct {
	OwnerID int64  `db:"owner_id"`
	LocalID int64  `db:"local_id"`
	Name    string `db:"display_name"`
	Ref     string `db:"sticker_ref"`
}

// Match pairs a sticker with its search score.
type Match struct {
	Sticker
	Score int
}

// StorageError wraps an underlying persistence failure. It is fatal to the
// enclosing request only; callers surface it to the operator via logs and
// keep the session alive.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sticker store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err chains to a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Store is the persistence contract for sticker collections. Mutations for
// the same owner are expected to be serialized by the caller's session;
// reads may run concurrently with each other.
type Store interface {
	// Insert persists a new sticker under the next free local id for the
	// owner (max+1, starting at 1) and returns that id.
	Insert(ctx context.Context, owner int64, name, ref string) (int64, error)

	// List returns the owner's stickers ordered by local id ascending.
	List(ctx context.Context, owner int64) ([]Sticker, error)

	// Delete removes the sticker matching both owner and local id. It
	// reports false when no such row exists.
	Delete(ctx context.Context, owner, localID int64) (bool, error)

	// Search scores the query against every stored name of the owner and
	// returns matches above SearchThreshold, best score first.
	Search(ctx context.Context, owner int64, query string) ([]Match, error)

	// Count returns the total number of stored stickers across all owners.
	Count(ctx context.Context) (int64, error)
}
