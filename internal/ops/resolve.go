package ops

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hpungsan/storydrop/internal/codec"
	"github.com/hpungsan/storydrop/internal/db"
	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/ids"
)

// ResolveInput contains parameters for the Resolve operation.
type ResolveInput struct {
	ID string
}

// ResolveOutput contains the decoded story.
type ResolveOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Document any    `json:"document"`
}

// Resolve retrieves and decodes a published story. Ill-shaped ids are
// rejected before any storage access. A record past its expiry resolves
// as GONE even if the sweeper has not removed it yet; resolve and the
// sweeper share the same expiry predicate.
func Resolve(ctx context.Context, store *db.Store, input ResolveInput) (*ResolveOutput, error) {
	if !ids.Valid(input.ID) {
		return nil, errors.NewInvalidRequest("id must be 5-20 URL-safe characters")
	}

	rec, err := store.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if rec.Expired(time.Now().Unix()) {
		return nil, errors.NewGone(rec.ID)
	}

	canonical, err := codec.Decode(rec.Body, rec.Encoding)
	if err != nil {
		// Logged with the cause for diagnosis; the caller gets a generic
		// server fault, never the stored bytes.
		log.Printf("corrupt record %s (encoding %q): %v", rec.ID, rec.Encoding, err)
		return nil, errors.NewCorruptRecord(rec.ID, err)
	}

	var doc any
	if err := json.Unmarshal(canonical, &doc); err != nil {
		log.Printf("corrupt record %s: decoded body does not parse: %v", rec.ID, err)
		return nil, errors.NewCorruptRecord(rec.ID, err)
	}

	return &ResolveOutput{
		ID:       rec.ID,
		Title:    rec.Title,
		Document: doc,
	}, nil
}
