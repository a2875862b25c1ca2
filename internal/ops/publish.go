// Package ops implements the store's operations: publish, resolve and
// sweep. Each operation composes the validator, the codec, the id
// generator and the durable store; nothing here talks to the network.
package ops

import (
	"context"
	"time"

	"github.com/hpungsan/storydrop/internal/codec"
	"github.com/hpungsan/storydrop/internal/config"
	"github.com/hpungsan/storydrop/internal/db"
	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/ids"
	"github.com/hpungsan/storydrop/internal/ratelimit"
	"github.com/hpungsan/storydrop/internal/story"
)

// PublishInput contains parameters for the Publish operation.
type PublishInput struct {
	// Raw is the caller-supplied document JSON, uninterpreted.
	Raw []byte

	// Origin identifies the publishing client for admission limiting.
	Origin string
}

// PublishOutput is the handle returned to a publisher.
type PublishOutput struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

// Publish validates, encodes and persists a document, returning its
// handle. The document is write-once: no operation ever modifies it.
func Publish(ctx context.Context, store *db.Store, cfg *config.Config, limiter *ratelimit.Limiter, input PublishInput) (*PublishOutput, error) {
	if limiter != nil && !limiter.Allow(input.Origin) {
		return nil, errors.NewRateLimited()
	}

	v, err := story.Validate(input.Raw, cfg)
	if err != nil {
		return nil, err
	}

	body, tag, err := codec.Encode(v.Canonical)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	// The ceiling applies to what is actually stored, so a document that
	// compresses well may be much larger than the limit in raw form.
	if err := codec.CheckSize(len(v.Canonical), len(body), cfg.MaxEncodedBytes); err != nil {
		return nil, err
	}

	id, err := ids.New()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	expiresAt := now + v.TTLSeconds()

	rec := &story.Record{
		ID:        id,
		Title:     v.Title,
		Body:      body,
		Encoding:  tag,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}

	if err := store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return &PublishOutput{
		ID:        id,
		ExpiresAt: expiresAt,
	}, nil
}
