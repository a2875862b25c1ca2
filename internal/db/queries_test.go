package db

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/story"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func testRecord(id string) *story.Record {
	now := time.Now().Unix()
	return &story.Record{
		ID:        id,
		Title:     "Untitled",
		Body:      `{"layers":[1]}`,
		Encoding:  story.EncodingPlain,
		CreatedAt: now,
		ExpiresAt: int64Ptr(now + 86400),
	}
}

func TestInsertAndGetByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("abc1234")
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := s.GetByID(ctx, "abc1234")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ID != rec.ID {
		t.Errorf("ID = %q, want %q", got.ID, rec.ID)
	}
	if got.Title != rec.Title {
		t.Errorf("Title = %q, want %q", got.Title, rec.Title)
	}
	if got.Body != rec.Body {
		t.Errorf("Body = %q, want %q", got.Body, rec.Body)
	}
	if got.Encoding != story.EncodingPlain {
		t.Errorf("Encoding = %q, want %q", got.Encoding, story.EncodingPlain)
	}
	if got.CreatedAt != rec.CreatedAt {
		t.Errorf("CreatedAt = %d, want %d", got.CreatedAt, rec.CreatedAt)
	}
	if got.ExpiresAt == nil || *got.ExpiresAt != *rec.ExpiresAt {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, *rec.ExpiresAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetByID(context.Background(), "zzzzz")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestInsert_NoExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("noexp12")
	rec.ExpiresAt = nil
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := s.GetByID(ctx, "noexp12")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", got.ExpiresAt)
	}
}

func TestInsert_ConflictDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testRecord("dup1234")
	first.Title = "first"
	if err := s.Insert(ctx, first); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	second := testRecord("dup1234")
	second.Title = "second"
	err := s.Insert(ctx, second)
	if !errors.Is(err, errors.ErrConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}

	got, err := s.GetByID(ctx, "dup1234")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "first" {
		t.Errorf("Title = %q, want %q (existing row must survive)", got.Title, "first")
	}
}

func TestGetByID_LegacyNullEncoding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	db, err := s.Conn()
	if err != nil {
		t.Fatalf("Conn failed: %v", err)
	}
	// A row written by a version that predates the encoding column
	_, err = db.Exec(`INSERT INTO stories (id, title, body, encoding, created_at, expires_at)
		VALUES ('old1234', 'Old', '{"layers":[1]}', NULL, 100, NULL)`)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	got, err := s.GetByID(ctx, "old1234")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Encoding != "" {
		t.Errorf("Encoding = %q, want empty for legacy row", got.Encoding)
	}
}

func TestDeleteExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Unix()

	expired := testRecord("gone123")
	expired.ExpiresAt = int64Ptr(now - 10)
	alive := testRecord("live123")
	alive.ExpiresAt = int64Ptr(now + 86400)
	forever := testRecord("keep123")
	forever.ExpiresAt = nil

	for _, rec := range []*story.Record{expired, alive, forever} {
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) failed: %v", rec.ID, err)
		}
	}

	removed, err := s.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := s.GetByID(ctx, "gone123"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expired record still present: %v", err)
	}
	if _, err := s.GetByID(ctx, "live123"); err != nil {
		t.Errorf("live record was removed: %v", err)
	}
	if _, err := s.GetByID(ctx, "keep123"); err != nil {
		t.Errorf("never-expiring record was removed: %v", err)
	}
}

func TestDeleteExpired_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Unix()

	rec := testRecord("once123")
	rec.ExpiresAt = int64Ptr(now - 10)
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	removed, err := s.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("first DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("first sweep removed = %d, want 1", removed)
	}

	removed, err = s.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("second DeleteExpired failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("second sweep removed = %d, want 0", removed)
	}
}

func TestDeleteExpired_BoundaryIsExclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Unix()

	// expires_at == now is not yet expired (predicate is expires_at < now)
	boundary := testRecord("edge123")
	boundary.ExpiresAt = int64Ptr(now)
	if err := s.Insert(ctx, boundary); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	removed, err := s.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}
