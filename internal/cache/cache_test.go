package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"doc-1", "doc-2"}, "context")
	b := Fingerprint([]string{"doc-2", "doc-1"}, "context")
	if a != b {
		t.Error("fingerprint must be independent of document order")
	}

	if Fingerprint([]string{"doc-1", "doc-2"}, "other context") == a {
		t.Error("fingerprint must depend on user context")
	}
	if Fingerprint([]string{"doc-1"}, "context") == a {
		t.Error("fingerprint must depend on the document set")
	}
	if Fingerprint([]string{"doc-1", "doc-2"}, "context") != a {
		t.Error("fingerprint must be stable across calls")
	}
}

func newTestStore(t *testing.T, ttlHours int) *Store {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.MustExec(`CREATE TABLE analysis_cache (
		fingerprint TEXT PRIMARY KEY,
		result_json TEXT NOT NULL,
		document_count INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL
	)`)

	return NewStore(conn, ttlHours, utils.NewLogger("error"))
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t, 24)
	ctx := context.Background()

	key := Fingerprint([]string{"doc-1"}, "")
	result := &models.FamilyAnalysisResult{
		FamilyType:      "newsletter",
		DocumentCount:   3,
		RecommendedBase: "fall.docx",
		Confidence:      0.8,
	}

	if got, err := store.Get(ctx, key); err != nil || got != nil {
		t.Fatalf("expected empty cache, got %v, %v", got, err)
	}

	if err := store.Put(ctx, key, result); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.FamilyType != "newsletter" || got.DocumentCount != 3 {
		t.Errorf("unexpected cached result %+v", got)
	}

	// Overwrite replaces the entry.
	result.Confidence = 0.95
	if err := store.Put(ctx, key, result); err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	got, _ = store.Get(ctx, key)
	if got.Confidence != 0.95 {
		t.Errorf("expected overwritten entry, got confidence %v", got.Confidence)
	}
}

func TestStoreExpiry(t *testing.T) {
	store := newTestStore(t, 24)
	ctx := context.Background()

	key := Fingerprint([]string{"doc-1"}, "")
	if err := store.Put(ctx, key, &models.FamilyAnalysisResult{FamilyType: "memo"}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Force the entry into the past.
	store.db.MustExec(`UPDATE analysis_cache SET expires_at = ?`, time.Now().Add(-time.Hour))

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("expired entry must read as a miss")
	}

	var count int
	if err := store.db.Get(&count, `SELECT COUNT(*) FROM analysis_cache`); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Error("expired entry should be evicted on read")
	}
}

func TestStoreLock(t *testing.T) {
	store := newTestStore(t, 24)

	unlock := store.Lock("key-a")
	done := make(chan struct{})
	go func() {
		u := store.Lock("key-a")
		u()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after unlock")
	}

	// Different keys do not contend.
	u := store.Lock("key-b")
	u()
}
