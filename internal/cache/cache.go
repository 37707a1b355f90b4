package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Store caches family analysis results keyed by a fingerprint of the
// document set, so re-analyzing the same documents skips the LLM round trip.
type Store struct {
	db     *sqlx.DB
	ttl    time.Duration
	logger *utils.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type cacheRow struct {
	Fingerprint   string    `db:"fingerprint"`
	ResultJSON    string    `db:"result_json"`
	DocumentCount int       `db:"document_count"`
	CreatedAt     time.Time `db:"created_at"`
	ExpiresAt     time.Time `db:"expires_at"`
}

func NewStore(db *sqlx.DB, ttlHours int, logger *utils.Logger) *Store {
	return &Store{
		db:     db,
		ttl:    time.Duration(ttlHours) * time.Hour,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Fingerprint derives a stable key from the document identifiers and the
// user's context. Order of documents does not matter.
func Fingerprint(docIDs []string, userContext string) string {
	sorted := make([]string, len(docIDs))
	copy(sorted, docIDs)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(strings.Join(sorted, "\x00")))
	h.Write([]byte{0x00})
	h.Write([]byte(userContext))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached analysis, or nil when absent or expired.
func (s *Store) Get(ctx context.Context, fingerprint string) (*models.FamilyAnalysisResult, error) {
	var row cacheRow
	err := s.db.GetContext(ctx, &row,
		`SELECT fingerprint, result_json, document_count, created_at, expires_at
		 FROM analysis_cache WHERE fingerprint = ?`, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis cache: %w", err)
	}

	if time.Now().After(row.ExpiresAt) {
		// Lazy eviction; a miss is cheaper than a background sweeper.
		if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE fingerprint = ?`, fingerprint); err != nil {
			s.logger.Warn("failed to evict expired cache entry", "error", err)
		}
		return nil, nil
	}

	var result models.FamilyAnalysisResult
	if err := json.Unmarshal([]byte(row.ResultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &result, nil
}

// Put stores an analysis result under the fingerprint, replacing any
// previous entry.
func (s *Store) Put(ctx context.Context, fingerprint string, result *models.FamilyAnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis for cache: %w", err)
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_cache (fingerprint, result_json, document_count, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
		   result_json = excluded.result_json,
		   document_count = excluded.document_count,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		fingerprint, string(payload), result.DocumentCount, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("failed to write analysis cache: %w", err)
	}
	return nil
}

// Lock serializes analyses of the same document set. The caller must call
// the returned unlock function.
func (s *Store) Lock(fingerprint string) func() {
	s.mu.Lock()
	m, ok := s.locks[fingerprint]
	if !ok {
		m = &sync.Mutex{}
		s.locks[fingerprint] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
