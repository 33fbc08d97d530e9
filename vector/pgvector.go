package vector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/logging"
)

// PgVectorStore is a PostgreSQL-based card store using pgvector for
// cosine-distance retrieval.
type PgVectorStore struct {
	db        *sql.DB
	dimension int
}

// NewPgVectorStore creates a new pgvector-based store. The dimension
// parameter is the embedding dimension (e.g. 384 for MiniLM).
func NewPgVectorStore(dsn string, dimension int) (*PgVectorStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PgVectorStore{db: db, dimension: dimension}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PgVectorStore) migrate() error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			title TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			original_url TEXT NOT NULL DEFAULT '',
			data_payload JSONB DEFAULT '{}',
			quality DOUBLE PRECISION NOT NULL DEFAULT 0,
			bias_score DOUBLE PRECISION,
			constructiveness_score DOUBLE PRECISION,
			blindspot_tags JSONB DEFAULT '[]',
			embedding vector(%d),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_cards_embedding ON cards USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_quality_created ON cards (quality DESC, created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// Upsert stores cards, updating existing ones by ID.
func (s *PgVectorStore) Upsert(ctx context.Context, cards []card.Card) error {
	for _, c := range cards {
		payload, err := json.Marshal(c.DataPayload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		tags, err := json.Marshal(c.BlindspotTags)
		if err != nil {
			return fmt.Errorf("marshal blindspot tags: %w", err)
		}

		var embedding any
		if len(c.Embedding) > 0 {
			embedding = formatEmbedding(c.Embedding)
		}

		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO cards (id, source_type, title, summary, original_url, data_payload,
				quality, bias_score, constructiveness_score, blindspot_tags, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				source_type = EXCLUDED.source_type,
				title = EXCLUDED.title,
				summary = EXCLUDED.summary,
				original_url = EXCLUDED.original_url,
				data_payload = EXCLUDED.data_payload,
				quality = EXCLUDED.quality,
				bias_score = EXCLUDED.bias_score,
				constructiveness_score = EXCLUDED.constructiveness_score,
				blindspot_tags = EXCLUDED.blindspot_tags,
				embedding = EXCLUDED.embedding
		`, c.ID, string(c.SourceType), c.Title, c.Summary, c.OriginalURL, payload,
			c.Quality, c.BiasScore, c.ConstructivenessScore, tags, embedding, createdAt)
		if err != nil {
			return fmt.Errorf("upsert card: %w", err)
		}
	}
	return nil
}

// Get returns a single card by ID.
func (s *PgVectorStore) Get(ctx context.Context, id string) (card.Card, error) {
	row := s.db.QueryRowContext(ctx, cardColumns+` FROM cards WHERE id = $1`, id)

	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return card.Card{}, ErrNotFound
	}
	if err != nil {
		return card.Card{}, fmt.Errorf("query card: %w", err)
	}
	return c, nil
}

// QueryCandidates returns serendipity-zone candidates, newest first,
// with distances computed by pgvector's cosine operator.
func (s *PgVectorStore) QueryCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	if q.Context == nil {
		recent, err := s.Recent(ctx, RecentQuery{QualityFloor: q.QualityFloor, ExcludeIDs: q.ExcludeIDs, Limit: q.Limit})
		if err != nil {
			return nil, err
		}
		return recent, nil
	}

	contextStr := formatEmbedding(q.Context)

	rows, err := s.db.QueryContext(ctx, cardColumns+`, embedding <=> $1 AS distance
		FROM cards
		WHERE embedding IS NOT NULL
		  AND quality >= $2
		  AND (embedding <=> $1) BETWEEN $3 AND $4
		  AND NOT (id = ANY($5))
		ORDER BY created_at DESC
		LIMIT $6
	`, contextStr, q.QualityFloor, q.MinDistance, q.MaxDistance, pgTextArray(q.ExcludeIDs), nonZeroLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var results []Candidate
	for rows.Next() {
		var cand Candidate
		if err := scanCandidate(rows, &cand); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		results = append(results, cand)
	}

	return results, rows.Err()
}

// Recent returns eligible cards ranked by quality descending, then
// recency.
func (s *PgVectorStore) Recent(ctx context.Context, q RecentQuery) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, cardColumns+`, 0::double precision AS distance
		FROM cards
		WHERE quality >= $1
		  AND NOT (id = ANY($2))
		ORDER BY quality DESC, created_at DESC
		LIMIT $3
	`, q.QualityFloor, pgTextArray(q.ExcludeIDs), nonZeroLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var results []Candidate
	for rows.Next() {
		var cand Candidate
		if err := scanCandidate(rows, &cand); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		results = append(results, cand)
	}

	return results, rows.Err()
}

// Vectors returns embeddings for the given IDs in input order, dropping
// unknown IDs and cards without embeddings.
func (s *PgVectorStore) Vectors(ctx context.Context, ids []string) ([][]float64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding::text FROM cards
		WHERE id = ANY($1) AND embedding IS NOT NULL
	`, pgTextArray(ids))
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	byID := make(map[string][]float64, len(ids))
	for rows.Next() {
		var id, embeddingStr string
		if err := rows.Scan(&id, &embeddingStr); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		byID[id] = parseEmbedding(embeddingStr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float64, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok && len(v) > 0 {
			vectors = append(vectors, v)
		} else {
			logging.Warn().Str("card_id", id).Msg("recent-read id has no stored embedding, dropped from context")
		}
	}
	return vectors, nil
}

// Delete removes cards by ID.
func (s *PgVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ANY($1)`, pgTextArray(ids))
	return err
}

// Close closes the database connection.
func (s *PgVectorStore) Close() error {
	return s.db.Close()
}

const cardColumns = `SELECT id, source_type, title, summary, original_url, data_payload,
	quality, bias_score, constructiveness_score, blindspot_tags, embedding::text, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (card.Card, error) {
	var c card.Card
	var sourceType string
	var payload, tags []byte
	var embeddingStr sql.NullString

	err := row.Scan(&c.ID, &sourceType, &c.Title, &c.Summary, &c.OriginalURL, &payload,
		&c.Quality, &c.BiasScore, &c.ConstructivenessScore, &tags, &embeddingStr, &c.CreatedAt)
	if err != nil {
		return c, err
	}

	c.SourceType = card.SourceType(sourceType)
	if len(payload) > 0 {
		json.Unmarshal(payload, &c.DataPayload)
	}
	if len(tags) > 0 {
		json.Unmarshal(tags, &c.BlindspotTags)
	}
	if embeddingStr.Valid {
		c.Embedding = parseEmbedding(embeddingStr.String)
	}
	return c, nil
}

func scanCandidate(row rowScanner, cand *Candidate) error {
	var c card.Card
	var sourceType string
	var payload, tags []byte
	var embeddingStr sql.NullString

	err := row.Scan(&c.ID, &sourceType, &c.Title, &c.Summary, &c.OriginalURL, &payload,
		&c.Quality, &c.BiasScore, &c.ConstructivenessScore, &tags, &embeddingStr, &c.CreatedAt,
		&cand.Distance)
	if err != nil {
		return err
	}

	c.SourceType = card.SourceType(sourceType)
	if len(payload) > 0 {
		json.Unmarshal(payload, &c.DataPayload)
	}
	if len(tags) > 0 {
		json.Unmarshal(tags, &c.BlindspotTags)
	}
	if embeddingStr.Valid {
		c.Embedding = parseEmbedding(embeddingStr.String)
	}
	cand.Card = c
	return nil
}

// pgTextArray always passes a non-nil slice so `id = ANY($n)` is false
// for an empty exclusion list rather than NULL.
func pgTextArray(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// nonZeroLimit maps "no cap" to LIMIT NULL.
func nonZeroLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

// formatEmbedding converts a float64 slice to pgvector format: "[0.1,0.2,0.3]"
func formatEmbedding(embedding []float64) string {
	if len(embedding) == 0 {
		return ""
	}

	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseEmbedding converts pgvector format back to float64 slice.
func parseEmbedding(s string) []float64 {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]float64, len(parts))
	for i, p := range parts {
		fmt.Sscanf(strings.TrimSpace(p), "%f", &result[i])
	}
	return result
}
