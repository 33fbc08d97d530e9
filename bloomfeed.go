// Package bloomfeed provides a serendipity-based feed curation engine:
// given a viewer's recent reading, it selects content that is different
// enough to be novel but close enough to be understood, labels each
// pick with the reason it surfaced, interleaves sources, and rations a
// bounded daily allotment.
//
// Example usage:
//
//	cards := bloomfeed.NewMemoryCardStore()
//	quotas := bloomfeed.NewMemoryQuotaStore()
//	engine, err := bloomfeed.NewEngine(cards, quotas, bloomfeed.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	feed, err := engine.GenerateFeed(ctx, bloomfeed.FeedRequest{
//	    ViewerID:      "viewer-1",
//	    RecentReadIDs: []string{"card-a", "card-b"},
//	    Limit:         10,
//	})
package bloomfeed

import (
	"github.com/bloomscroll/bloomfeed/card"
	"github.com/bloomscroll/bloomfeed/curation"
	"github.com/bloomscroll/bloomfeed/embed"
	"github.com/bloomscroll/bloomfeed/ingest"
	"github.com/bloomscroll/bloomfeed/monitor"
	"github.com/bloomscroll/bloomfeed/server"
	"github.com/bloomscroll/bloomfeed/store"
	"github.com/bloomscroll/bloomfeed/vector"
)

// Card aliases
type (
	Card       = card.Card
	SourceType = card.SourceType
)

// Source types
const (
	SourceOWID      = card.SourceOWID
	SourceOpenAlex  = card.SourceOpenAlex
	SourceCARI      = card.SourceCARI
	SourceNeocities = card.SourceNeocities
)

// Engine aliases
type (
	Engine      = curation.Engine
	Options     = curation.Options
	FeedRequest = curation.FeedRequest
	FeedPage    = curation.FeedPage
	Zone        = curation.Zone
	Reason      = curation.Reason
)

// NewEngine creates a curation engine over the given stores.
func NewEngine(cards vector.Store, quotas store.QuotaStore, opts Options) (*Engine, error) {
	return curation.NewEngine(cards, quotas, opts)
}

// Store aliases
type (
	CardStore  = vector.Store
	Candidate  = vector.Candidate
	QuotaStore = store.QuotaStore
	QuotaState = store.QuotaState
)

// NewMemoryCardStore creates an in-memory card store.
func NewMemoryCardStore() *vector.MemoryStore {
	return vector.NewMemoryStore()
}

// NewPgVectorCardStore creates a pgvector-backed card store.
func NewPgVectorCardStore(dsn string, dimension int) (*vector.PgVectorStore, error) {
	return vector.NewPgVectorStore(dsn, dimension)
}

// NewMemoryQuotaStore creates an in-memory quota store.
func NewMemoryQuotaStore() *store.MemoryQuotaStore {
	return store.NewMemoryQuotaStore()
}

// NewQuotaStore creates a quota store based on the DSN.
func NewQuotaStore(dsn string) (store.QuotaStore, error) {
	return store.NewQuotaStore(dsn)
}

// Embedding aliases
type (
	EmbeddingProvider = embed.Provider
	EmbeddingConfig   = embed.Config
)

// NewHashEmbedder creates the deterministic offline embedding provider.
func NewHashEmbedder(dimension int) *embed.HashProvider {
	return embed.NewHashProvider(dimension)
}

// Ingestor alias
type Ingestor = ingest.Ingestor

// NewIngestor creates the embed-then-store ingestion pipeline.
func NewIngestor(provider embed.Provider, cards vector.Store) *Ingestor {
	return ingest.New(provider, cards)
}

// Monitor aliases
type (
	Collector         = monitor.Collector
	FeedStats         = monitor.FeedStats
	InMemoryCollector = monitor.InMemoryCollector
)

// NewInMemoryCollector creates an in-memory metrics collector.
func NewInMemoryCollector() *InMemoryCollector {
	return monitor.NewInMemoryCollector()
}

// Server aliases
type (
	Server       = server.Server
	ServerConfig = server.Config
)

// NewServer creates the HTTP API server.
func NewServer(cfg ServerConfig) *Server {
	return server.New(cfg)
}
