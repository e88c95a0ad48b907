// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package expand

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/cache"
	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/models"
)

// SimilarityClient is the metadata source walked during expansion.
// Lookups return an empty result when the source has nothing or is unavailable.
type SimilarityClient interface {
	SimilarArtists(ctx context.Context, artist string) []string
	TopTracksForArtist(ctx context.Context, artist, seedArtist string) []models.Track
	TopTags(ctx context.Context, artist string) []string
	TopTracksForTag(ctx context.Context, tag, seedTag string) []models.Track
}

// PoolStore is the subset of store.Store used by the engine.
type PoolStore interface {
	PoolKeys(ctx context.Context, userID string) (map[models.TrackKey]struct{}, error)
	AddToPool(ctx context.Context, userID string, tracks []models.Track) (int, error)
	PoolSize(ctx context.Context, userID string) (int, error)
}

// Result reports one expansion.
type Result struct {
	// Added is the number of new tracks written to the pool.
	Added int `json:"added"`

	// Total is the pool size after the write.
	Total int `json:"total"`

	// Partial is set when the walk stopped on timeout or cancellation.
	Partial bool `json:"partial"`
}

// Expansion statuses reported to metrics.
const (
	statusOK      = "ok"
	statusPartial = "partial"
	statusNoSeeds = "no_seeds"
	statusError   = "error"
)

// Engine grows user pools by walking the similarity graph from liked artists.
// Expansions for the same user are serialized; different users run concurrently.
type Engine struct {
	client SimilarityClient
	store  PoolStore
	cfg    *config.ExpandConfig
	logger zerolog.Logger
	locks  *cache.KeyedMutex

	// Random source (protected by rngMu for concurrent access)
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine creates an expansion engine. A zero cfg.Seed seeds from the clock.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(client SimilarityClient, store PoolStore, cfg *config.ExpandConfig, logger zerolog.Logger) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "expand").Logger(),
		locks:  cache.NewKeyedMutex(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for seed shuffling
	}
}

// Expand walks outward from seedArtists and adds at most capPerCall new
// tracks to the user's pool. capPerCall <= 0 uses the configured default.
//
// Lookups that fail are skipped. A walk cut short by ctx or the configured
// timeout still persists what it collected.
func (e *Engine) Expand(ctx context.Context, userID string, seedArtists []string, capPerCall int) (*Result, error) {
	start := time.Now()
	if capPerCall <= 0 {
		capPerCall = e.cfg.CapPerCall
	}
	logger := e.logger.With().Str("user_id", userID).Int("cap", capPerCall).Logger()

	seeds := distinctSeeds(seedArtists)
	if len(seeds) == 0 {
		metrics.RecordExpansion(statusNoSeeds, 0, time.Since(start))
		return nil, models.ErrInsufficientSeedData
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	e.shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })

	existing, err := e.store.PoolKeys(ctx, userID)
	if err != nil {
		metrics.RecordExpansion(statusError, 0, time.Since(start))
		return nil, fmt.Errorf("load pool keys: %w", err)
	}

	w := &walk{
		client:   e.client,
		existing: existing,
		added:    make(map[models.TrackKey]struct{}),
		ceiling:  2 * capPerCall,
	}
	visited := w.run(ctx, seeds)
	partial := ctx.Err() != nil

	e.shuffle(len(w.buffer), func(i, j int) { w.buffer[i], w.buffer[j] = w.buffer[j], w.buffer[i] })
	batch := w.buffer
	if len(batch) > capPerCall {
		batch = batch[:capPerCall]
	}

	// The crawl may have timed out; the write must still happen.
	persistCtx := context.WithoutCancel(ctx)
	added, err := e.store.AddToPool(persistCtx, userID, batch)
	if err != nil {
		metrics.RecordExpansion(statusError, 0, time.Since(start))
		return nil, fmt.Errorf("persist expansion: %w", err)
	}
	total, err := e.store.PoolSize(persistCtx, userID)
	if err != nil {
		metrics.RecordExpansion(statusError, added, time.Since(start))
		return nil, fmt.Errorf("count pool: %w", err)
	}

	status := statusOK
	if partial {
		status = statusPartial
	}
	metrics.RecordExpansion(status, added, time.Since(start))
	logger.Info().
		Int("seeds", len(seeds)).
		Int("seeds_visited", visited).
		Int("candidates", len(w.buffer)).
		Int("added", added).
		Int("total", total).
		Bool("partial", partial).
		Dur("duration", time.Since(start)).
		Msg("Pool expanded")

	return &Result{Added: added, Total: total, Partial: partial}, nil
}

func (e *Engine) shuffle(n int, swap func(i, j int)) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(n, swap)
}

// walk is the state of one breadth-first crawl.
type walk struct {
	client   SimilarityClient
	existing map[models.TrackKey]struct{}
	added    map[models.TrackKey]struct{}
	buffer   []models.Track
	ceiling  int
}

func (w *walk) full() bool {
	return len(w.buffer) >= w.ceiling
}

// run visits seeds in order until the buffer is full or ctx is done and
// returns how many seeds were visited.
func (w *walk) run(ctx context.Context, seeds []string) int {
	visited := 0
	for _, seed := range seeds {
		if w.full() || ctx.Err() != nil {
			break
		}
		visited++

		tags := w.client.TopTags(ctx, seed)
		inherited := strings.Join(tags, ", ")

		for _, similar := range w.client.SimilarArtists(ctx, seed) {
			if w.full() || ctx.Err() != nil {
				return visited
			}
			for _, tr := range w.client.TopTracksForArtist(ctx, similar, seed) {
				if tr.Tags == "" {
					tr.Tags = inherited
				}
				if w.offer(tr) {
					return visited
				}
			}
		}

		for _, tag := range tags {
			if w.full() || ctx.Err() != nil {
				return visited
			}
			for _, tr := range w.client.TopTracksForTag(ctx, tag, tag) {
				if w.offer(tr) {
					return visited
				}
			}
		}
	}
	return visited
}

// offer buffers tr unless its key is already pooled or buffered, and
// reports whether the buffer is now full.
func (w *walk) offer(tr models.Track) bool {
	key := tr.Key()
	if key == "" {
		return w.full()
	}
	if _, ok := w.existing[key]; ok {
		return w.full()
	}
	if _, ok := w.added[key]; ok {
		return w.full()
	}
	w.added[key] = struct{}{}
	w.buffer = append(w.buffer, tr)
	return w.full()
}

// distinctSeeds drops blank and duplicate artists, keeping first spellings.
func distinctSeeds(artists []string) []string {
	seen := make(map[string]struct{}, len(artists))
	seeds := make([]string, 0, len(artists))
	for _, a := range artists {
		a = models.Sanitize(a)
		norm := models.Normalize(a)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		seeds = append(seeds, a)
	}
	return seeds
}
