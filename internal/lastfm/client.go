// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/models"
	"github.com/tomtom215/trackpool/internal/ratelimit"
)

// LimiterKey is the sliding-window key shared by every Last.fm call.
const LimiterKey = "lastfm_api"

const (
	maxErrorBodySize = 64 * 1024
	maxResponseSize  = 4 << 20
	userAgent        = "trackpool/1.0"
)

// Lookup outcomes, used as the metrics result label.
const (
	resultOK          = "ok"
	resultThrottled   = "throttled"
	resultRejected    = "rejected"
	resultClientError = "client_error"
	resultError       = "error"
	resultCancelled   = "cancelled"
)

var errMalformed = errors.New("malformed response")

// statusError is a non-success answer from Last.fm, either an HTTP status
// or an API error code in the body.
type statusError struct {
	StatusCode int
	APICode    int
	Message    string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	if e.APICode != 0 {
		return fmt.Sprintf("last.fm error %d (HTTP %d): %s", e.APICode, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("last.fm HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *statusError) throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.APICode == codeRateLimited
}

func (e *statusError) transient() bool {
	return e.StatusCode >= 500 || e.APICode == codeServiceOffline || e.APICode == codeTemporaryFailure
}

// Client looks up artist and tag similarity on Last.fm.
//
// Every network attempt first waits for the shared sliding-window budget
// and then for the minimum call spacing. Lookups never fail the caller:
// exhausted retries, throttling, open circuits and API errors all yield an
// empty result.
type Client struct {
	cfg        *config.LastFMConfig
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	pacer      *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
	excluded   map[string]struct{}
	logger     zerolog.Logger

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Last.fm client. A nil limiter gets a private one.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(cfg *config.LastFMConfig, limiter *ratelimit.Limiter, logger zerolog.Logger) *Client {
	if limiter == nil {
		limiter = ratelimit.New()
	}

	pace := rate.Inf
	if cfg.MinInterval > 0 {
		pace = rate.Every(cfg.MinInterval)
	}

	excluded := map[string]struct{}{"": {}}
	for _, tag := range cfg.ExcludedTags {
		excluded[models.Normalize(tag)] = struct{}{}
	}

	logger = logger.With().Str("component", "lastfm").Logger()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    limiter,
		pacer:      rate.NewLimiter(pace, 1),
		cb:         newBreaker(logger),
		excluded:   excluded,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// SimilarArtists returns artists similar to artist, most similar first.
func (c *Client) SimilarArtists(ctx context.Context, artist string) []string {
	if models.Normalize(artist) == "" {
		return nil
	}
	var resp similarArtistsResponse
	if !c.fetch(ctx, "artist.getsimilar", url.Values{
		"artist": {artist},
		"limit":  {strconv.Itoa(c.cfg.SimilarLimit)},
	}, &resp) {
		return nil
	}

	self := models.Normalize(artist)
	seen := make(map[string]struct{}, len(resp.SimilarArtists.Artist))
	names := make([]string, 0, len(resp.SimilarArtists.Artist))
	for _, a := range resp.SimilarArtists.Artist {
		name := models.Sanitize(a.Name)
		key := models.Normalize(name)
		if key == "" || key == self {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// TopTracksForArtist returns artist's top tracks attributed to seedArtist.
func (c *Client) TopTracksForArtist(ctx context.Context, artist, seedArtist string) []models.Track {
	if models.Normalize(artist) == "" {
		return nil
	}
	var resp artistTopTracksResponse
	if !c.fetch(ctx, "artist.gettoptracks", url.Values{
		"artist": {artist},
		"limit":  {strconv.Itoa(c.cfg.TopTracksLimit)},
	}, &resp) {
		return nil
	}

	tracks := make([]models.Track, 0, len(resp.TopTracks.Track))
	for i := range resp.TopTracks.Track {
		item := &resp.TopTracks.Track[i]
		name := item.Artist.Name
		if models.Normalize(name) == "" {
			name = artist
		}
		t := models.Track{
			TrackName:  item.Name,
			Artist:     name,
			Source:     models.SourceArtistSimilarity,
			ArtistSeed: seedArtist,
			ExternalID: item.MBID,
			ImageURL:   item.largestImage(),
		}
		t.SanitizeFields()
		if t.Key() != "" {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// TopTags returns artist's top tags, lowercased, without excluded tags.
func (c *Client) TopTags(ctx context.Context, artist string) []string {
	if models.Normalize(artist) == "" {
		return nil
	}
	var resp artistTopTagsResponse
	if !c.fetch(ctx, "artist.gettoptags", url.Values{
		"artist": {artist},
	}, &resp) {
		return nil
	}

	tags := make([]string, 0, len(resp.TopTags.Tag))
	seen := make(map[string]struct{}, len(resp.TopTags.Tag))
	for _, t := range resp.TopTags.Tag {
		tag := strings.ToLower(models.Sanitize(t.Name))
		key := models.Normalize(tag)
		if _, skip := c.excluded[key]; skip {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == c.cfg.TopTagsLimit {
			break
		}
	}
	return tags
}

// TopTracksForTag returns the top tracks for tag attributed to seedTag.
func (c *Client) TopTracksForTag(ctx context.Context, tag, seedTag string) []models.Track {
	if models.Normalize(tag) == "" {
		return nil
	}
	var resp tagTopTracksResponse
	if !c.fetch(ctx, "tag.gettoptracks", url.Values{
		"tag":   {tag},
		"limit": {strconv.Itoa(c.cfg.TopTracksLimit)},
	}, &resp) {
		return nil
	}

	tracks := make([]models.Track, 0, len(resp.Tracks.Track))
	for i := range resp.Tracks.Track {
		item := &resp.Tracks.Track[i]
		t := models.Track{
			TrackName:  item.Name,
			Artist:     item.Artist.Name,
			Source:     models.SourceGenreSimilarity,
			Tags:       tag,
			GenreSeed:  seedTag,
			ExternalID: item.MBID,
			ImageURL:   item.largestImage(),
		}
		t.SanitizeFields()
		if t.Key() != "" {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// fetch runs one lookup and decodes the body into out.
// It reports whether out holds a successful response.
func (c *Client) fetch(ctx context.Context, method string, params url.Values, out interface{}) bool {
	start := time.Now()
	result, err := c.call(ctx, method, params, out)
	metrics.RecordSourceRequest(method, result, time.Since(start))

	if err != nil && result == resultError {
		c.logger.Warn().
			Err(fmt.Errorf("%w: %s: %w", models.ErrExternalSourceUnavailable, method, err)).
			Int("attempts", c.cfg.MaxAttempts).
			Msg("lookup failed after retries, continuing with no results")
	}
	return result == resultOK
}

// call is the retry loop behind fetch.
func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) (string, error) {
	logger := c.logger.With().Str("method", method).Logger()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RecordSourceRetry(method)
		}
		if err := c.admit(ctx); err != nil {
			return resultCancelled, err
		}

		body, err := c.cb.Execute(func() ([]byte, error) {
			return c.do(ctx, method, params)
		})
		recordBreakerResult(c.cb, err)
		if err == nil {
			if err = json.Unmarshal(body, out); err == nil {
				return resultOK, nil
			}
			err = fmt.Errorf("%w: %v", errMalformed, err)
		}
		lastErr = err

		if isBreakerRejection(err) {
			logger.Debug().Err(err).Msg("circuit open, skipping lookup")
			return resultRejected, err
		}
		if ctx.Err() != nil {
			return resultCancelled, ctx.Err()
		}

		var se *statusError
		if errors.As(err, &se) {
			if se.throttled() {
				cooldown := c.cooldown(se.RetryAfter)
				logger.Warn().Dur("cooldown", cooldown).Msg("throttled by Last.fm, cooling down")
				_ = c.sleep(ctx, cooldown)
				return resultThrottled, err
			}
			if !se.transient() {
				logger.Debug().Err(err).Msg("lookup rejected, not retrying")
				return resultClientError, err
			}
		}

		if attempt == c.cfg.MaxAttempts-1 {
			break
		}
		delay := c.backoff(attempt)
		logger.Debug().Err(err).Dur("retry_delay", delay).Int("attempt", attempt+1).Msg("lookup failed, retrying")
		if c.sleep(ctx, delay) != nil {
			return resultCancelled, ctx.Err()
		}
	}
	return resultError, lastErr
}

// admit waits for the shared window budget and then the call spacing.
func (c *Client) admit(ctx context.Context) error {
	if err := c.limiter.Wait(ctx, LimiterKey, c.cfg.MaxRequests, c.cfg.Window); err != nil {
		return err
	}
	return c.pacer.Wait(ctx)
}

// cooldown returns the pause after a throttled response: the server's
// Retry-After when longer than CooldownOn429, capped at MaxCooldown.
func (c *Client) cooldown(retryAfter time.Duration) time.Duration {
	return min(max(c.cfg.CooldownOn429, retryAfter), max(c.cfg.MaxCooldown, c.cfg.CooldownOn429))
}

// backoff returns base*2^attempt capped at BackoffMax.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.BackoffBase << attempt
	if delay <= 0 || delay > c.cfg.BackoffMax {
		return c.cfg.BackoffMax
	}
	return delay
}

// do performs a single HTTP attempt. A nil error means body is a
// successful Last.fm payload.
func (c *Client) do(ctx context.Context, method string, params url.Values) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	q.Set("method", method)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &statusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
		body := readBodyForError(resp.Body)
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
			se.APICode = apiErr.Code
			se.Message = apiErr.Message
		} else {
			se.Message = strings.TrimSpace(string(body))
		}
		return nil, se
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if apiErr.Code != 0 {
		return nil, &statusError{StatusCode: resp.StatusCode, APICode: apiErr.Code, Message: apiErr.Message}
	}
	return body, nil
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Unparseable or
// past values yield 0.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
