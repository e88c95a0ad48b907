// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/supervisor/services"
)

// fakeLastFM answers every lookup with small deterministic payloads.
func fakeLastFM(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("method") {
		case "artist.getsimilar":
			fmt.Fprint(w, `{"similarartists":{"artist":[{"name":"Similar One"},{"name":"Similar Two"}]}}`)
		case "artist.gettoptracks":
			artist := q.Get("artist")
			fmt.Fprintf(w, `{"toptracks":{"track":[{"name":"%[1]s Hit","artist":{"name":"%[1]s"}},{"name":"%[1]s Deep Cut","artist":{"name":"%[1]s"}}]}}`, artist)
		case "artist.gettoptags":
			fmt.Fprint(w, `{"toptags":{"tag":[{"name":"shoegaze"}]}}`)
		case "tag.gettoptracks":
			fmt.Fprint(w, `{"tracks":{"track":[{"name":"Tag Anthem","artist":{"name":"Tag Band"}}]}}`)
		default:
			fmt.Fprint(w, `{"error":3,"message":"Invalid Method"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, lastfmURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LASTFM_BASE_URL", lastfmURL)
	t.Setenv("LASTFM_API_KEY", "test-key")
	t.Setenv("LASTFM_MAX_REQUESTS", "1000")
	t.Setenv("LASTFM_MIN_INTERVAL", "0s")
	t.Setenv("EXPAND_SEED", "7")
	t.Setenv("RANK_SEED", "7")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func call(t *testing.T, h http.Handler, method, path, body string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: %v (%s)", method, path, err, w.Body.String())
	}
	if out != nil && resp.Data != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return w.Code
}

// lockedBuffer collects log output written from several goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func TestApp_EndToEnd(t *testing.T) {
	cfg := testConfig(t, fakeLastFM(t).URL+"/2.0/")
	logs := &lockedBuffer{}
	a, err := newApp(cfg, zerolog.New(logs).Level(zerolog.DebugLevel))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { a.close(context.Background()) })

	h := a.router

	// No liked tracks yet.
	if code := call(t, h, http.MethodPost, "/api/v1/users/alice/expand", "", nil); code != http.StatusConflict {
		t.Fatalf("expand without seeds: status %d, want 409", code)
	}

	var imported struct {
		Imported int `json:"imported"`
	}
	body := `{"tracks":[{"track_name":"Only Shallow","artist":"My Bloody Valentine"},{"track_name":"Alison","artist":"Slowdive"}]}`
	if code := call(t, h, http.MethodPost, "/api/v1/users/alice/liked", body, &imported); code != http.StatusOK || imported.Imported != 2 {
		t.Fatalf("import: status %d, result %+v", code, imported)
	}

	var expanded struct {
		ExpandedAdded int `json:"expanded_added"`
		TotalRows     int `json:"total_rows"`
	}
	if code := call(t, h, http.MethodPost, "/api/v1/users/alice/expand", "", &expanded); code != http.StatusOK {
		t.Fatalf("expand: status %d", code)
	}
	if expanded.ExpandedAdded == 0 || expanded.TotalRows != expanded.ExpandedAdded+2 {
		t.Errorf("expand result %+v", expanded)
	}

	var batch struct {
		Items []struct {
			TrackName string `json:"track_name"`
		} `json:"items"`
		Mode  string `json:"mode"`
		Total int    `json:"total"`
	}
	if code := call(t, h, http.MethodPost, "/api/v1/users/alice/recommendations", "", &batch); code != http.StatusOK {
		t.Fatalf("recommendations: status %d", code)
	}
	if batch.Mode != "Random" || batch.Total != expanded.TotalRows || len(batch.Items) == 0 {
		t.Errorf("batch mode=%s total=%d items=%d", batch.Mode, batch.Total, len(batch.Items))
	}

	if code := call(t, h, http.MethodPost, "/api/v1/users/alice/feedback", `{"track_name":"Tag Anthem","artist":"Tag Band","liked":true}`, nil); code != http.StatusOK {
		t.Fatalf("feedback: status %d", code)
	}

	var stats struct {
		TotalLiked    int `json:"total_liked"`
		TotalFeedback int `json:"total_feedback"`
	}
	if code := call(t, h, http.MethodGet, "/api/v1/users/alice/stats", "", &stats); code != http.StatusOK {
		t.Fatalf("stats: status %d", code)
	}
	if stats.TotalLiked != 3 || stats.TotalFeedback != 1 {
		t.Errorf("stats %+v", stats)
	}

	if code := call(t, h, http.MethodGet, "/api/v1/health/ready", "", nil); code != http.StatusOK {
		t.Errorf("ready: status %d", code)
	}

	scoped := 0
	for _, line := range logs.lines() {
		switch n := strings.Count(line, `"component":`); {
		case n > 1:
			t.Errorf("log line repeats the component field: %s", line)
		case n == 1:
			scoped++
		}
	}
	if scoped == 0 {
		t.Error("expected component-scoped log lines")
	}
}

func TestApp_MaintenanceTasks(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/")
	a, err := newApp(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { a.close(context.Background()) })

	tasks := a.maintenanceTasks()
	// The memory store needs no compaction.
	if len(tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(tasks))
	}
	if failed := services.NewMaintenanceService(0, tasks, zerolog.Nop()).RunOnce(context.Background()); failed != 0 {
		t.Errorf("%d maintenance tasks failed", failed)
	}
}

func TestRankConfig_TimeSeedWhenZero(t *testing.T) {
	rc := &config.RankConfig{LikedThreshold: 5, Trees: 10, MaxDepth: 4, MinLeafSize: 1}
	if got := rankConfig(rc); got.Seed == 0 || got.Forest.Trees != 10 {
		t.Errorf("rankConfig = %+v", got)
	}
	rc.Seed = 99
	if got := rankConfig(rc); got.Seed != 99 {
		t.Errorf("explicit seed lost: %d", got.Seed)
	}
}
