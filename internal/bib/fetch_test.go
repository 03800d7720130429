package bib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

const cslBody = `[{"id": "smith2020", "title": "T", "author": [{"family": "Smith"}], "issued": {"date-parts": [[2020]]}}]`

type bibServer struct {
	*httptest.Server
	downloads atomic.Int32
	probes    atomic.Int32
	updatedAt string
	fail      atomic.Bool
}

func newBibServer(t *testing.T) *bibServer {
	t.Helper()
	s := &bibServer{updatedAt: "2026-01-01T00:00:00Z"}
	mux := http.NewServeMux()
	mux.HandleFunc("/raw", func(w http.ResponseWriter, r *http.Request) {
		if s.fail.Load() {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		s.downloads.Add(1)
		w.Write([]byte(cslBody))
	})
	mux.HandleFunc("/probe", func(w http.ResponseWriter, r *http.Request) {
		s.probes.Add(1)
		w.Write([]byte(`{"updated_at": "` + s.updatedAt + `"}`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *bibServer) source() Source {
	return Source{
		Kind:        SourceGist,
		URL:         s.URL + "/raw",
		DownloadURL: s.URL + "/raw",
		ProbeURL:    s.URL + "/probe",
		ProbeNote:   "test probe",
	}
}

func TestPipeline_FirstFetchDownloads(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	p := NewPipeline(cache, zap.NewNop())
	src := s.source()
	hash := URLHash(src.URL)

	entries, err := p.fetchOne(context.Background(), src, hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := entries["smith2020"]; !ok {
		t.Errorf("expected parsed entry, got %v", entries)
	}
	if s.downloads.Load() != 1 {
		t.Errorf("expected 1 download, got %d", s.downloads.Load())
	}

	meta, ok := cache.Meta(hash)
	if !ok {
		t.Fatal("expected metadata persisted")
	}
	if meta.EntryCount != 1 || meta.RemoteUpdatedAt == nil {
		t.Errorf("unexpected meta: %+v", meta)
	}
	if _, ok := cache.Parsed(hash); !ok {
		t.Error("expected parsed snapshot persisted")
	}
	if got := cache.Mapping()[src.URL]; got.DownloadURL != src.DownloadURL {
		t.Errorf("expected mapping entry, got %+v", got)
	}
}

func TestPipeline_SameSessionReusesWithoutProbe(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	p := NewPipeline(cache, zap.NewNop())
	src := s.source()
	hash := URLHash(src.URL)

	if _, err := p.fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}
	probesAfterFirst := s.probes.Load()

	if _, err := p.fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}
	if s.downloads.Load() != 1 {
		t.Errorf("expected no second download, got %d", s.downloads.Load())
	}
	if s.probes.Load() != probesAfterFirst {
		t.Errorf("expected no re-probe within the session, got %d extra",
			s.probes.Load()-probesAfterFirst)
	}
}

func TestPipeline_UnchangedProbeSkipsDownload(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	src := s.source()
	hash := URLHash(src.URL)

	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}

	// A later build session probes, sees the same timestamp and reuses
	// the cache without downloading.
	p2 := NewPipeline(cache, zap.NewNop())
	entries, err := p2.fetchOne(context.Background(), src, hash)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected cached entries, got %v", entries)
	}
	if s.downloads.Load() != 1 {
		t.Errorf("expected no refetch for unchanged source, got %d downloads", s.downloads.Load())
	}
}

func TestPipeline_ChangedProbeRefetches(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	src := s.source()
	hash := URLHash(src.URL)

	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}

	s.updatedAt = "2026-06-01T00:00:00Z"
	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}
	if s.downloads.Load() != 2 {
		t.Errorf("expected refetch after remote change, got %d downloads", s.downloads.Load())
	}
}

func TestPipeline_ProbelessSourceAlwaysRefetches(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	src := Source{Kind: SourceDropbox, URL: s.URL + "/raw", DownloadURL: s.URL + "/raw"}
	hash := URLHash(src.URL)

	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}
	if s.downloads.Load() != 2 {
		t.Errorf("expected a download per session without a probe, got %d", s.downloads.Load())
	}
}

func TestPipeline_FetchFailureFallsBackToCache(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	src := Source{Kind: SourceDirect, URL: s.URL + "/raw", DownloadURL: s.URL + "/raw"}
	hash := URLHash(src.URL)

	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash); err != nil {
		t.Fatal(err)
	}

	s.fail.Store(true)
	entries, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, hash)
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}
	if _, ok := entries["smith2020"]; !ok {
		t.Errorf("expected cached entries in fallback, got %v", entries)
	}
}

func TestPipeline_FetchFailureWithoutCachePropagates(t *testing.T) {
	s := newBibServer(t)
	s.fail.Store(true)
	cache := newTestCache(t)
	src := Source{Kind: SourceDirect, URL: s.URL + "/raw", DownloadURL: s.URL + "/raw"}

	if _, err := NewPipeline(cache, zap.NewNop()).fetchOne(context.Background(), src, URLHash(src.URL)); err == nil {
		t.Error("expected error when no cached fallback exists")
	}
}

func TestPipeline_FetchAllMergesAndPersists(t *testing.T) {
	s := newBibServer(t)
	cache := newTestCache(t)
	p := NewPipeline(cache, zap.NewNop())

	merged := p.FetchAll(context.Background(), []string{
		s.URL + "/raw",
		"http://127.0.0.1:1/unreachable",
	})
	if _, ok := merged["smith2020"]; !ok {
		t.Errorf("expected merged entries from the healthy source, got %v", merged)
	}

	combined, ok := cache.Combined()
	if !ok {
		t.Fatal("expected combined snapshot persisted")
	}
	if len(combined) != len(merged) {
		t.Errorf("combined snapshot out of sync: %d vs %d", len(combined), len(merged))
	}
}
