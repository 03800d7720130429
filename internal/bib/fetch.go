package bib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	probeTimeout = 5 * time.Second
	fetchTimeout = 10 * time.Second
)

// Pipeline fetches, parses and caches bibliography sources. Concurrent
// fetches of the same URL are deduplicated through a singleflight
// group keyed by the URL hash; different URLs write disjoint cache
// files and need no coordination.
type Pipeline struct {
	cache        *Cache
	client       *http.Client
	logger       *zap.Logger
	sessionStart time.Time
	group        singleflight.Group
}

// NewPipeline creates a fetch pipeline over an open cache. The session
// start time gates re-probing: a source already fetched during this
// build session is reused without another probe.
func NewPipeline(cache *Cache, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cache:        cache,
		client:       &http.Client{},
		logger:       logger,
		sessionStart: time.Now(),
	}
}

// FetchAll fetches every configured source and merges the results by
// key, later sources overriding earlier ones. A failed source is
// logged and skipped; the merge continues with whatever succeeded.
// The merged map is persisted as the combined-entries snapshot.
func (p *Pipeline) FetchAll(ctx context.Context, urls []string) map[string]Entry {
	results := make([]map[string]Entry, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			entries, err := p.Fetch(ctx, u)
			if err != nil {
				p.logger.Warn("bibliography source failed, continuing without it",
					zap.String("url", u), zap.Error(err))
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	g.Wait()

	merged := Merge(results...)
	if err := p.cache.SaveCombined(merged); err != nil {
		p.logger.Warn("persisting combined entries failed", zap.Error(err))
	}
	return merged
}

// Fetch returns the parsed entries for one source URL, downloading
// only when the cache cannot be proven current.
func (p *Pipeline) Fetch(ctx context.Context, rawURL string) (map[string]Entry, error) {
	hash := URLHash(rawURL)
	v, err, _ := p.group.Do(hash, func() (any, error) {
		return p.fetchOne(ctx, NormalizeSource(rawURL), hash)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]Entry), nil
}

// fetchOne applies the refetch decision in priority order: missing
// metadata fetches; a probe-less source always refetches; a source
// already fetched this session is reused; otherwise the probe decides.
func (p *Pipeline) fetchOne(ctx context.Context, src Source, hash string) (map[string]Entry, error) {
	var remote *time.Time
	meta, haveMeta := p.cache.Meta(hash)

	refetch := true
	switch {
	case !haveMeta:
		// Never fetched: nothing to compare against.
	case src.ProbeURL == "":
		// No public change signal for this provider; refetch every build.
	case !meta.FetchedAt.Before(p.sessionStart):
		refetch = false
	default:
		probed, err := p.probe(ctx, src)
		if err != nil {
			p.logger.Warn("update probe failed, refetching",
				zap.String("url", src.URL), zap.String("probe", src.ProbeNote), zap.Error(err))
			break
		}
		remote = probed
		if meta.RemoteUpdatedAt != nil && probed.Equal(*meta.RemoteUpdatedAt) {
			refetch = false
			// Mark the cache fresh for the rest of this session
			// without downloading.
			meta.FetchedAt = time.Now()
			if err := p.cache.SaveMeta(hash, meta); err != nil {
				p.logger.Warn("refreshing cache metadata failed", zap.Error(err))
			}
		}
	}

	if !refetch {
		if entries, ok := p.cache.Parsed(hash); ok {
			p.logger.Debug("bibliography cache hit", zap.String("url", src.URL))
			return entries, nil
		}
		// Metadata present but the parsed snapshot is gone.
	}

	// Record the remote baseline on first fetch so later builds can
	// skip the download when the probe reports no change.
	if src.ProbeURL != "" && remote == nil {
		if probed, err := p.probe(ctx, src); err == nil {
			remote = probed
		}
	}

	entries, err := p.download(ctx, src, hash, remote)
	if err != nil {
		if cached, ok := p.cache.Parsed(hash); ok {
			p.logger.Warn("fetch failed, falling back to cached entries",
				zap.String("url", src.URL), zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	return entries, nil
}

// download fetches and parses the source, then persists the snapshot,
// metadata and URL mapping.
func (p *Pipeline) download(ctx context.Context, src Source, hash string, remote *time.Time) (map[string]Entry, error) {
	content, err := p.get(ctx, src.DownloadURL, fetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", src.URL, err)
	}
	entries, err := ParseEntries(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.URL, err)
	}
	p.logger.Info("bibliography fetched",
		zap.String("url", src.URL), zap.Int("entries", len(entries)))

	if err := p.cache.SaveParsed(hash, entries); err != nil {
		p.logger.Warn("persisting parsed entries failed", zap.Error(err))
	}
	meta := FileMeta{
		SourceURL:       src.URL,
		RemoteUpdatedAt: remote,
		EntryCount:      len(entries),
		FetchedAt:       time.Now(),
		ParsedFile:      "parsed_" + hash + ".json",
	}
	if err := p.cache.SaveMeta(hash, meta); err != nil {
		p.logger.Warn("persisting cache metadata failed", zap.Error(err))
	}

	mapping := p.cache.Mapping()
	mapping[src.URL] = MappingEntry{
		CachedFile:   meta.ParsedFile,
		OriginalFile: path.Base(src.DownloadURL),
		DownloadURL:  src.DownloadURL,
		LastUpdated:  remote,
	}
	if err := p.cache.SaveMapping(mapping); err != nil {
		p.logger.Warn("persisting cache mapping failed", zap.Error(err))
	}
	return entries, nil
}

// probe asks the provider for the last remote update time.
func (p *Pipeline) probe(ctx context.Context, src Source) (*time.Time, error) {
	body, err := p.get(ctx, src.ProbeURL, probeTimeout)
	if err != nil {
		return nil, err
	}
	return parseProbeResponse(src.Kind, body)
}

// get performs one timeout-bounded GET and returns the body; a non-2xx
// status is an error.
func (p *Pipeline) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
