package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/notefoot/notefoot/internal/footnote"
)

// fileCommentsProvider serves comment records from a JSON file mapping
// block IDs to comment lists, the shape produced by an API export.
type fileCommentsProvider struct {
	comments map[string][]footnote.WireComment
}

func newFileCommentsProvider(path string) (*fileCommentsProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var comments map[string][]footnote.WireComment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &fileCommentsProvider{comments: comments}, nil
}

func (p *fileCommentsProvider) List(ctx context.Context, blockID string) ([]footnote.WireComment, error) {
	return p.comments[blockID], nil
}

// httpDownloader saves comment attachments into a local directory,
// named after the last URL path segment.
type httpDownloader struct {
	dir    string
	client *http.Client
}

func newHTTPDownloader(dir string) *httpDownloader {
	return &httpDownloader{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *httpDownloader) Download(ctx context.Context, rawURL string, isImage bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing attachment url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return fmt.Errorf("attachment url has no file name: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("downloading %s: unexpected status %d", name, resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
