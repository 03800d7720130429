package bib

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SourceKind identifies a recognized bibliography hosting provider.
type SourceKind string

const (
	SourceGist        SourceKind = "gist"
	SourceGitHub      SourceKind = "github"
	SourceDropbox     SourceKind = "dropbox"
	SourceGoogleDrive SourceKind = "google-drive"
	SourceDirect      SourceKind = "direct"
)

// Source is a normalized bibliography location. ProbeURL, when
// non-empty, can be polled for the last remote update time so an
// unchanged file is not downloaded again; ProbeNote describes the
// probe in log output. Providers without a public change signal leave
// ProbeURL empty and are refetched every build.
type Source struct {
	Kind        SourceKind
	URL         string
	DownloadURL string
	ProbeURL    string
	ProbeNote   string
}

// NormalizeSource maps a share URL to its direct-download form and
// update probe for the known providers. Unrecognized or unparseable
// URLs pass through unchanged with no probe.
func NormalizeSource(raw string) Source {
	src := Source{Kind: SourceDirect, URL: raw, DownloadURL: raw}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return src
	}
	segs := splitPath(u.Path)

	switch strings.ToLower(u.Host) {
	case "gist.github.com":
		if len(segs) < 2 {
			return src
		}
		user, id := segs[0], segs[1]
		src.Kind = SourceGist
		src.DownloadURL = fmt.Sprintf("https://gist.githubusercontent.com/%s/%s/raw", user, id)
		src.ProbeURL = "https://api.github.com/gists/" + id
		src.ProbeNote = "gists API updated_at"
	case "github.com", "www.github.com":
		// /user/repo/blob/branch/path...
		if len(segs) < 5 || segs[2] != "blob" {
			return src
		}
		user, repo, branch := segs[0], segs[1], segs[3]
		filePath := strings.Join(segs[4:], "/")
		src.Kind = SourceGitHub
		src.DownloadURL = fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", user, repo, branch, filePath)
		src.ProbeURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/commits?path=%s&per_page=1",
			user, repo, url.QueryEscape(filePath))
		src.ProbeNote = "last commit date touching the file"
	case "dropbox.com", "www.dropbox.com":
		src.Kind = SourceDropbox
		q := u.Query()
		q.Set("dl", "1")
		u.RawQuery = q.Encode()
		src.DownloadURL = u.String()
	case "drive.google.com":
		// /file/d/<id>/view
		if len(segs) < 3 || segs[0] != "file" || segs[1] != "d" {
			return src
		}
		src.Kind = SourceGoogleDrive
		src.DownloadURL = "https://drive.google.com/uc?export=download&id=" + segs[2]
	}
	return src
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseProbeResponse extracts the remote update time from a provider
// probe response body.
func parseProbeResponse(kind SourceKind, body []byte) (*time.Time, error) {
	switch kind {
	case SourceGist:
		var gist struct {
			UpdatedAt time.Time `json:"updated_at"`
		}
		if err := json.Unmarshal(body, &gist); err != nil {
			return nil, fmt.Errorf("decoding gist probe: %w", err)
		}
		if gist.UpdatedAt.IsZero() {
			return nil, fmt.Errorf("gist probe missing updated_at")
		}
		return &gist.UpdatedAt, nil
	case SourceGitHub:
		var commits []struct {
			Commit struct {
				Committer struct {
					Date time.Time `json:"date"`
				} `json:"committer"`
			} `json:"commit"`
		}
		if err := json.Unmarshal(body, &commits); err != nil {
			return nil, fmt.Errorf("decoding commits probe: %w", err)
		}
		if len(commits) == 0 || commits[0].Commit.Committer.Date.IsZero() {
			return nil, fmt.Errorf("commits probe returned no usable date")
		}
		return &commits[0].Commit.Committer.Date, nil
	default:
		return nil, fmt.Errorf("source kind %s has no probe", kind)
	}
}
