// Package fetch copies external module artifacts into the local cache.
// Every fetch is atomic: the target path either keeps its previous content
// or holds the complete new artifact.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/viant/afs"
	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/fsutil"
	"github.com/vk/strata/internal/model"
)

// Outcome reports what a fetch did.
type Outcome struct {
	// Skipped is set when the target was already present and verified.
	Skipped bool
	Bytes   int64
}

// Fetcher places the artifact of a location at a target path.
type Fetcher interface {
	Fetch(ctx context.Context, loc model.ExternalModuleLocation, target string) (Outcome, error)
}

// FetchError wraps any failure to retrieve an artifact.
type FetchError struct {
	Module string
	URI    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s from %s: %v", e.Module, e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// etagSuffix names the sidecar that remembers the validator of the last
// HTTP download of a target.
const etagSuffix = ".etag"

// Client fetches http(s) locations with conditional requests and every
// other scheme (file, mem, s3, gs, ...) through the abstract file system.
type Client struct {
	http *http.Client
	fs   afs.Service
}

func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, fs: afs.New()}
}

func (c *Client) Fetch(ctx context.Context, loc model.ExternalModuleLocation, target string) (Outcome, error) {
	u, err := url.Parse(loc.URI)
	if err != nil {
		return Outcome{}, &FetchError{Module: loc.Module, URI: loc.URI, Err: err}
	}
	var out Outcome
	switch u.Scheme {
	case "http", "https":
		out, err = c.fetchHTTP(ctx, loc, target)
	case "":
		return Outcome{}, &FetchError{Module: loc.Module, URI: loc.URI, Err: errors.New("location has no scheme")}
	default:
		out, err = c.fetchObject(ctx, loc, target)
	}
	if err != nil {
		return Outcome{}, &FetchError{Module: loc.Module, URI: loc.URI, Err: err}
	}
	logger := ctxlog.FromContext(ctx)
	if out.Skipped {
		logger.Debug("Artifact already present.", "module", loc.Module, "target", target)
	} else {
		logger.Info("📦 Fetched artifact.", "module", loc.Module, "uri", loc.URI, "bytes", out.Bytes)
	}
	return out, nil
}

func (c *Client) fetchHTTP(ctx context.Context, loc model.ExternalModuleLocation, target string) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URI, nil)
	if err != nil {
		return Outcome{}, err
	}
	etagPath := target + etagSuffix
	if fsutil.IsFile(target) {
		if etag, err := os.ReadFile(etagPath); err == nil && len(etag) > 0 {
			req.Header.Set("If-None-Match", strings.TrimSpace(string(etag)))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return Outcome{Skipped: true}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Outcome{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, err
	}
	out, err := place(target, data)
	if err != nil {
		return Outcome{}, err
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		if err := fsutil.WriteFileAtomic(etagPath, []byte(etag), 0o644); err != nil {
			return Outcome{}, err
		}
	} else {
		_ = os.Remove(etagPath)
	}
	return out, nil
}

func (c *Client) fetchObject(ctx context.Context, loc model.ExternalModuleLocation, target string) (Outcome, error) {
	data, err := c.fs.DownloadWithURL(ctx, loc.URI)
	if err != nil {
		return Outcome{}, err
	}
	return place(target, data)
}

// place writes data to target unless target already holds the same bytes.
func place(target string, data []byte) (Outcome, error) {
	if fsutil.SameContent(target, data) {
		return Outcome{Skipped: true}, nil
	}
	n, err := fsutil.WriteAtomic(target, bytes.NewReader(data), 0o644)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Bytes: n}, nil
}
