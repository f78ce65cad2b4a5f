package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/model"
	"golang.org/x/mod/semver"
)

// GitHubAPI is the default endpoint of the release probe.
const GitHubAPI = "https://api.github.com"

// DefaultFallbackTags are tried, in order, when a repository has no
// published latest release.
var DefaultFallbackTags = []string{"early-access", "snapshot"}

// ReleaseProbe locates modules named after a hosted repository,
// com.github.<owner>.<repo>[.<more>], by looking for a matching archive
// among the assets of the repository's releases.
type ReleaseProbe struct {
	apiURL       string
	client       *http.Client
	fallbackTags []string
}

func NewReleaseProbe(apiURL string, client *http.Client, fallbackTags []string) *ReleaseProbe {
	if apiURL == "" {
		apiURL = GitHubAPI
	}
	if client == nil {
		client = http.DefaultClient
	}
	if fallbackTags == nil {
		fallbackTags = DefaultFallbackTags
	}
	return &ReleaseProbe{apiURL: strings.TrimSuffix(apiURL, "/"), client: client, fallbackTags: fallbackTags}
}

func (p *ReleaseProbe) Name() string {
	return "release-probe"
}

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

func (p *ReleaseProbe) Locate(ctx context.Context, module string) (model.ExternalModuleLocation, bool, error) {
	parts := strings.Split(module, ".")
	if len(parts) < 4 || parts[0] != "com" || parts[1] != "github" {
		return model.ExternalModuleLocation{}, false, nil
	}
	owner, repo := parts[2], parts[3]
	logger := ctxlog.FromContext(ctx).With("locator", "release-probe", "module", module)

	paths := []string{fmt.Sprintf("/repos/%s/%s/releases/latest", owner, repo)}
	for _, tag := range p.fallbackTags {
		paths = append(paths, fmt.Sprintf("/repos/%s/%s/releases/tags/%s", owner, repo, tag))
	}
	for _, path := range paths {
		rel, found, err := p.fetch(ctx, path)
		if err != nil {
			return model.ExternalModuleLocation{}, false, err
		}
		if !found {
			logger.Debug("No release found.", "path", path)
			continue
		}
		if loc, ok := match(module, repo, rel); ok {
			return loc, true, nil
		}
	}
	return model.ExternalModuleLocation{}, false, nil
}

func (p *ReleaseProbe) fetch(ctx context.Context, path string) (*release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("querying %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("querying %s: unexpected status %s", req.URL, resp.Status)
	}
	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, false, fmt.Errorf("decoding release from %s: %w", req.URL, err)
	}
	return &rel, true, nil
}

// match picks the asset for module out of a release. Accepted names, in
// order: <module>@<version>.jar, <module>.jar, <repo>-<version>.jar.
func match(module, repo string, rel *release) (model.ExternalModuleLocation, bool) {
	version := releaseVersion(rel.TagName)
	candidates := []string{
		module + "@" + version + ".jar",
		module + ".jar",
		repo + "-" + version + ".jar",
	}
	for _, name := range candidates {
		for _, a := range rel.Assets {
			if a.Name == name {
				return model.ExternalModuleLocation{Module: module, URI: a.DownloadURL, Version: version}, true
			}
		}
	}
	return model.ExternalModuleLocation{}, false
}

// releaseVersion strips the "v" of semantic version tags and keeps any
// other tag verbatim.
func releaseVersion(tag string) string {
	if semver.IsValid(tag) {
		return strings.TrimPrefix(tag, "v")
	}
	return tag
}
