// Package tools implements the auxiliary lookups the assistant can fold
// into an answer: PyPI package metadata and official documentation links.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

const defaultPyPIBaseURL = "https://pypi.org"

// PyPIClient fetches package metadata from the PyPI JSON API.
type PyPIClient struct {
	Client  *http.Client
	BaseURL string
}

// ErrPackageNotFound is returned when PyPI has no package under the name.
var ErrPackageNotFound = errors.New("package not found on PyPI")

// PackageInfo fetches metadata for one package.
func (c *PyPIClient) PackageInfo(ctx context.Context, name string) (*core.PackageInfo, error) {
	if c == nil {
		return nil, errors.New("pypi client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.ToLower(strings.TrimSpace(name))
	if value == "" {
		return nil, errors.New("package name is required")
	}

	base, err := c.baseURL()
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/pypi/%s/json", url.PathEscape(value))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.ResolveReference(&url.URL{Path: path}).String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pypi metadata: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
		return decodePackageInfo(resp, value)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, value)
	default:
		return nil, fmt.Errorf("unexpected pypi response for %s: HTTP %d", value, resp.StatusCode)
	}
}

func (c *PyPIClient) baseURL() (*url.URL, error) {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		raw = defaultPyPIBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid pypi base url: %w", err)
	}
	return base, nil
}

func decodePackageInfo(resp *http.Response, name string) (*core.PackageInfo, error) {
	var payload struct {
		Info struct {
			Name         string            `json:"name"`
			Version      string            `json:"version"`
			Summary      string            `json:"summary"`
			HomePage     string            `json:"home_page"`
			License      string            `json:"license"`
			RequiresDist []string          `json:"requires_dist"`
			ProjectURLs  map[string]string `json:"project_urls"`
		} `json:"info"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode pypi metadata for %s: %w", name, err)
	}

	info := &core.PackageInfo{
		Name:        payload.Info.Name,
		Version:     payload.Info.Version,
		Summary:     payload.Info.Summary,
		HomePage:    payload.Info.HomePage,
		License:     payload.Info.License,
		RequiresDep: payload.Info.RequiresDist,
	}
	if info.Name == "" {
		info.Name = name
	}
	if info.HomePage == "" {
		if u, ok := payload.Info.ProjectURLs["Homepage"]; ok {
			info.HomePage = u
		}
	}
	return info, nil
}
