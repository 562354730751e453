package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/internal/retry"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
)

// ErrPackageNotFound is returned when the registry has no such package.
var ErrPackageNotFound = errors.New("package not found in registry")

// registryTimeout bounds a single registry request.
const registryTimeout = 30 * time.Second

// NpmRegistry fetches package metadata from an npm-compatible registry.
// Lookups are memoized per package name for the lifetime of the client.
type NpmRegistry struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
	logger  *zap.SugaredLogger

	mu   sync.Mutex
	memo map[string]*schema.PackageMetadata
}

var _ contract.RegistryClient = &NpmRegistry{} // Compile-time check

// NewNpmRegistry creates a registry client rooted at baseURL.
func NewNpmRegistry(baseURL string, logger *zap.SugaredLogger) *NpmRegistry {
	if baseURL == "" {
		baseURL = contract.DefaultRegistryURL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NpmRegistry{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: registryTimeout},
		retry:   retry.DefaultConfig(),
		logger:  logger,
		memo:    make(map[string]*schema.PackageMetadata),
	}
}

// WithRetry replaces the retry policy. It returns the client for chaining.
func (r *NpmRegistry) WithRetry(cfg retry.Config) *NpmRegistry {
	r.retry = cfg
	return r
}

// registryDocument is the subset of the registry packument that is scored.
// License and repository appear either as strings or as objects.
type registryDocument struct {
	Name        string          `json:"name"`
	License     json.RawMessage `json:"license"`
	Repository  json.RawMessage `json:"repository"`
	Readme      string          `json:"readme"`
	Maintainers []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"maintainers"`
}

// FetchPackage returns the metadata of the named package.
func (r *NpmRegistry) FetchPackage(ctx context.Context, name string) (*schema.PackageMetadata, error) {
	r.mu.Lock()
	if meta, ok := r.memo[name]; ok {
		r.mu.Unlock()
		return meta, nil
	}
	r.mu.Unlock()

	doc, err := retry.Do(ctx, r.retry, func(ctx context.Context) (*registryDocument, error) {
		return r.fetchDocument(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	meta := &schema.PackageMetadata{
		Name:          doc.Name,
		License:       stringOrField(doc.License, "type"),
		RepositoryURL: contract.NormalizeRepositoryURL(stringOrField(doc.Repository, "url")),
		Readme:        doc.Readme,
	}
	if meta.Name == "" {
		meta.Name = name
	}
	for _, m := range doc.Maintainers {
		if m.Name != "" {
			meta.Maintainers = append(meta.Maintainers, m.Name)
		}
	}

	r.logger.Debugw("fetched registry metadata",
		"package", name,
		"license", meta.License,
		"repository", meta.RepositoryURL,
		"maintainers", len(meta.Maintainers))

	r.mu.Lock()
	r.memo[name] = meta
	r.mu.Unlock()
	return meta, nil
}

func (r *NpmRegistry) fetchDocument(ctx context.Context, name string) (*registryDocument, error) {
	// Scoped names are requested as @scope%2Fname
	endpoint := r.baseURL + "/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build registry request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warnw("registry request failed", "package", name, "error", err)
		return nil, fmt.Errorf("registry request for %s failed: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrPackageNotFound, name))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("registry returned %d for %s", resp.StatusCode, name)
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Permanent(fmt.Errorf("registry returned %d for %s", resp.StatusCode, name))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response for %s: %w", name, err)
	}
	var doc registryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode registry response for %s: %w", name, err))
	}
	return &doc, nil
}

// stringOrField decodes raw as a plain string, or as an object holding the
// string under field. Anything else yields "".
func stringOrField(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if v, ok := obj[field].(string); ok {
			return v
		}
	}
	return ""
}
