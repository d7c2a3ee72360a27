// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/yaml.v3"

	"github.com/envmod/envmod/pkg/envmod"
)

const (
	// indexDocument is the remote listing document, a YAML file whose
	// entries are full module metadata records.
	indexDocument = "index.yml"

	// modulesPrefix is the URL path prefix for module archives.
	modulesPrefix = "modules"

	// defaultRemoteTimeout bounds a single remote operation so a stuck
	// server returns a timeout error instead of blocking the session.
	defaultRemoteTimeout = 2 * time.Minute

	// maxRemoteRetries bounds the exponential backoff retry loop for
	// idempotent remote reads.
	maxRemoteRetries = 3
)

type (
	// HTTPRepo is a network-backed repository speaking a small HTTP
	// contract: GET /index.yml for the listing, GET/PUT/DELETE
	// /modules/<real_name>.zip for module payloads. The listing is cached
	// for the lifetime of the repository value, which is scoped to one
	// resolution session, bounding round-trips.
	HTTPRepo struct {
		name    string
		baseURL string

		// Client is the HTTP client; http.DefaultClient when nil.
		Client *http.Client
		// Timeout bounds each remote operation.
		Timeout time.Duration

		mu     sync.Mutex
		cached []*envmod.ModuleSpec
		listed bool
	}

	remoteIndex struct {
		Modules []*envmod.Metadata `yaml:"modules"`
	}
)

var _ envmod.Repo = (*HTTPRepo)(nil)

// NewHTTPRepo creates an HTTP repository rooted at baseURL.
func NewHTTPRepo(name, baseURL string) *HTTPRepo {
	return &HTTPRepo{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		Timeout: defaultRemoteTimeout,
	}
}

// Name returns the registry name of the repository.
func (r *HTTPRepo) Name() string { return r.name }

// URL returns the repository base URL.
func (r *HTTPRepo) URL() string { return r.baseURL }

// List fetches and caches the remote index.
func (r *HTTPRepo) List(ctx context.Context) ([]*envmod.ModuleSpec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listed {
		return r.cached, nil
	}

	body, err := r.get(ctx, r.baseURL+"/"+indexDocument)
	if err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "list", Err: err}
	}

	var index remoteIndex
	if err := yaml.Unmarshal(body, &index); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "list", Err: fmt.Errorf("parsing %s: %w", indexDocument, err)}
	}

	var specs []*envmod.ModuleSpec
	for _, meta := range index.Modules {
		if meta == nil || meta.Validate() != nil {
			continue
		}
		spec := &envmod.ModuleSpec{
			Name:     meta.Name,
			Version:  envmod.ParseVersion(meta.Version),
			Repo:     r,
			Metadata: meta,
		}
		spec.Locator = path.Join(modulesPrefix, spec.RealName()+".zip")
		specs = append(specs, spec)
	}

	r.cached = specs
	r.listed = true
	return specs, nil
}

// InvalidateCache drops the cached listing so the next List refetches.
func (r *HTTPRepo) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.listed = false
}

// Find returns the cached-index specs matching a requirement, newest first.
func (r *HTTPRepo) Find(ctx context.Context, req envmod.Requirement) ([]*envmod.ModuleSpec, error) {
	specs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterAndSort(specs, req), nil
}

// Download fetches the module archive and extracts it at dest with the
// atomic-or-fail overwrite contract.
func (r *HTTPRepo) Download(ctx context.Context, spec *envmod.ModuleSpec, dest string, overwrite bool) (*envmod.Module, error) {
	stage, err := stageDir(dest)
	if err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}
	defer os.RemoveAll(stage)

	body, err := r.get(ctx, r.moduleURL(spec.RealName()))
	if err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}

	archivePath := filepath.Join(stage, spec.RealName()+".zip")
	if err := os.WriteFile(archivePath, body, 0o644); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}

	staged := filepath.Join(stage, "module")
	if err := unzipDir(archivePath, staged); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}
	if err := replaceDir(staged, dest, overwrite); err != nil {
		if errors.Is(err, os.ErrExist) {
			err = fmt.Errorf("%s: %w", dest, envmod.ErrModuleExists)
		}
		return nil, &envmod.RepoError{Repo: r.name, Op: "download", Err: err}
	}
	return envmod.LoadModule(dest)
}

// Upload pushes a module archive to the repository.
func (r *HTTPRepo) Upload(ctx context.Context, module *envmod.Module, overwrite bool) (*envmod.ModuleSpec, error) {
	var buf bytes.Buffer
	if err := zipDir(module.Path, &buf); err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
	}

	uploadURL := r.moduleURL(module.RealName())
	if overwrite {
		u, err := url.Parse(uploadURL)
		if err != nil {
			return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
		}
		q := u.Query()
		q.Set("overwrite", "1")
		u.RawQuery = q.Encode()
		uploadURL = u.String()
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", "application/zip")

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: fmt.Errorf("%s: %w", module.RealName(), envmod.ErrModuleExists)}
	case resp.StatusCode >= 300:
		return nil, &envmod.RepoError{Repo: r.name, Op: "upload", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	r.InvalidateCache()

	spec := module.Spec(r)
	spec.Locator = path.Join(modulesPrefix, module.RealName()+".zip")
	return spec, nil
}

// Remove deletes the module from the repository.
func (r *HTTPRepo) Remove(ctx context.Context, spec *envmod.ModuleSpec) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.moduleURL(spec.RealName()), nil)
	if err != nil {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: err}
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: fmt.Errorf("%s: %w", spec.RealName(), envmod.ErrModuleNotFound)}
	case resp.StatusCode >= 300:
		return &envmod.RepoError{Repo: r.name, Op: "remove", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	r.InvalidateCache()
	return nil
}

// LocalPath always reports false: HTTP specs have no local storage until
// localized.
func (r *HTTPRepo) LocalPath(*envmod.ModuleSpec) (string, bool) { return "", false }

// moduleURL returns the archive URL for a real_name.
func (r *HTTPRepo) moduleURL(realName string) string {
	return r.baseURL + "/" + modulesPrefix + "/" + url.PathEscape(realName) + ".zip"
}

func (r *HTTPRepo) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func (r *HTTPRepo) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

// get fetches a URL with bounded exponential-backoff retries. Client errors
// (4xx) are permanent; transport errors and 5xx responses are retried.
func (r *HTTPRepo) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := r.client().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%s: %w", rawURL, envmod.ErrModuleNotFound))
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error %s", resp.Status)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("unexpected status %s", resp.Status))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRemoteRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}
