// Package drive is the client for the remote object store. The daemon core
// treats it as a capability interface: upload a path, download by id, update
// an existing id in place. Auth and retries live here, never in the core.
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cameron-williams/rgdrive/internal/utils"
	"github.com/cameron-williams/rgdrive/internal/version"
	"github.com/google/uuid"
	"github.com/imroc/req/v3"
)

// Client is what the daemon core calls into.
type Client interface {
	// Upload stores the file at path and returns its new remote id.
	Upload(ctx context.Context, path string) (string, error)
	// Download fetches the object id into dest. If dest is a directory the
	// remote file name is used inside it. Returns the final local path.
	Download(ctx context.Context, id string, dest string) (string, error)
	// Update replaces the content of an existing object id with the file at
	// path.
	Update(ctx context.Context, path string, id string) error
}

const (
	v1Files        = "/api/v1/files"
	v1FileByID     = "/api/v1/files/{id}"
	v1FileContent  = "/api/v1/files/{id}/content"
	requestTimeout = 5 * time.Minute
)

// API talks to the rgdrive storage HTTP API.
type API struct {
	client *req.Client
}

var _ Client = (*API)(nil)

func NewAPI(baseURL, token string) (*API, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("drive: base url is required")
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent("rgdrive/" + version.Version).
		SetTimeout(requestTimeout).
		SetCommonRetryCount(2).
		SetCommonRetryBackoffInterval(time.Second, 10*time.Second)

	if token != "" {
		client.SetCommonBearerAuthToken(token)
	}

	return &API{client: client}, nil
}

func (a *API) Upload(ctx context.Context, path string) (string, error) {
	if !utils.FileExists(path) {
		return "", fmt.Errorf("drive upload: no such file %q", path)
	}

	var info fileInfo
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString()).
		SetFile("file", path).
		SetSuccessResult(&info).
		Post(v1Files)

	if err := apiError(resp, err, "upload"); err != nil {
		return "", err
	}
	if info.ID == "" {
		return "", fmt.Errorf("drive upload: server returned no id")
	}
	return info.ID, nil
}

func (a *API) Download(ctx context.Context, id string, dest string) (string, error) {
	local := dest
	if utils.DirExists(dest) {
		info, err := a.stat(ctx, id)
		if err != nil {
			return "", err
		}
		local = filepath.Join(dest, info.Name)
	}

	if err := utils.EnsureParent(local); err != nil {
		return "", err
	}

	// Download into a partial file, rename once complete. A failed or
	// interrupted transfer never clobbers an existing destination.
	partial := local + ".partial-" + utils.TokenHex(4)
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString()).
		SetPathParam("id", id).
		SetOutputFile(partial).
		Get(v1FileContent)

	if err := apiError(resp, err, "download"); err != nil {
		os.Remove(partial)
		return "", err
	}
	if err := os.Rename(partial, local); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("drive download: finalize %q: %w", local, err)
	}
	return local, nil
}

func (a *API) Update(ctx context.Context, path string, id string) error {
	if !utils.FileExists(path) {
		return fmt.Errorf("drive update: no such file %q", path)
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString()).
		SetPathParam("id", id).
		SetFile("file", path).
		Put(v1FileByID)

	return apiError(resp, err, "update")
}

func (a *API) stat(ctx context.Context, id string) (*fileInfo, error) {
	var info fileInfo
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetSuccessResult(&info).
		Get(v1FileByID)

	if err := apiError(resp, err, "stat"); err != nil {
		return nil, err
	}
	if info.Name == "" {
		return nil, fmt.Errorf("drive stat: server returned no name for %q", id)
	}
	return &info, nil
}
