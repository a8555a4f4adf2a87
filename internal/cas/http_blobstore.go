package cas

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/abstracted-labs/inv4-git/internal/inv4err"
)

// Timeout bounds a single blob round trip.
const Timeout = 15 * time.Second

// HTTPBlobstore implements Blobstore over a content-addressable HTTP
// API: `PUT /blobs/{cid}` and `GET /blobs/{cid}`.
type HTTPBlobstore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBlobstore builds a client against the blobstore reachable at
// baseURL (no trailing slash required).
func NewHTTPBlobstore(baseURL string) *HTTPBlobstore {
	return &HTTPBlobstore{baseURL: baseURL, client: &http.Client{Timeout: Timeout}}
}

func (b *HTTPBlobstore) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	id, err := DigestToCID(sum)
	if err != nil {
		return "", errors.Wrap(err, "compute cid for put")
	}

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/blobs/%s", b.baseURL, id), bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "build put request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(inv4err.ErrUnavailable, "put blob %s: %v", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", errors.Wrapf(inv4err.ErrUnavailable, "put blob %s: status %d", id, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return "", errors.Errorf("put blob %s: status %d", id, resp.StatusCode)
	}
	return id, nil
}

func (b *HTTPBlobstore) Get(id string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/blobs/%s", b.baseURL, id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build get request")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(inv4err.ErrUnavailable, "get blob %s: %v", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(inv4err.ErrNotFound, "blob %s", id)
	}
	if resp.StatusCode >= 500 {
		return nil, errors.Wrapf(inv4err.ErrUnavailable, "get blob %s: status %d", id, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, errors.Errorf("get blob %s: status %d", id, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read blob body %s", id)
	}
	return data, nil
}
