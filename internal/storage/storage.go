// Package storage keeps image binaries in an object store under generated keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	apperrors "mediashare/internal/errors"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Backend is an object store. Delete of a missing key must succeed.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]ObjectInfo, error)
}

// Gateway fronts a Backend with key generation, public URLs and error translation.
type Gateway struct {
	backend   Backend
	publicURL string
	seq       atomic.Uint64
}

// NewGateway creates a gateway that serves objects below publicURL.
func NewGateway(backend Backend, publicURL string) *Gateway {
	return &Gateway{
		backend:   backend,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Put stores r under key and returns its public URL. Keys may be overwritten.
func (g *Gateway) Put(ctx context.Context, r io.Reader, size int64, contentType, key string) (string, error) {
	if err := g.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("%w: put %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return g.URLFor(key), nil
}

// Delete removes the object under key. Missing objects are not an error.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	if err := g.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return nil
}

// List returns every stored object.
func (g *Gateway) List(ctx context.Context) ([]ObjectInfo, error) {
	objects, err := g.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", apperrors.ErrStorageUnavailable, err)
	}
	return objects, nil
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// KeyFor derives a fresh key from the upload's original file name:
// <unix millis>-<process sequence base36>-<random hex><.ext>.
// The sequence rules out collisions inside one process; the random part
// makes cross-process collisions negligible.
func (g *Gateway) KeyFor(originalName string) string {
	seq := g.seq.Add(1)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, `\`, "/")))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s-%s%s", time.Now().UnixMilli(), strconv.FormatUint(seq, 36), random, ext)
}

// URLFor is the public URL of key.
func (g *Gateway) URLFor(key string) string {
	return g.publicURL + "/" + url.PathEscape(key)
}
