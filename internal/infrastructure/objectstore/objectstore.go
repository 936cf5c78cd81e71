package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Errors returned by gateways.
var (
	// ErrEmptyBlob is returned when Put is called with no data.
	ErrEmptyBlob = errors.New("objectstore: empty blob")

	// ErrInvalidLocator is returned when no object key can be derived from a locator.
	ErrInvalidLocator = errors.New("objectstore: invalid locator")

	// ErrNotFound is returned by Get when the object does not exist.
	ErrNotFound = errors.New("objectstore: object not found")
)

// Blob is one uploaded file held in memory.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Gateway puts and deletes blobs.
type Gateway interface {
	// Put stores blob under a fresh key and returns its locator.
	Put(ctx context.Context, blob Blob) (string, error)

	// Delete removes the object a locator points to.
	// Deleting an absent object is not an error.
	Delete(ctx context.Context, locator string) error
}

// Reader is implemented by gateways that can serve objects back.
type Reader interface {
	Get(ctx context.Context, key string) (Blob, error)
}

// ObjectKey builds a unique key "<uuid>-<filename>" with whitespace removed
// from the filename.
func ObjectKey(filename string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, path.Base(strings.ReplaceAll(filename, "\\", "/")))

	if compact == "" || compact == "." || compact == "/" {
		return uuid.NewString()
	}
	return uuid.NewString() + "-" + compact
}

// KeyFromLocator returns the object key a locator refers to: the unescaped
// last path segment.
func KeyFromLocator(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}

	p := u.EscapedPath()
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	key, err := url.PathUnescape(p)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}
	if key == "" {
		return "", fmt.Errorf("%w: %q has no object key", ErrInvalidLocator, locator)
	}
	return key, nil
}

// timeoutGateway bounds each call with its own deadline.
type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

// WithTimeout wraps g so that every Put and Delete runs under a fresh
// timeout derived from the caller's context. A non-positive timeout
// returns g unchanged.
func WithTimeout(g Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		return g
	}
	return &timeoutGateway{next: g, timeout: timeout}
}

func (t *timeoutGateway) Put(ctx context.Context, blob Blob) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Put(ctx, blob)
}

func (t *timeoutGateway) Delete(ctx context.Context, locator string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Delete(ctx, locator)
}

// Get forwards to the wrapped gateway when it is a Reader.
func (t *timeoutGateway) Get(ctx context.Context, key string) (Blob, error) {
	r, ok := t.next.(Reader)
	if !ok {
		return Blob{}, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return r.Get(ctx, key)
}
