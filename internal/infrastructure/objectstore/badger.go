package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgraph-io/badger"
)

// Key prefixes inside the Badger keyspace.
const (
	dataPrefix = "blob/data/"
	typePrefix = "blob/type/"
)

// Logger is the logging interface used by BadgerGateway.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// badgerLogger adapts Logger to badger's printf-style logger.
type badgerLogger struct {
	log Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// BadgerConfig contains settings for BadgerGateway.
type BadgerConfig struct {
	// Dir holds the Badger key and value logs.
	Dir string

	// BaseURL is joined with the object key to form locators.
	BaseURL string

	// Logger receives Badger's internal messages. Nil discards them.
	Logger Logger
}

// BadgerGateway stores blobs in an embedded Badger database.
type BadgerGateway struct {
	db      *badger.DB
	baseURL string
}

// OpenBadgerGateway opens (or creates) the Badger database in cfg.Dir.
func OpenBadgerGateway(cfg BadgerConfig) (*BadgerGateway, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("objectstore: badger dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{log: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}

	return &BadgerGateway{
		db:      db,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Close flushes and closes the underlying database.
func (g *BadgerGateway) Close() error {
	if err := g.db.Close(); err != nil {
		return fmt.Errorf("closing badger store: %w", err)
	}
	return nil
}

// Put stores blob under a fresh key and returns BaseURL/<key>.
func (g *BadgerGateway) Put(ctx context.Context, blob Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(blob.Data) == 0 {
		return "", ErrEmptyBlob
	}

	key := ObjectKey(blob.Filename)
	err := g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataPrefix+key), blob.Data); err != nil {
			return err
		}
		return txn.Set([]byte(typePrefix+key), []byte(blob.ContentType))
	})
	if err != nil {
		return "", fmt.Errorf("storing %q: %w", blob.Filename, err)
	}

	return g.baseURL + "/" + url.PathEscape(key), nil
}

// Delete removes the object a locator points to.
func (g *BadgerGateway) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := KeyFromLocator(locator)
	if err != nil {
		return err
	}

	err = g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(dataPrefix + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(typePrefix + key))
	})
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Get returns the stored object for key.
// Returns ErrNotFound if it does not exist.
func (g *BadgerGateway) Get(ctx context.Context, key string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}

	blob := Blob{Filename: key}
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + key))
		if err != nil {
			return err
		}
		blob.Data, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get([]byte(typePrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			blob.ContentType = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Blob{}, ErrNotFound
		}
		return Blob{}, fmt.Errorf("reading %q: %w", key, err)
	}
	return blob, nil
}
