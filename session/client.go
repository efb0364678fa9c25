package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every connection, timeout, and transport failure
// from the session store. Callers must not treat it as "no session".
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrRecordNotFound is returned when no live record exists for a session id.
var ErrRecordNotFound = errors.New("session record not found")

// ErrRecordCorrupt is returned when a stored blob cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

// ErrInvalidRecord is returned by Set for records that cannot be persisted.
var ErrInvalidRecord = errors.New("invalid session record")

// ErrClientClosed is returned by operations on a closed Client.
var ErrClientClosed = errors.New("session store client closed")

const (
	// DefaultKeyPrefix matches the key namespace used by connect-redis.
	DefaultKeyPrefix = "sess:"
	// DefaultOpTimeout bounds every store round trip.
	DefaultOpTimeout = 2 * time.Second

	touchMaxAttempts = 3
)

// Options tunes a Client.
type Options struct {
	// KeyPrefix is prepended to session ids to form store keys.
	KeyPrefix string
	// OpTimeout bounds each operation; expiry surfaces as ErrStoreUnavailable.
	OpTimeout time.Duration
}

func (o Options) normalize() Options {
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	return o
}

// Client is the process-wide handle to the session store.
//
// A Client connects lazily to its current URL on first use. Connect with a
// different URL tears the old connection down before dialing the new one,
// so a Client never holds two live connections. Store operations hold a read
// lock for their whole round trip and reconnection holds the write lock, so
// no operation ever observes a half-replaced connection.
type Client struct {
	mu     sync.RWMutex
	url    string
	rdb    *redis.Client
	closed bool

	opts Options
}

// NewClient returns a Client for url. It performs no I/O.
func NewClient(url string, opts Options) *Client {
	return &Client{
		url:  url,
		opts: opts.normalize(),
	}
}

// URL returns the store URL the client is currently bound to.
func (c *Client) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

// Connect makes sure the client holds a live connection to url.
//
// Connecting to the URL already held is a no-op. Connecting to a different
// URL closes the previous connection first; if the new store cannot be
// reached the client is left unconnected and bound to the new URL, and the
// next operation retries lazily.
func (c *Client) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	return c.connectLocked(ctx, url)
}

func (c *Client) connectLocked(ctx context.Context, url string) error {
	if c.rdb != nil && c.url == url {
		return nil
	}
	if url == "" {
		return fmt.Errorf("%w: empty store url", ErrStoreUnavailable)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if c.rdb != nil {
		_ = c.rdb.Close()
		c.rdb = nil
	}
	c.url = url

	rdb := redis.NewClient(redisOpts)

	pingCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	c.rdb = rdb
	return nil
}

// acquire returns the live connection with the read lock held. The caller
// must invoke release when its round trip is done.
func (c *Client) acquire(ctx context.Context) (*redis.Client, func(), error) {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return nil, nil, ErrClientClosed
		}
		if c.rdb != nil {
			return c.rdb, c.mu.RUnlock, nil
		}
		c.mu.RUnlock()

		c.mu.Lock()
		if !c.closed && c.rdb == nil {
			if err := c.connectLocked(ctx, c.url); err != nil {
				c.mu.Unlock()
				return nil, nil, err
			}
		}
		c.mu.Unlock()
	}
}

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opts.OpTimeout)
}

func (c *Client) key(id string) string {
	return c.opts.KeyPrefix + id
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Get fetches the record for id. It returns ErrRecordNotFound when the key
// is absent or the record is past its ExpiresAt.
//
//	Performance: 1 GET.
func (c *Client) Get(ctx context.Context, id string) (*Record, error) {
	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	data, err := rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, unavailable(err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	rec.ID = id

	if rec.Expired(time.Now()) {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// Set writes rec under its ID with the given ttl in a single command, so the
// principal and the expiry can never be observed half-applied.
//
//	Performance: 1 SET.
func (c *Client) Set(ctx context.Context, rec *Record, ttl time.Duration) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: missing session id", ErrInvalidRecord)
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidRecord)
	}

	data, err := Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := rdb.Set(ctx, c.key(rec.ID), data, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete removes the record for id. Deleting an absent record is not an error.
//
//	Performance: 1 DEL.
func (c *Client) Delete(ctx context.Context, id string) error {
	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := rdb.Del(ctx, c.key(id)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Touch pushes the expiry of an existing record to now+ttl. The blob's
// ExpiresAt and the key TTL move together inside one optimistic transaction.
//
//	Performance: WATCH + GET + MULTI/SET/EXEC, retried on contention.
func (c *Client) Touch(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidRecord)
	}

	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	key := c.key(id)
	touch := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrRecordNotFound
			}
			return err
		}

		rec, err := Decode(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
		}
		rec.ExpiresAt = time.Now().Add(ttl).Unix()

		blob, err := Encode(rec)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, blob, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < touchMaxAttempts; attempt++ {
		err = rdb.Watch(ctx, touch, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrRecordCorrupt):
			return err
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return unavailable(err)
		}
	}
	return unavailable(err)
}

// Ping returns a point-in-time availability check and its latency.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return time.Since(start), err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return time.Since(start), unavailable(err)
	}
	return time.Since(start), nil
}

// Close tears down the connection. Subsequent operations fail with
// ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	return err
}
