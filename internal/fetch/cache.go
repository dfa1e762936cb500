package fetch

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stagedates/internal/assert"
	"stagedates/internal/chrono"
	"stagedates/internal/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_cache_get = "cache.get"
	report_cache_put = "cache.put"
)

var errPageNotFound = badger.ErrKeyNotFound

type cachedPage struct {
	Url       string
	Html      string
	ExpiresAt int64
}

// CachedFetcher serves pages from a badger store while they are younger than
// the ttl and falls back to the inner Fetcher otherwise. Failed fetches are
// never cached.
type CachedFetcher struct {
	inner Fetcher
	db    *badger.DB
	ttl   time.Duration
	time  chrono.API
	tel   telemetry.API
}

func NewCachedFetcher(inner Fetcher, db *badger.DB, ttl time.Duration, time chrono.API, tel telemetry.API) CachedFetcher {
	assert.NotNil(inner, "inner fetcher")
	assert.NotNil(db, "badger db")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "telemetry")

	return CachedFetcher{
		inner: inner,
		db:    db,
		ttl:   ttl,
		time:  time,
		tel:   telemetry.NewScopedAPI("fetch", tel),
	}
}

// cacheKey normalizes the url so trivially different spellings of the same
// page share an entry.
func cacheKey(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return "page:" + normalized, nil
}

func (c CachedFetcher) get(ctx context.Context, key string) (cachedPage, error) {
	_, span := tracer.Start(ctx, "cache.get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	var page cachedPage
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return gob.NewDecoder(bytes.NewReader(serialized)).Decode(&page)
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "read cached page")
		}
		return cachedPage{}, err
	}

	if c.time.Now().Unix() >= page.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))
		err = c.db.Update(func(tx *badger.Txn) error {
			return tx.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete expired key")
		}
		return cachedPage{}, errPageNotFound
	}

	return page, nil
}

func (c CachedFetcher) put(key string, page cachedPage) error {
	buff := bytes.NewBuffer(nil)
	err := gob.NewEncoder(buff).Encode(page)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), buff.Bytes())
	})
}

func (c CachedFetcher) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	key, err := cacheKey(link)
	if err != nil {
		return nil, fmt.Errorf("cache key for %s: %w", link, err)
	}

	page, err := c.get(ctx, key)
	if err == nil {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Html))
		if err == nil {
			doc.Url, _ = url.Parse(page.Url)
			c.tel.ReportDebug("cache hit", link)
			return doc, nil
		}
		c.tel.ReportWarning(report_cache_get, link, err)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		c.tel.ReportWarning(report_cache_get, link, err)
	}

	doc, err := c.inner.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}

	html, err := doc.Html()
	if err != nil {
		c.tel.ReportWarning(report_cache_put, link, err)
		return doc, nil
	}
	finalUrl := link
	if doc.Url != nil {
		finalUrl = doc.Url.String()
	}
	err = c.put(key, cachedPage{
		Url:       finalUrl,
		Html:      html,
		ExpiresAt: c.time.Now().Add(c.ttl).Unix(),
	})
	if err != nil {
		c.tel.ReportWarning(report_cache_put, link, err)
	}
	return doc, nil
}

// OpenCache opens (or creates) the badger store used by CachedFetcher, an
// empty dir keeps everything in memory.
func OpenCache(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open page cache: %w", err)
	}
	return db, nil
}
