// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/juju/errors"
	jujuhttp "github.com/juju/http/v2"
	"github.com/juju/utils/v3"
)

// DefaultURL is the canonical location of the kernel series document.
const DefaultURL = "https://git.launchpad.net/~canonical-kernel/+git/kteam-tools/plain/info/kernel-series.yaml"

// localEnv, when set in the environment, selects the local working tree
// copy of the document instead of the canonical one.
const localEnv = "USE_LOCAL_KERNEL_SERIES_YAML"

// defaultLocalPath is where a kteam-tools style checkout keeps the
// document relative to the working directory.
var defaultLocalPath = filepath.Join("info", "kernel-series.yaml")

// Cache holds fetched document text keyed by source URL. A Cache is never
// refreshed implicitly; Invalidate drops a stale entry so the next load
// fetches it again.
type Cache struct {
	mu   sync.Mutex
	text map[string][]byte
}

// NewCache returns an empty document cache.
func NewCache() *Cache {
	return &Cache{text: make(map[string][]byte)}
}

// Invalidate forgets any cached text for the given URL.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.text, url)
}

func (c *Cache) get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.text[url]
	return text, ok
}

func (c *Cache) put(url string, text []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text[url] = text
}

// processCache backs loads of the default document locations, giving the
// historical fetch-once-per-process behaviour.
var processCache = NewCache()

// Config describes where to obtain the kernel series document.
type Config struct {
	// URL is an explicit document location, http(s) or file scheme.
	// When set it is fetched directly, bypassing the process cache.
	URL string

	// Data supplies the document text inline, taking precedence over
	// any URL.
	Data []byte

	// UseLocal selects the local working tree copy of the document
	// instead of the canonical URL. The USE_LOCAL_KERNEL_SERIES_YAML
	// environment variable implies it.
	UseLocal bool

	// Client is the HTTP client used to fetch the document. A default
	// client is constructed when nil.
	Client *jujuhttp.Client

	// Cache overrides the cache used for default document locations.
	Cache *Cache
}

func (cfg Config) document() ([]byte, error) {
	if cfg.Data != nil {
		return cfg.Data, nil
	}

	docURL := cfg.URL
	cache := cfg.Cache
	if docURL == "" {
		if cfg.UseLocal || os.Getenv(localEnv) != "" {
			local, err := filepath.Abs(defaultLocalPath)
			if err != nil {
				return nil, errors.Trace(err)
			}
			docURL = utils.MakeFileURL(local)
		} else {
			docURL = DefaultURL
		}
		if cache == nil {
			cache = processCache
		}
	}

	if cache != nil {
		if text, ok := cache.get(docURL); ok {
			return text, nil
		}
	}

	client := cfg.Client
	if client == nil {
		client = jujuhttp.NewClient(jujuhttp.WithLogger(httpLogger))
	}
	text, err := fetchDocument(client, docURL)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cache != nil {
		cache.put(docURL, text)
	}
	return text, nil
}

// fetchDocument retrieves the document text from an http(s) or file URL.
func fetchDocument(client *jujuhttp.Client, docURL string) ([]byte, error) {
	parsed, err := url.Parse(docURL)
	if err != nil {
		return nil, errors.Annotatef(err, "invalid kernel series URL %q", docURL)
	}
	if parsed.Scheme == "file" {
		text, err := os.ReadFile(parsed.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFoundf("%q", docURL)
			}
			return nil, errors.Trace(err)
		}
		return text, nil
	}

	resp, err := client.Get(context.TODO(), docURL)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot fetch %q", docURL)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, errors.NotFoundf("%q", docURL)
		case http.StatusUnauthorized:
			return nil, errors.Unauthorizedf("unauthorised access to URL %q", docURL)
		}
		return nil, errors.Errorf("cannot access URL %q, %q", docURL, resp.Status)
	}
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot read %q", docURL)
	}
	return text, nil
}
