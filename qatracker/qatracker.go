// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package qatracker is a client for the Ubuntu QA tracker's XML-RPC
// interface. A Client is usable as soon as NewClient returns: construction
// probes the endpoint and records the caller's access level, which gates
// every mutating call. Remote records arrive as loosely-typed association
// lists and are decoded through an explicit per-kind field table.
package qatracker

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/kolo/xmlrpc"
)

var logger = loggo.GetLogger("archivetools.qatracker")

// caller abstracts the XML-RPC transport for the client.
type caller interface {
	Call(serviceMethod string, args interface{}, reply interface{}) error
}

// Config describes how to reach the tracker.
type Config struct {
	// URL is the XML-RPC endpoint, eg
	// "http://iso.qa.ubuntu.com/xmlrpc.php".
	URL string

	// Username and Password, when both set, are sent as HTTP Basic
	// authentication on every request.
	Username string
	Password string

	// Transport overrides the HTTP transport used for requests.
	Transport http.RoundTripper
}

// Client is a connected QA tracker client.
type Client struct {
	rpc    caller
	access string
}

// NewClient connects to the tracker, probing the endpoint and querying
// the caller's access level. Construction fails if either fails.
func NewClient(cfg Config) (*Client, error) {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Username != "" && cfg.Password != "" {
		auth := base64.StdEncoding.EncodeToString(
			[]byte(cfg.Username + ":" + cfg.Password))
		transport = &basicAuthTransport{
			next:          transport,
			authorization: "Basic " + auth,
		}
	}
	rpc, err := xmlrpc.NewClient(cfg.URL, transport)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot connect to QA tracker %q", cfg.URL)
	}

	// Call listMethods() so if something is wrong we know it immediately.
	var methods interface{}
	if err := rpc.Call("system.listMethods", nil, &methods); err != nil {
		return nil, errors.Annotatef(err, "cannot probe QA tracker %q", cfg.URL)
	}

	var access interface{}
	if err := rpc.Call("qatracker.get_access", nil, &access); err != nil {
		return nil, errors.Annotate(err, "cannot determine QA tracker access level")
	}

	client := &Client{rpc: rpc, access: toStr(access)}
	logger.Debugf("connected to QA tracker %q with access %q", cfg.URL, client.access)
	return client, nil
}

// Access returns the access level granted to the client's credentials.
func (c *Client) Access() string {
	return c.access
}

// checkAccess fails unless the client's access level is one of the given
// levels.
func (c *Client) checkAccess(levels ...string) error {
	for _, level := range levels {
		if c.access == level {
			return nil
		}
	}
	return errors.Forbiddenf("access denied, you need %q but are %q", levels[0], c.access)
}

// getRecords performs a list call and returns the raw record maps.
func (c *Client) getRecords(method string, args ...interface{}) ([]map[string]interface{}, error) {
	logger.Tracef("calling %s %v", method, args)
	var raw interface{}
	if err := c.rpc.Call(method, args, &raw); err != nil {
		return nil, errors.Annotatef(err, "%s failed", method)
	}
	list, _ := raw.([]interface{})
	records := make([]map[string]interface{}, 0, len(list))
	for _, entry := range list {
		if record, ok := entry.(map[string]interface{}); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// call performs a plain call, returning the raw reply.
func (c *Client) call(method string, args ...interface{}) (interface{}, error) {
	logger.Tracef("calling %s %v", method, args)
	var raw interface{}
	if err := c.rpc.Call(method, args, &raw); err != nil {
		return nil, errors.Annotatef(err, "%s failed", method)
	}
	return raw, nil
}

// GetBugs returns every bug reported on the tracker.
func (c *Client) GetBugs() ([]*Bug, error) {
	records, err := c.getRecords("qatracker.bugs.get_list", 0)
	if err != nil {
		return nil, errors.Trace(err)
	}
	bugs := make([]*Bug, len(records))
	for i, record := range records {
		bugs[i] = newBug(c, record)
	}
	return bugs, nil
}

// GetMilestones returns the milestones with any of the given statuses,
// defaulting to all of them.
func (c *Client) GetMilestones(statuses ...Status) ([]*Milestone, error) {
	codes, err := resolveStatuses(MilestoneStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := c.getRecords("qatracker.milestones.get_list", codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	milestones := make([]*Milestone, len(records))
	for i, record := range records {
		milestones[i] = newMilestone(c, record)
	}
	return milestones, nil
}

// GetProducts returns the products with any of the given statuses,
// defaulting to all of them.
func (c *Client) GetProducts(statuses ...Status) ([]*Product, error) {
	codes, err := resolveStatuses(ProductStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := c.getRecords("qatracker.products.get_list", codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	products := make([]*Product, len(records))
	for i, record := range records {
		products[i] = newProduct(c, record)
	}
	return products, nil
}

// GetRebuilds returns the rebuild requests with any of the given
// statuses, defaulting to all of them.
func (c *Client) GetRebuilds(statuses ...Status) ([]*Rebuild, error) {
	codes, err := resolveStatuses(RebuildStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := c.getRecords("qatracker.rebuilds.get_list", codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rebuilds := make([]*Rebuild, len(records))
	for i, record := range records {
		rebuilds[i] = newRebuild(c, record)
	}
	return rebuilds, nil
}

// GetSeries returns the series with any of the given statuses, defaulting
// to all of them.
func (c *Client) GetSeries(statuses ...Status) ([]*Series, error) {
	codes, err := resolveStatuses(MilestoneSeriesStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := c.getRecords("qatracker.series.get_list", codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	series := make([]*Series, len(records))
	for i, record := range records {
		series[i] = newSeries(c, record)
	}
	return series, nil
}

// FindProduct returns the active product whose title matches name
// case-insensitively, or whose id matches a numeric name.
func (c *Client) FindProduct(name string) (*Product, error) {
	products, err := c.GetProducts(ByCode(0))
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, product := range products {
		if strings.EqualFold(product.Title, name) || fmt.Sprint(product.ID) == name {
			return product, nil
		}
	}
	return nil, errors.NotFoundf("product %q", name)
}

// basicAuthTransport injects an HTTP Basic Authorization header into
// every request.
type basicAuthTransport struct {
	next          http.RoundTripper
	authorization string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", t.authorization)
	return t.next.RoundTrip(req)
}
