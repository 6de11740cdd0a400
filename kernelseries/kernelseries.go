// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package kernelseries exposes the kernel team's kernel-series.yaml
// document as a read-only object graph. The document maps series keys to
// series definitions, each carrying kernel sources with their packages,
// snaps and archive routing. A reserved top-level "defaults" mapping is
// merged beneath every series before any per-series override.
//
// Entry views are cheap and are rebuilt from the parsed document on every
// access; only the raw document text is cached, per URL, for the lifetime
// of the process.
package kernelseries

import (
	"sort"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/naturalsort"
	"gopkg.in/yaml.v2"
)

var logger = loggo.GetLogger("archivetools.kernelseries")
var httpLogger = loggo.GetLogger("archivetools.kernelseries.http")

// KernelSeries is a parsed kernel series document.
type KernelSeries struct {
	data     map[string]attrs
	keys     []string
	defaults attrs

	codenames   map[string]string
	development string
}

// New loads and parses a kernel series document as described by the
// given configuration.
func New(cfg Config) (*KernelSeries, error) {
	text, err := cfg.document()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return Parse(text)
}

// Parse parses kernel series document text.
func Parse(text []byte) (*KernelSeries, error) {
	var doc map[interface{}]interface{}
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, errors.Annotate(err, "cannot parse kernel series document")
	}

	ks := &KernelSeries{
		data:      make(map[string]attrs),
		codenames: make(map[string]string),
	}
	for key, value := range doc {
		name, ok := toString(key)
		if !ok {
			logger.Warningf("ignoring non-scalar series key %v", key)
			continue
		}
		ks.data[name] = asAttrs(value)
	}

	// The defaults mapping is not a series; pull it out before indexing.
	if defaults, ok := ks.data["defaults"]; ok {
		ks.defaults = defaults
		delete(ks.data, "defaults")
	}

	ks.keys = make([]string, 0, len(ks.data))
	for key := range ks.data {
		ks.keys = append(ks.keys, key)
	}
	sort.Strings(ks.keys)

	for _, key := range ks.keys {
		series := ks.data[key]
		if series == nil {
			continue
		}
		if series.bool("development", false) {
			ks.development = key
		}
		if codename := series.str("codename"); codename != "" {
			ks.codenames[codename] = key
		}
	}
	return ks, nil
}

// Selector identifies a series for LookupSeries. Exactly one of the
// fields must be set.
type Selector struct {
	// Name is the series key, eg "22.04".
	Name string

	// Codename is the series codename, eg "jammy".
	Codename string

	// Development selects the series flagged as development.
	Development bool
}

// LookupSeries returns the series matching the selector, or nil when no
// series matches. A selector with zero or more than one field set is not
// valid.
func (ks *KernelSeries) LookupSeries(sel Selector) (*SeriesEntry, error) {
	selected := 0
	if sel.Name != "" {
		selected++
	}
	if sel.Codename != "" {
		selected++
	}
	if sel.Development {
		selected++
	}
	if selected != 1 {
		return nil, errors.NewNotValid(nil, "exactly one of series name, codename or development required")
	}

	key := sel.Name
	switch {
	case sel.Codename != "":
		key = ks.codenames[sel.Codename]
	case sel.Development:
		key = ks.development
	}
	if _, ok := ks.data[key]; key == "" || !ok {
		return nil, nil
	}
	return ks.seriesEntry(key), nil
}

// Series returns every series in the document, ordered by series key.
func (ks *KernelSeries) Series() []*SeriesEntry {
	entries := make([]*SeriesEntry, 0, len(ks.keys))
	for _, key := range ks.keys {
		entries = append(entries, ks.seriesEntry(key))
	}
	return entries
}

// SortedSeries returns every series ordered naturally by series key, so
// "5.10" collates before "22.04".
func (ks *KernelSeries) SortedSeries() []*SeriesEntry {
	keys := append([]string(nil), ks.keys...)
	naturalsort.Sort(keys)
	entries := make([]*SeriesEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, ks.seriesEntry(key))
	}
	return entries
}

// seriesEntry builds a series view with the document defaults merged
// beneath the per-series data.
func (ks *KernelSeries) seriesEntry(key string) *SeriesEntry {
	data := make(attrs, len(ks.defaults)+len(ks.data[key]))
	for k, v := range ks.defaults {
		data[k] = v
	}
	for k, v := range ks.data[key] {
		data[k] = v
	}
	return &SeriesEntry{ks: ks, name: key, data: data}
}
