// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"fmt"
	"sort"
)

// SeriesEntry is a view of a single series definition, with the document
// defaults merged in.
type SeriesEntry struct {
	ks   *KernelSeries
	name string
	data attrs
}

// Name returns the series key, eg "22.04".
func (s *SeriesEntry) Name() string {
	return s.name
}

// Codename returns the series codename, eg "jammy".
func (s *SeriesEntry) Codename() string {
	return s.data.str("codename")
}

// Development reports whether this is the development series.
func (s *SeriesEntry) Development() bool {
	return s.data.bool("development", false)
}

// Supported reports whether the series is supported.
func (s *SeriesEntry) Supported() bool {
	return s.data.bool("supported", false)
}

// LTS reports whether the series is a long term support release.
func (s *SeriesEntry) LTS() bool {
	return s.data.bool("lts", false)
}

// ESM reports whether the series is in extended security maintenance.
func (s *SeriesEntry) ESM() bool {
	return s.data.bool("esm", false)
}

// Opening reports whether the series has an opening gate defined and
// still closed in some respect.
func (s *SeriesEntry) Opening() bool {
	if !s.data.has("opening") {
		return false
	}
	if allow, ok := s.data.value("opening").(bool); ok && !allow {
		return false
	}
	return true
}

// OpeningReady reports whether the series is ready with respect to all of
// the named opening flags. A series with no opening gate is always ready;
// a bare boolean gate inverts; otherwise every named flag must be present
// and enabled in the gate mapping.
func (s *SeriesEntry) OpeningReady(flags ...string) bool {
	if !s.data.has("opening") {
		return true
	}
	gate := s.data.value("opening")
	if gate == nil {
		return false
	}
	if allow, ok := gate.(bool); ok {
		return !allow
	}
	allow := asAttrs(gate)
	for _, flag := range flags {
		value, ok := allow[flag]
		if !ok || value == nil {
			return false
		}
		if enabled, isBool := value.(bool); isBool && !enabled {
			return false
		}
	}
	return true
}

// RoutingTable returns the series routing table, mapping alias names to
// their destination definitions, or nil when the series has none.
func (s *SeriesEntry) RoutingTable() map[string]interface{} {
	table := asAttrs(s.data.value("routing-table"))
	if table == nil {
		return nil
	}
	result := make(map[string]interface{}, len(table))
	for key, value := range table {
		if name, ok := toString(key); ok {
			result[name] = value
		}
	}
	return result
}

// Sources returns the kernel sources of the series, ordered by source key.
func (s *SeriesEntry) Sources() []*SourceEntry {
	sources := asAttrs(s.data.value("sources"))
	keys := make([]string, 0, len(sources))
	for key := range sources {
		if name, ok := toString(key); ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	result := make([]*SourceEntry, 0, len(keys))
	for _, key := range keys {
		result = append(result, &SourceEntry{
			ks:     s.ks,
			series: s,
			name:   key,
			data:   asAttrs(sources[key]),
		})
	}
	return result
}

// LookupSource returns the named source, or nil when the series has no
// such source.
func (s *SeriesEntry) LookupSource(sourceKey string) *SourceEntry {
	sources := asAttrs(s.data.value("sources"))
	data, ok := sources[sourceKey]
	if !ok {
		return nil
	}
	return &SourceEntry{ks: s.ks, series: s, name: sourceKey, data: asAttrs(data)}
}

// Equal reports whether both views name the same series.
func (s *SeriesEntry) Equal(other *SeriesEntry) bool {
	return other != nil && s.name == other.name
}

func (s *SeriesEntry) String() string {
	return fmt.Sprintf("%s (%s)", s.name, s.Codename())
}
