// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"fmt"
	"reflect"

	"github.com/juju/errors"
)

// RoutingEntry describes where builds of a source are routed: a mapping
// from destination names to route lists, each route naming an archive
// reference and a pocket.
type RoutingEntry struct {
	ks           *KernelSeries
	source       *SourceEntry
	name         string
	destinations map[string][][]string
}

// newRoutingEntry builds a routing view from inline routing data or a
// string alias resolved against the owning series routing table.
// Destinations overridden to null are dropped.
func newRoutingEntry(ks *KernelSeries, source *SourceEntry, data interface{}) (*RoutingEntry, error) {
	name := fmt.Sprintf("%s:%s", source.series.Codename(), source.name)
	if alias, ok := data.(string); ok {
		table := source.series.RoutingTable()
		if table == nil {
			return nil, errors.NewNotValid(nil, fmt.Sprintf(
				"unable to map routing alias %q, no series routing table", alias))
		}
		entry, ok := table[alias]
		if !ok {
			return nil, errors.NewNotValid(nil, fmt.Sprintf(
				"unable to map routing alias %q, not listed in series routing table", alias))
		}
		name = alias
		data = entry
	}

	destinations := make(map[string][][]string)
	for key, value := range asAttrs(data) {
		dest, ok := toString(key)
		if !ok || value == nil {
			continue
		}
		routes, ok := value.([]interface{})
		if !ok {
			continue
		}
		list := make([][]string, 0, len(routes))
		for _, route := range routes {
			list = append(list, stringSlice(route))
		}
		destinations[dest] = list
	}
	return &RoutingEntry{ks: ks, source: source, name: name, destinations: destinations}, nil
}

// Source returns the owning source.
func (r *RoutingEntry) Source() *SourceEntry {
	return r.source
}

// Name returns the routing name; for aliased routing this is the alias.
func (r *RoutingEntry) Name() string {
	return r.name
}

// Destinations returns the destination table.
func (r *RoutingEntry) Destinations() map[string][][]string {
	return r.destinations
}

// LookupDestination returns the routes for the named destination, or nil
// when the destination is not routed.
func (r *RoutingEntry) LookupDestination(dest string) [][]string {
	return r.destinations[dest]
}

// PrimaryDestination returns the first route for the named destination,
// or nil when the destination is not routed.
func (r *RoutingEntry) PrimaryDestination(dest string) []string {
	routes := r.destinations[dest]
	if len(routes) == 0 {
		return nil
	}
	return routes[0]
}

// Equal reports whether both routing views carry the same destinations.
func (r *RoutingEntry) Equal(other *RoutingEntry) bool {
	return other != nil && reflect.DeepEqual(r.destinations, other.destinations)
}

func (r *RoutingEntry) String() string {
	return fmt.Sprintf("%v", r.destinations)
}

// RepoEntry identifies a git repository by URL and branch. The document
// form is a one or two element list; a missing branch means "master".
type RepoEntry struct {
	url    string
	branch string
}

// newRepoEntry normalizes raw repo data, either the list form or a
// mapping with url and branch keys. Nil data yields a nil entry.
func newRepoEntry(data interface{}) *RepoEntry {
	switch repo := data.(type) {
	case []interface{}:
		list := stringSlice(data)
		entry := &RepoEntry{branch: "master"}
		if len(list) > 0 {
			entry.url = list[0]
		}
		if len(list) > 1 {
			entry.branch = list[1]
		}
		return entry
	case map[interface{}]interface{}:
		m := attrs(repo)
		return &RepoEntry{url: m.str("url"), branch: m.str("branch")}
	}
	return nil
}

// URL returns the repository URL.
func (r *RepoEntry) URL() string {
	return r.url
}

// Branch returns the repository branch.
func (r *RepoEntry) Branch() string {
	return r.branch
}

// Equal reports whether both entries name the same repository branch.
func (r *RepoEntry) Equal(other *RepoEntry) bool {
	return other != nil && r.url == other.url && r.branch == other.branch
}

func (r *RepoEntry) String() string {
	return fmt.Sprintf("%s %s", r.url, r.branch)
}
