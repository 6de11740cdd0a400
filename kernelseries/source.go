// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"fmt"
	"sort"

	"github.com/juju/errors"
)

// SourceEntry is a view of a kernel source definition within a series.
type SourceEntry struct {
	ks     *KernelSeries
	series *SeriesEntry
	name   string
	data   attrs
}

// Name returns the source key, eg "linux-aws".
func (s *SourceEntry) Name() string {
	return s.name
}

// Series returns the owning series.
func (s *SourceEntry) Series() *SeriesEntry {
	return s.series
}

// Versions returns the version list for the source. An absent list is
// resolved through the derived-from source, then the copy-forward source.
// A derivation chain that loops back on itself is not valid.
func (s *SourceEntry) Versions() ([]string, error) {
	return s.versions(make(map[string]bool))
}

func (s *SourceEntry) versions(visited map[string]bool) ([]string, error) {
	id := s.series.name + ":" + s.name
	if visited[id] {
		return nil, errors.NewNotValid(nil, fmt.Sprintf("version derivation cycle at %s", id))
	}
	visited[id] = true

	if s.data.has("versions") {
		return s.data.stringList("versions"), nil
	}
	derived, err := s.DerivedFrom()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if derived != nil {
		return derived.versions(visited)
	}
	copied, err := s.CopyForward()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if copied != nil {
		return copied.versions(visited)
	}
	return nil, nil
}

// Version returns the latest version of the source, or "" when the
// source has no versions.
func (s *SourceEntry) Version() (string, error) {
	versions, err := s.Versions()
	if err != nil {
		return "", errors.Trace(err)
	}
	if len(versions) == 0 {
		return "", nil
	}
	return versions[len(versions)-1], nil
}

// DerivedFrom returns the source this one is derived from, or nil.
func (s *SourceEntry) DerivedFrom() (*SourceEntry, error) {
	if !s.data.has("derived-from") {
		return nil, nil
	}
	return s.sourceReference("derived-from")
}

// CopyForward returns the source this one copies forward from, or nil.
// The legacy boolean form maps true to the derived-from source.
func (s *SourceEntry) CopyForward() (*SourceEntry, error) {
	if !s.data.has("copy-forward") {
		return nil, nil
	}
	if flag, ok := s.data.value("copy-forward").(bool); ok {
		if !flag {
			return nil, nil
		}
		return s.DerivedFrom()
	}
	return s.sourceReference("copy-forward")
}

// sourceReference resolves a [series-key, source-key] reference attribute.
func (s *SourceEntry) sourceReference(which string) (*SourceEntry, error) {
	ref := stringSlice(s.data.value(which))
	if len(ref) != 2 {
		return nil, errors.NewNotValid(nil, fmt.Sprintf("malformed %s reference on %s", which, s))
	}
	series, err := s.ks.LookupSeries(Selector{Name: ref[0]})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if series == nil {
		return nil, errors.NewNotValid(nil, fmt.Sprintf("%s reference on %s names unknown series %q", which, s, ref[0]))
	}
	source := series.LookupSource(ref[1])
	if source == nil {
		return nil, errors.NewNotValid(nil, fmt.Sprintf("%s reference on %s names unknown source %s:%s", which, s, ref[0], ref[1]))
	}
	return source, nil
}

// Development reports whether the source is in development, defaulting to
// the owning series flag.
func (s *SourceEntry) Development() bool {
	return s.data.bool("development", s.series.Development())
}

// Supported reports whether the source is supported, defaulting to the
// owning series flag.
func (s *SourceEntry) Supported() bool {
	return s.data.bool("supported", s.series.Supported())
}

// SevereOnly reports whether only severe issues are fixed in the source.
func (s *SourceEntry) SevereOnly() bool {
	return s.data.bool("severe-only", false)
}

// Backport reports whether the source is a backport.
func (s *SourceEntry) Backport() bool {
	return s.data.bool("backport", false)
}

// Private reports whether the source is private.
func (s *SourceEntry) Private() bool {
	return s.data.bool("private", false)
}

// Stakeholder returns the stakeholder contact for the source, if any.
func (s *SourceEntry) Stakeholder() string {
	return s.data.str("stakeholder")
}

// SwmData returns the free-form metadata block reserved for the external
// stable workflow manager.
func (s *SourceEntry) SwmData() interface{} {
	return s.data.value("swm")
}

// InvalidTasks returns the workflow task names which are never valid for
// this source.
func (s *SourceEntry) InvalidTasks() []string {
	return s.data.stringList("invalid-tasks")
}

// TestableFlavours returns the flavours of this source that are subject
// to testing. Flavours with neither arches nor clouds are omitted.
func (s *SourceEntry) TestableFlavours() []*TestableFlavourEntry {
	testing := asAttrs(s.data.value("testing"))
	flavours := asAttrs(testing.value("flavours"))
	keys := make([]string, 0, len(flavours))
	for key := range flavours {
		if name, ok := toString(key); ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	var result []*TestableFlavourEntry
	for _, key := range keys {
		fdata := asAttrs(flavours[key])
		if len(fdata) == 0 {
			continue
		}
		result = append(result, &TestableFlavourEntry{
			name:   key,
			arches: fdata.stringList("arches"),
			clouds: fdata.stringList("clouds"),
		})
	}
	return result
}

// Routing returns the archive routing for the source. A source without an
// explicit routing entry uses the devel, esm or default alias according to
// the series flags; an explicitly null routing returns nil.
func (s *SourceEntry) Routing() (*RoutingEntry, error) {
	name := "default"
	if s.series.Development() {
		name = "devel"
	}
	if s.series.ESM() {
		name = "esm"
	}
	var data interface{} = name
	if s.data.has("routing") {
		data = s.data.value("routing")
		if data == nil {
			return nil, nil
		}
	}
	return newRoutingEntry(s.ks, s, data)
}

// Packages returns the packages built from the source, ordered by key.
func (s *SourceEntry) Packages() []*PackageEntry {
	packages := asAttrs(s.data.value("packages"))
	keys := make([]string, 0, len(packages))
	for key := range packages {
		if name, ok := toString(key); ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	result := make([]*PackageEntry, 0, len(keys))
	for _, key := range keys {
		result = append(result, &PackageEntry{
			ks:     s.ks,
			source: s,
			name:   key,
			data:   asAttrs(packages[key]),
		})
	}
	return result
}

// LookupPackage returns the named package, or nil when the source has no
// such package.
func (s *SourceEntry) LookupPackage(packageKey string) *PackageEntry {
	packages := asAttrs(s.data.value("packages"))
	data, ok := packages[packageKey]
	if !ok {
		return nil
	}
	return &PackageEntry{ks: s.ks, source: s, name: packageKey, data: asAttrs(data)}
}

// Snaps returns the snaps built from the source, ordered by key.
func (s *SourceEntry) Snaps() []*SnapEntry {
	snaps := asAttrs(s.data.value("snaps"))
	keys := make([]string, 0, len(snaps))
	for key := range snaps {
		if name, ok := toString(key); ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	result := make([]*SnapEntry, 0, len(keys))
	for _, key := range keys {
		result = append(result, newSnapEntry(s.ks, s, key, asAttrs(snaps[key])))
	}
	return result
}

// LookupSnap returns the named snap, or nil when the source has no such
// snap.
func (s *SourceEntry) LookupSnap(snapKey string) *SnapEntry {
	snaps := asAttrs(s.data.value("snaps"))
	data, ok := snaps[snapKey]
	if !ok {
		return nil
	}
	return newSnapEntry(s.ks, s, snapKey, asAttrs(data))
}

// Equal reports whether both views name the same source in the same
// series.
func (s *SourceEntry) Equal(other *SourceEntry) bool {
	return other != nil && s.name == other.name && s.series.Equal(other.series)
}

func (s *SourceEntry) String() string {
	return fmt.Sprintf("%s %s", s.series.name, s.name)
}

// TestableFlavourEntry names a testable flavour of a source together with
// the arches and clouds it is tested on.
type TestableFlavourEntry struct {
	name   string
	arches []string
	clouds []string
}

// Name returns the flavour name.
func (f *TestableFlavourEntry) Name() string {
	return f.name
}

// Arches returns the architectures the flavour is tested on.
func (f *TestableFlavourEntry) Arches() []string {
	return f.arches
}

// Clouds returns the clouds the flavour is tested on.
func (f *TestableFlavourEntry) Clouds() []string {
	return f.clouds
}
