// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"fmt"
)

// PackageEntry is a view of a package built from a kernel source.
type PackageEntry struct {
	ks     *KernelSeries
	source *SourceEntry
	name   string
	data   attrs
}

// Name returns the package name.
func (p *PackageEntry) Name() string {
	return p.name
}

// Source returns the owning source.
func (p *PackageEntry) Source() *SourceEntry {
	return p.source
}

// Series returns the series owning the source.
func (p *PackageEntry) Series() *SeriesEntry {
	return p.source.series
}

// Type returns the package type tag, eg "main" or "meta".
func (p *PackageEntry) Type() string {
	return p.data.str("type")
}

// Repo returns the package repository, or nil when none is recorded.
func (p *PackageEntry) Repo() *RepoEntry {
	return newRepoEntry(p.data.value("repo"))
}

// Equal reports whether both views name the same package of the same
// source.
func (p *PackageEntry) Equal(other *PackageEntry) bool {
	return other != nil && p.name == other.name && p.source.Equal(other.source)
}

func (p *PackageEntry) String() string {
	return fmt.Sprintf("%s %s %s", p.source, p.name, p.Type())
}
