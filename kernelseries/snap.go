// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"fmt"
)

// promotionRisks is the snap promotion risk ladder, in promotion order.
var promotionRisks = []string{"edge", "beta", "candidate", "stable"}

// SnapEntry is a view of a snap built from a kernel source. Legacy
// publication fields are normalized when the view is built: arches plus
// track expand to a publish-to map, and the stable flag or a bare
// promote-to risk expand to a prefix of the promotion risk ladder.
type SnapEntry struct {
	ks     *KernelSeries
	source *SourceEntry
	name   string
	data   attrs

	publishTo map[string][]string
	promoteTo []string
	stable    bool
}

func newSnapEntry(ks *KernelSeries, source *SourceEntry, name string, data attrs) *SnapEntry {
	snap := &SnapEntry{ks: ks, source: source, name: name, data: data}

	// Convert arches/track to publish-to form.
	if data.has("publish-to") {
		publishTo := asAttrs(data.value("publish-to"))
		snap.publishTo = make(map[string][]string, len(publishTo))
		for key, value := range publishTo {
			if arch, ok := toString(key); ok {
				snap.publishTo[arch] = stringSlice(value)
			}
		}
	} else if data.has("arches") {
		track := data.str("track")
		if track == "" {
			track = "latest"
		}
		snap.publishTo = make(map[string][]string)
		for _, arch := range data.stringList("arches") {
			snap.publishTo[arch] = []string{track}
		}
	}

	// Convert the legacy stable flag to promote-to form, defaulting an
	// absent promote-to to edge only.
	promoteTo := data.value("promote-to")
	if promoteTo == nil {
		if stable, ok := data.value("stable").(bool); ok {
			if stable {
				promoteTo = "stable"
			} else {
				promoteTo = "candidate"
			}
		} else {
			promoteTo = "edge"
		}
	}
	switch target := promoteTo.(type) {
	case string:
		for _, risk := range promotionRisks {
			snap.promoteTo = append(snap.promoteTo, risk)
			if risk == target {
				break
			}
		}
	case []interface{}:
		snap.promoteTo = stringSlice(target)
	}

	// Keep the stable flag consistent with the expanded ladder.
	snap.stable = snap.PromoteToRisk("stable")
	return snap
}

// Name returns the snap name.
func (s *SnapEntry) Name() string {
	return s.name
}

// Source returns the owning source.
func (s *SnapEntry) Source() *SourceEntry {
	return s.source
}

// Series returns the series owning the source.
func (s *SnapEntry) Series() *SeriesEntry {
	return s.source.series
}

// Repo returns the snap repository, or nil when none is recorded.
func (s *SnapEntry) Repo() *RepoEntry {
	return newRepoEntry(s.data.value("repo"))
}

// Primary reports whether this is the primary snap of the source.
func (s *SnapEntry) Primary() bool {
	return s.data.bool("primary", false)
}

// Gated reports whether promotion of the snap is gated.
func (s *SnapEntry) Gated() bool {
	return s.data.bool("gated", false)
}

// Stable reports whether the snap is promoted all the way to stable.
func (s *SnapEntry) Stable() bool {
	return s.stable
}

// QA reports whether the snap is subject to QA testing.
func (s *SnapEntry) QA() bool {
	return s.data.bool("qa", false)
}

// HwCert reports whether the snap is subject to hardware certification.
func (s *SnapEntry) HwCert() bool {
	return s.data.bool("hw-cert", false)
}

// Arches returns the legacy arches list, or nil when the snap carries
// publish-to data directly.
func (s *SnapEntry) Arches() []string {
	return s.data.stringList("arches")
}

// Track returns the legacy track, or "" when the snap carries publish-to
// data directly.
func (s *SnapEntry) Track() string {
	return s.data.str("track")
}

// PublishTo returns the map from architecture to the tracks the snap is
// published to.
func (s *SnapEntry) PublishTo() map[string][]string {
	return s.publishTo
}

// PromoteTo returns the prefix of the promotion risk ladder the snap may
// be promoted through.
func (s *SnapEntry) PromoteTo() []string {
	return s.promoteTo
}

// PromoteToRisk reports whether the snap may be promoted to the named
// risk.
func (s *SnapEntry) PromoteToRisk(risk string) bool {
	for _, allowed := range s.promoteTo {
		if allowed == risk {
			return true
		}
	}
	return false
}

// Equal reports whether both views name the same snap of the same source.
func (s *SnapEntry) Equal(other *SnapEntry) bool {
	return other != nil && s.name == other.name && s.source.Equal(other.source)
}

func (s *SnapEntry) String() string {
	return fmt.Sprintf("%s %s", s.source, s.name)
}
