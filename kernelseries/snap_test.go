// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/ubuntu-archive-tools/kernelseries"
)

type snapSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&snapSuite{})

func (s *snapSuite) lookupSnap(c *gc.C, doc, snapName string) *kernelseries.SnapEntry {
	ks := parse(c, doc)
	series, err := ks.LookupSeries(kernelseries.Selector{Name: "A"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(series, gc.NotNil)
	source := series.LookupSource("linux")
	c.Assert(source, gc.NotNil)
	snap := source.LookupSnap(snapName)
	c.Assert(snap, gc.NotNil)
	return snap
}

func (s *snapSuite) TestArchesTrackExpandToPublishTo(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          arches: ['amd64', 'arm64']
          track: '18'
`, "pc-kernel")
	c.Check(snap.PublishTo(), jc.DeepEquals, map[string][]string{
		"amd64": {"18"},
		"arm64": {"18"},
	})
	c.Check(snap.Arches(), jc.DeepEquals, []string{"amd64", "arm64"})
	c.Check(snap.Track(), gc.Equals, "18")
}

func (s *snapSuite) TestArchesWithoutTrackPublishToLatest(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          arches: ['amd64']
`, "pc-kernel")
	c.Check(snap.PublishTo(), jc.DeepEquals, map[string][]string{
		"amd64": {"latest"},
	})
}

func (s *snapSuite) TestExplicitPublishToKept(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          publish-to:
            amd64: ['18', 'latest']
`, "pc-kernel")
	c.Check(snap.PublishTo(), jc.DeepEquals, map[string][]string{
		"amd64": {"18", "latest"},
	})
}

func (s *snapSuite) TestStableExpandsFullLadder(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          stable: true
`, "pc-kernel")
	c.Check(snap.PromoteTo(), jc.DeepEquals, []string{"edge", "beta", "candidate", "stable"})
	c.Check(snap.Stable(), jc.IsTrue)
}

func (s *snapSuite) TestNotStableExpandsToCandidate(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          stable: false
`, "pc-kernel")
	c.Check(snap.PromoteTo(), jc.DeepEquals, []string{"edge", "beta", "candidate"})
	c.Check(snap.Stable(), jc.IsFalse)
}

func (s *snapSuite) TestPromoteToRiskPrefix(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          promote-to: beta
`, "pc-kernel")
	c.Check(snap.PromoteTo(), jc.DeepEquals, []string{"edge", "beta"})
	c.Check(snap.Stable(), jc.IsFalse)
	c.Check(snap.PromoteToRisk("edge"), jc.IsTrue)
	c.Check(snap.PromoteToRisk("beta"), jc.IsTrue)
	c.Check(snap.PromoteToRisk("candidate"), jc.IsFalse)
}

func (s *snapSuite) TestAbsentPromotionMeansEdgeOnly(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel: {}
`, "pc-kernel")
	c.Check(snap.PromoteTo(), jc.DeepEquals, []string{"edge"})
	c.Check(snap.Stable(), jc.IsFalse)
}

func (s *snapSuite) TestPromoteToListKept(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          promote-to: ['edge', 'beta', 'candidate', 'stable']
`, "pc-kernel")
	c.Check(snap.PromoteTo(), jc.DeepEquals, []string{"edge", "beta", "candidate", "stable"})
	c.Check(snap.Stable(), jc.IsTrue)
}

func (s *snapSuite) TestSnapFlagsAndRepo(c *gc.C) {
	snap := s.lookupSnap(c, `
'A':
  sources:
    linux:
      snaps:
        pc-kernel:
          primary: true
          gated: true
          qa: true
          hw-cert: true
          repo: ['git://kernel/pc-kernel', 'snap']
`, "pc-kernel")
	c.Check(snap.Primary(), jc.IsTrue)
	c.Check(snap.Gated(), jc.IsTrue)
	c.Check(snap.QA(), jc.IsTrue)
	c.Check(snap.HwCert(), jc.IsTrue)
	c.Assert(snap.Repo(), gc.NotNil)
	c.Check(snap.Repo().URL(), gc.Equals, "git://kernel/pc-kernel")
	c.Check(snap.Repo().Branch(), gc.Equals, "snap")
}
