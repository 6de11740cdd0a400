// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/ubuntu-archive-tools/kernelseries"
)

type routingSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&routingSuite{})

func (s *routingSuite) lookupSource(c *gc.C, doc, seriesName, sourceName string) *kernelseries.SourceEntry {
	ks := parse(c, doc)
	series, err := ks.LookupSeries(kernelseries.Selector{Name: seriesName})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(series, gc.NotNil)
	source := series.LookupSource(sourceName)
	c.Assert(source, gc.NotNil)
	return source
}

const routingDocument = `
'A':
  codename: alpha
  routing-table:
    default:
      build: [['default-build', 'Release']]
      proposed: [['ubuntu', 'Proposed']]
    legacy:
      build: [['legacy-build', 'Release'], ['legacy-build2', 'Release']]
  sources:
    linux: {}
    linux-legacy:
      routing: legacy
    linux-unrouted:
      routing:
    linux-inline:
      routing:
        build: [['inline-build', 'Release']]
        proposed:
    linux-bad:
      routing: nonesuch
`

func (s *routingSuite) TestDefaultAlias(c *gc.C) {
	source := s.lookupSource(c, routingDocument, "A", "linux")
	routing, err := source.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(routing, gc.NotNil)
	c.Check(routing.Name(), gc.Equals, "default")
	c.Check(routing.LookupDestination("build"), jc.DeepEquals, [][]string{{"default-build", "Release"}})
}

func (s *routingSuite) TestAliasResolvesAgainstTable(c *gc.C) {
	source := s.lookupSource(c, routingDocument, "A", "linux-legacy")
	routing, err := source.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(routing, gc.NotNil)
	c.Check(routing.Name(), gc.Equals, "legacy")
	c.Check(routing.Destinations(), jc.DeepEquals, map[string][][]string{
		"build": {{"legacy-build", "Release"}, {"legacy-build2", "Release"}},
	})
	c.Check(routing.PrimaryDestination("build"), jc.DeepEquals, []string{"legacy-build", "Release"})
	c.Check(routing.LookupDestination("security"), gc.IsNil)
	c.Check(routing.PrimaryDestination("security"), gc.IsNil)
}

func (s *routingSuite) TestUnknownAliasNotValid(c *gc.C) {
	source := s.lookupSource(c, routingDocument, "A", "linux-bad")
	_, err := source.Routing()
	c.Assert(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `unable to map routing alias "nonesuch", not listed in series routing table`)
}

func (s *routingSuite) TestAliasWithoutTableNotValid(c *gc.C) {
	source := s.lookupSource(c, "'A':\n  sources:\n    linux: {}\n", "A", "linux")
	_, err := source.Routing()
	c.Assert(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `unable to map routing alias "default", no series routing table`)
}

func (s *routingSuite) TestNullRoutingAbsent(c *gc.C) {
	source := s.lookupSource(c, routingDocument, "A", "linux-unrouted")
	routing, err := source.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(routing, gc.IsNil)
}

func (s *routingSuite) TestInlineRoutingDropsNullDestinations(c *gc.C) {
	source := s.lookupSource(c, routingDocument, "A", "linux-inline")
	routing, err := source.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(routing, gc.NotNil)
	c.Check(routing.Name(), gc.Equals, "alpha:linux-inline")
	c.Check(routing.Destinations(), jc.DeepEquals, map[string][][]string{
		"build": {{"inline-build", "Release"}},
	})
}

func (s *routingSuite) TestDevelopmentSeriesRoutesToDevel(c *gc.C) {
	source := s.lookupSource(c, `
'A':
  development: true
  routing-table:
    default:
      build: [['default-build', 'Release']]
    devel:
      build: [['devel-build', 'Release']]
  sources:
    linux: {}
`, "A", "linux")
	routing, err := source.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(routing, gc.NotNil)
	c.Check(routing.Name(), gc.Equals, "devel")
}

func (s *routingSuite) TestESMSeriesRoutesToESM(c *gc.C) {
	source := s.lookupSource(c, `
'A':
  esm: true
  routing-table:
    esm:
      build: [['esm-build', 'Release']]
  sources:
    linux: {}
`, "A", "linux")
	routing, err := source.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(routing, gc.NotNil)
	c.Check(routing.Name(), gc.Equals, "esm")
}

func (s *routingSuite) TestRoutingEquality(c *gc.C) {
	legacy := s.lookupSource(c, routingDocument, "A", "linux-legacy")
	one, err := legacy.Routing()
	c.Assert(err, jc.ErrorIsNil)
	two, err := legacy.Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(one.Equal(two), jc.IsTrue)

	def, err := s.lookupSource(c, routingDocument, "A", "linux").Routing()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(one.Equal(def), jc.IsFalse)
}

func (s *routingSuite) TestRepoNormalization(c *gc.C) {
	source := s.lookupSource(c, `
'A':
  sources:
    linux:
      packages:
        linux:
          repo: ['git://x', 'foo']
        linux-meta:
          repo: ['git://x']
`, "A", "linux")
	repo := source.LookupPackage("linux").Repo()
	c.Assert(repo, gc.NotNil)
	c.Check(repo.URL(), gc.Equals, "git://x")
	c.Check(repo.Branch(), gc.Equals, "foo")

	repo = source.LookupPackage("linux-meta").Repo()
	c.Assert(repo, gc.NotNil)
	c.Check(repo.URL(), gc.Equals, "git://x")
	c.Check(repo.Branch(), gc.Equals, "master")
	c.Check(repo.Equal(&kernelseries.RepoEntry{}), jc.IsFalse)
}
