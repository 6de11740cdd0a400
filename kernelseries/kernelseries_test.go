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

type kernelSeriesSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&kernelSeriesSuite{})

const testDocument = `
defaults:
  supported: true
  routing-table:
    default:
      build: [['default-build', 'Release']]
      proposed: [['ubuntu', 'Proposed']]
    devel:
      build: [['devel-build', 'Release']]
      proposed: [['ubuntu', 'Proposed']]
'16.04':
  codename: xenial
  lts: true
  sources:
    linux:
      versions: ['4.4.0-1.1', '4.4.0-2.2']
      packages:
        linux:
          repo: ['git://kernel/xenial-linux']
        linux-meta:
          type: meta
    linux-aws:
      derived-from: ['16.04', 'linux']
'18.04':
  codename: bionic
  development: true
  sources:
    linux:
      versions: ['4.15.0-1.1']
'18.10':
  codename: cosmic
  supported: false
`

func parse(c *gc.C, text string) *kernelseries.KernelSeries {
	ks, err := kernelseries.Parse([]byte(text))
	c.Assert(err, jc.ErrorIsNil)
	return ks
}

func (s *kernelSeriesSuite) TestLookupSeriesByName(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Name: "16.04"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(series, gc.NotNil)
	c.Check(series.Name(), gc.Equals, "16.04")
	c.Check(series.Codename(), gc.Equals, "xenial")
	c.Check(series.LTS(), jc.IsTrue)
}

func (s *kernelSeriesSuite) TestLookupSeriesByCodename(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Codename: "xenial"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(series, gc.NotNil)
	c.Check(series.Name(), gc.Equals, "16.04")
}

func (s *kernelSeriesSuite) TestLookupSeriesDevelopment(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Development: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(series, gc.NotNil)
	c.Check(series.Name(), gc.Equals, "18.04")
	c.Check(series.Codename(), gc.Equals, "bionic")
}

func (s *kernelSeriesSuite) TestLookupSeriesNoSelector(c *gc.C) {
	ks := parse(c, testDocument)
	_, err := ks.LookupSeries(kernelseries.Selector{})
	c.Assert(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, "exactly one of series name, codename or development required")
}

func (s *kernelSeriesSuite) TestLookupSeriesAmbiguousSelector(c *gc.C) {
	ks := parse(c, testDocument)
	_, err := ks.LookupSeries(kernelseries.Selector{Name: "16.04", Codename: "xenial"})
	c.Check(err, gc.ErrorMatches, "exactly one of series name, codename or development required")
}

func (s *kernelSeriesSuite) TestLookupSeriesUnknownCodenameAbsent(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Codename: "warty"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(series, gc.IsNil)
}

func (s *kernelSeriesSuite) TestLookupSeriesUnknownNameAbsent(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Name: "4.10"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(series, gc.IsNil)
}

func (s *kernelSeriesSuite) TestDefaultsInherited(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Name: "16.04"})
	c.Assert(err, jc.ErrorIsNil)
	// supported comes from the document defaults.
	c.Check(series.Supported(), jc.IsTrue)
}

func (s *kernelSeriesSuite) TestDefaultsOverridden(c *gc.C) {
	ks := parse(c, testDocument)
	series, err := ks.LookupSeries(kernelseries.Selector{Name: "18.10"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(series.Supported(), jc.IsFalse)
}

func (s *kernelSeriesSuite) TestSeriesEnumeration(c *gc.C) {
	ks := parse(c, testDocument)
	var names []string
	for _, series := range ks.Series() {
		names = append(names, series.Name())
		c.Check(series.Supported() || series.Name() == "18.10", jc.IsTrue)
	}
	c.Check(names, jc.DeepEquals, []string{"16.04", "18.04", "18.10"})
}

func (s *kernelSeriesSuite) TestSortedSeriesNaturalOrder(c *gc.C) {
	ks := parse(c, `
'5.10': {codename: old}
'22.04': {codename: jammy}
`)
	var names []string
	for _, series := range ks.SortedSeries() {
		names = append(names, series.Name())
	}
	c.Check(names, jc.DeepEquals, []string{"5.10", "22.04"})
}

func (s *kernelSeriesSuite) TestParseRejectsBadDocument(c *gc.C) {
	_, err := kernelseries.Parse([]byte(":\t ["))
	c.Assert(err, gc.ErrorMatches, "cannot parse kernel series document: .*")
}

func (s *kernelSeriesSuite) TestEmptySeriesUsesDefaults(c *gc.C) {
	ks := parse(c, "defaults: {supported: true}\n'20.04':\n")
	series, err := ks.LookupSeries(kernelseries.Selector{Name: "20.04"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(series, gc.NotNil)
	c.Check(series.Supported(), jc.IsTrue)
	c.Check(series.Codename(), gc.Equals, "")
}

func (s *kernelSeriesSuite) TestOpening(c *gc.C) {
	ks := parse(c, `
'25.04':
  opening: true
'25.10':
  opening:
    uploads: true
    builds: false
'26.04': {}
`)
	opening, err := ks.LookupSeries(kernelseries.Selector{Name: "25.04"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(opening.Opening(), jc.IsTrue)
	c.Check(opening.OpeningReady("uploads"), jc.IsFalse)

	gated, err := ks.LookupSeries(kernelseries.Selector{Name: "25.10"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(gated.Opening(), jc.IsTrue)
	c.Check(gated.OpeningReady("uploads"), jc.IsTrue)
	c.Check(gated.OpeningReady("builds"), jc.IsFalse)
	c.Check(gated.OpeningReady("uploads", "builds"), jc.IsFalse)
	c.Check(gated.OpeningReady("unknown"), jc.IsFalse)

	open, err := ks.LookupSeries(kernelseries.Selector{Name: "26.04"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(open.Opening(), jc.IsFalse)
	c.Check(open.OpeningReady("uploads"), jc.IsTrue)
}

func (s *kernelSeriesSuite) TestSeriesEquality(c *gc.C) {
	ks := parse(c, testDocument)
	one, err := ks.LookupSeries(kernelseries.Selector{Name: "16.04"})
	c.Assert(err, jc.ErrorIsNil)
	two, err := ks.LookupSeries(kernelseries.Selector{Codename: "xenial"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(one.Equal(two), jc.IsTrue)

	other, err := ks.LookupSeries(kernelseries.Selector{Name: "18.04"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(one.Equal(other), jc.IsFalse)
}
