// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// kernel-series prints the kernel source configuration of Ubuntu
// series, as described by the kernel-series document maintained by the
// kernel team.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/canonical/ubuntu-archive-tools/kernelseries"
)

const kernelSeriesDoc = `
Print the kernel sources of one series, selected by name, codename or
the development flag, or of every known series. For each source the
versions, packages and snaps are listed.

Examples:
    kernel-series
    kernel-series 16.04
    kernel-series --codename xenial
    kernel-series --development
    kernel-series --url file:///path/to/kernel-series.yaml 18.04
`

type kernelSeriesCommand struct {
	cmd.CommandBase

	url         string
	data        string
	codename    string
	development bool

	name string
}

func (c *kernelSeriesCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "kernel-series",
		Args:    "[<series>]",
		Purpose: "print kernel source configuration of Ubuntu series",
		Doc:     kernelSeriesDoc,
	}
}

func (c *kernelSeriesCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.url, "url", "", "fetch the kernel-series document from this URL")
	f.StringVar(&c.data, "data", "", "read the kernel-series document from this file")
	f.StringVar(&c.codename, "codename", "", "select the series with this codename")
	f.BoolVar(&c.development, "development", false, "select the development series")
}

func (c *kernelSeriesCommand) Init(args []string) error {
	name, err := cmd.ZeroOrOneArgs(args)
	if err != nil {
		return errors.Trace(err)
	}
	c.name = name

	selectors := 0
	for _, set := range []bool{c.name != "", c.codename != "", c.development} {
		if set {
			selectors++
		}
	}
	if selectors > 1 {
		return errors.New("only one of series name, --codename or --development may be given")
	}
	if c.url != "" && c.data != "" {
		return errors.New("--url and --data are mutually exclusive")
	}
	return nil
}

func (c *kernelSeriesCommand) Run(ctx *cmd.Context) error {
	config := kernelseries.Config{URL: c.url}
	if c.data != "" {
		text, err := os.ReadFile(ctx.AbsPath(c.data))
		if err != nil {
			return errors.Trace(err)
		}
		config.Data = text
	}
	ks, err := kernelseries.New(config)
	if err != nil {
		return errors.Trace(err)
	}

	if c.name == "" && c.codename == "" && !c.development {
		for _, entry := range ks.SortedSeries() {
			if err := printSeries(ctx, entry); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}

	series, err := ks.LookupSeries(kernelseries.Selector{
		Name:        c.name,
		Codename:    c.codename,
		Development: c.development,
	})
	if err != nil {
		return errors.Trace(err)
	}
	if series == nil {
		return errors.NotFoundf("series")
	}
	return errors.Trace(printSeries(ctx, series))
}

func printSeries(ctx *cmd.Context, series *kernelseries.SeriesEntry) error {
	flags := seriesFlags(series)
	if flags != "" {
		flags = "  [" + flags + "]"
	}
	fmt.Fprintf(ctx.Stdout, "%s%s\n", series, flags)

	for _, source := range series.Sources() {
		versions, err := source.Versions()
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintf(ctx.Stdout, "  %s  versions=%s\n", source.Name(), strings.Join(versions, ","))

		for _, pkg := range source.Packages() {
			fmt.Fprintf(ctx.Stdout, "    package %s\n", pkg.Name())
		}

		for _, snap := range source.Snaps() {
			fmt.Fprintf(ctx.Stdout, "    snap %s  arches=%s\n",
				snap.Name(), strings.Join(snap.Arches(), ","))
		}
	}
	return nil
}

func seriesFlags(series *kernelseries.SeriesEntry) string {
	var flags []string
	if series.Development() {
		flags = append(flags, "development")
	}
	if series.Supported() {
		flags = append(flags, "supported")
	}
	if series.LTS() {
		flags = append(flags, "lts")
	}
	if series.ESM() {
		flags = append(flags, "esm")
	}
	return strings.Join(flags, " ")
}

func main() {
	loggo.GetLogger("").SetLogLevel(loggo.WARNING)
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(&kernelSeriesCommand{}, ctx, os.Args[1:]))
}
