// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package kernelworkflow walks kernel SRU tracking bugs: it recovers
// the package and version from the bug title, infers the set of
// packages to build from the kernel-sru-workflow prepare-package
// sub-tasks, and hands the results to caller-supplied handlers. The
// walk itself makes no mutating calls.
package kernelworkflow

import (
	"regexp"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/canonical/ubuntu-archive-tools/launchpad"
)

var logger = loggo.GetLogger("archivetools.kernelworkflow")

// titlePattern matches kernel SRU tracking bug titles, such as
// "xenial/linux-aws: 4.4.0-1013.22 -proposed tracker".
var titlePattern = regexp.MustCompile(
	`^([a-z]+/)?(?P<package>[a-z0-9.-]+): (?P<version>[0-9.-]+[0-9a-z.~-]*) -proposed tracker$`)

var prepPattern = regexp.MustCompile(`prepare-package(?P<subpackage>.*)`)

// TaskHandler inspects one bug task and contributes to the result set
// handed to the SourceHandler.
type TaskHandler interface {
	HandleTask(lp launchpad.Launchpad, number int, task launchpad.Task) (map[string]string, error)
}

// SourceHandler acts on the outcome of a bug walk: the collected task
// results, the full package build list and the target release.
type SourceHandler interface {
	HandleSource(lp launchpad.Launchpad, number int, results map[string]string, packages []string, release string) error
}

// Options tune ProcessSRUBug.
type Options struct {
	// SkipNameCheck stops processing when the source package task
	// does not match the bug title's package.
	SkipNameCheck bool

	// Confirm is consulted before continuing with a prepare list that
	// holds only meta packages. Nil declines.
	Confirm func(prompt string) bool
}

// BugNameAndVersion recovers the package name and version from a
// tracking bug's title. Bugs with other titles are logged and reported
// as not ok.
func BugNameAndVersion(bug launchpad.Bug) (pkg, version string, ok bool) {
	match := titlePattern.FindStringSubmatch(bug.Title())
	if match == nil {
		logger.Infof("ignoring bug %d, not a kernel SRU tracking bug", bug.Number())
		return "", "", false
	}
	return match[2], match[3], true
}

// ProcessSRUBug walks one tracking bug, calling the task handler for
// every live task and the source handler once with the inferred package
// list. Bugs that are not trackers, have no source package task or an
// empty prepare list are logged and skipped without error.
func ProcessSRUBug(lp launchpad.Launchpad, number int, th TaskHandler, sh SourceHandler, opts Options) error {
	root := regexp.QuoteMeta(lp.RootURI())
	packagePattern := regexp.MustCompile(
		`^` + root + `ubuntu/(?P<release>[0-9a-z.-]+)/\+source/(?P<package>[a-z0-9.-]+)$`)
	workflowPattern := regexp.MustCompile(`^` + root + `kernel-sru-workflow/(?P<subtask>.*)`)

	bug, err := lp.Bug(number)
	if err != nil {
		return errors.Trace(err)
	}
	pkg, _, ok := BugNameAndVersion(bug)
	if !ok {
		return nil
	}
	tasks, err := bug.Tasks()
	if err != nil {
		return errors.Trace(err)
	}

	var subpackages []string
	sourceName := ""
	release := ""
	results := make(map[string]string)
	for _, task := range tasks {
		if task.Status() == "Invalid" {
			continue
		}

		taskResults, err := th.HandleTask(lp, number, task)
		if err != nil {
			return errors.Trace(err)
		}
		for key, value := range taskResults {
			results[key] = value
		}

		if match := workflowPattern.FindStringSubmatch(task.TargetLink()); match != nil {
			if prep := prepPattern.FindStringSubmatch(match[1]); prep != nil {
				subpackages = append(subpackages, prep[1])
			}
			continue
		}
		if match := packagePattern.FindStringSubmatch(task.TargetLink()); match != nil {
			if sourceName != "" {
				logger.Warningf("too many source packages, %s and %s, ignoring bug %d",
					sourceName, match[2], number)
				continue
			}
			release = match[1]
			sourceName = match[2]
		}
	}

	if sourceName == "" {
		logger.Warningf("no source package to act on, skipping bug %d", number)
		return nil
	}
	if sourceName != pkg {
		logger.Warningf("cannot determine base package for %d, %s vs. %s",
			number, sourceName, pkg)
		if opts.SkipNameCheck {
			return nil
		}
	}
	if len(subpackages) == 0 {
		logger.Warningf("no packages in the prepare list for bug %d", number)
		return nil
	}
	if !hasMainPackage(subpackages) {
		prompt := "no kernel package in prepare list, only meta packages, continue?"
		if opts.Confirm == nil || !opts.Confirm(prompt) {
			return nil
		}
	}

	packages := make([]string, len(subpackages))
	for i, suffix := range subpackages {
		packages[i] = fullPackageName(pkg, suffix)
	}
	return errors.Trace(sh.HandleSource(lp, number, results, packages, release))
}

func hasMainPackage(subpackages []string) bool {
	for _, suffix := range subpackages {
		if suffix == "" {
			return true
		}
	}
	return false
}

// fullPackageName expands a prepare-package suffix against the base
// package name, so "-meta" on "linux-aws" names "linux-meta-aws".
func fullPackageName(pkg, suffix string) string {
	switch suffix {
	case "-lbm":
		suffix = "-backports-modules-3.2.0"
	case "-lrm":
		suffix = "-restricted-modules"
	}
	if strings.HasPrefix(pkg, "linux") {
		return "linux" + suffix + strings.TrimPrefix(pkg, "linux")
	}
	return pkg
}
