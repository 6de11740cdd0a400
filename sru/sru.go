// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package sru drives the bug bookkeeping that follows accepting a
// stable release update into -proposed: task status transitions,
// subscriber management, verification tags and the notification
// comment asking the reporter to test.
package sru

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/canonical/ubuntu-archive-tools/launchpad"
)

var logger = loggo.GetLogger("archivetools.sru")

// bugTargetPattern recovers the series and source package from a task
// target URL such as /ubuntu/jammy/+source/linux.
var bugTargetPattern = regexp.MustCompile(`/ubuntu/(?:(?P<suite>[^/]+)/)?\+source/(?P<source>[^/]+)$`)

// firstNamePattern splits a display name into its leading word.
var firstNamePattern = regexp.MustCompile(`[,\s]`)

// preAcceptedStatuses are task statuses that suggest the bug was closed
// or rejected before the update was accepted.
var preAcceptedStatuses = []string{"Invalid", "Won't Fix", "Fix Released"}

// ProcessBug performs the post-acceptance bookkeeping on one bug:
// transitions the matching series task to Fix Committed (creating it
// when missing), subscribes the SRU teams, maintains the verification
// tags for non-kernel packages and posts the test request comment.
// Unmatched tasks are logged and skipped; mutations already applied are
// not rolled back when a later step fails.
func ProcessBug(lp launchpad.Launchpad, sourcePkg, version, release string, number int) error {
	bug, err := lp.Bug(number)
	if err != nil {
		return errors.Trace(err)
	}
	tasks, err := bug.Tasks()
	if err != nil {
		return errors.Trace(err)
	}

	sourcePkgMatch := false
	seriesMatch := false
	for _, task := range tasks {
		match := bugTargetPattern.FindStringSubmatch(task.TargetLink())
		if match == nil || (sourcePkg != "" && match[2] != sourcePkg) {
			logger.Infof("ignoring task %s in bug %d", task.WebLink(), number)
			continue
		}
		sourcePkgMatch = true
		if match[1] != release {
			continue
		}
		if status := task.Status(); statusIn(status, preAcceptedStatuses) {
			logger.Warningf("matching task was set to %s before accepting the SRU, "+
				"please double-check if bug %d is still liable for fixing; "+
				"switching to Fix Committed", status, number)
		}
		if err := task.SetStatus("Fix Committed"); err != nil {
			return errors.Trace(err)
		}
		logger.Infof("updated task %s in bug %d", task.WebLink(), number)
		seriesMatch = true
	}

	if sourcePkgMatch && !seriesMatch {
		target, err := lp.Load(fmt.Sprintf("%subuntu/%s/+source/%s", lp.RootURI(), release, sourcePkg))
		if err != nil {
			return errors.Trace(err)
		}
		task, err := bug.AddTask(target)
		if err != nil {
			return errors.Trace(err)
		}
		if err := task.SetStatus("Fix Committed"); err != nil {
			return errors.Trace(err)
		}
		logger.Infof("LP: #%d added task for %s %s", number, sourcePkg, release)
	}
	if !sourcePkgMatch {
		logger.Warningf("LP: #%d has no %s tasks", number, sourcePkg)
	}

	for _, team := range []string{"ubuntu-sru", "sru-verification"} {
		person, err := lp.Person(team)
		if err != nil {
			return errors.Trace(err)
		}
		if err := bug.Subscribe(person); err != nil {
			return errors.Trace(err)
		}
	}

	subscribers, err := bug.Subscribers()
	if err != nil {
		return errors.Trace(err)
	}
	for _, person := range subscribers {
		if person.Name() == "ubuntu-sponsors" {
			logger.Warningf("ubuntu-sponsors is still subscribed to LP: #%d, "+
				"is there anything left to sponsor?", number)
			break
		}
	}

	// Kernel packages run their own verification workflow.
	if sourcePkg == "" || !strings.Contains(sourcePkg, "linux") {
		if err := adjustVerificationTags(bug, release, number); err != nil {
			return errors.Trace(err)
		}
	}

	firstName := firstNamePattern.Split(bug.Owner().DisplayName(), -1)[0]
	text := acceptanceComment(firstName, sourcePkg, version, release)
	return errors.Trace(bug.AddMessage("Please test proposed package", text))
}

func statusIn(status string, statuses []string) bool {
	for _, entry := range statuses {
		if status == entry {
			return true
		}
	}
	return false
}

// adjustVerificationTags drops stale verification tags and makes sure
// the needed ones are present, saving the set once when it changed.
func adjustVerificationTags(bug launchpad.Bug, release string, number int) error {
	tags := bug.Tags()

	if blockTag := "block-proposed-" + release; statusIn(blockTag, tags) {
		logger.Warningf("the %s tag is still set on bug LP: #%d; "+
			"should the package continue to be blocked in proposed? "+
			"please investigate and adjust the tags accordingly", blockTag, number)
	}

	stale := []string{
		"verification-failed", "verification-failed-" + release,
		"verification-done", "verification-done-" + release,
	}
	changed := false
	kept := tags[:0]
	for _, tag := range tags {
		if statusIn(tag, stale) {
			changed = true
			continue
		}
		kept = append(kept, tag)
	}
	tags = kept

	for _, needed := range []string{"verification-needed", "verification-needed-" + release} {
		if !statusIn(needed, tags) {
			tags = append(tags, needed)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return errors.Trace(bug.SetTags(tags))
}

// acceptanceComment renders the fixed notification comment posted after
// an upload is accepted into -proposed.
func acceptanceComment(firstName, sourcePkg, version, release string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, or anyone else affected,\n\n", firstName)

	if sourcePkg != "" {
		fmt.Fprintf(&b, "Accepted %s into ", sourcePkg)
	} else {
		b.WriteString("Accepted into ")
	}
	if sourcePkg != "" && release != "" {
		fmt.Fprintf(&b, "%s-proposed. The package will build now and be available at "+
			"https://launchpad.net/ubuntu/+source/%s/%s in a few hours, "+
			"and then in the -proposed repository.\n\n", release, sourcePkg, version)
	} else {
		fmt.Fprintf(&b, "%s-proposed. The package will build now and be available in "+
			"a few hours in the -proposed repository.\n\n", release)
	}

	b.WriteString("Please help us by testing this new package.  ")
	if sourcePkg == "casper" {
		fmt.Fprintf(&b, "To properly test it you will need to obtain and boot "+
			"a daily build of a Live CD for %s.", release)
	} else {
		b.WriteString("See https://wiki.ubuntu.com/Testing/EnableProposed for " +
			"documentation on how to enable and use -proposed.")
	}

	fmt.Fprintf(&b, "  Your feedback will aid us getting this update out to other "+
		"Ubuntu users.\n\nIf this package fixes the bug for you, "+
		"please add a comment to this bug, mentioning the version of the "+
		"package you tested, what testing has been performed on the "+
		"package and change the tag from "+
		"verification-needed-%s to verification-done-%s. "+
		"If it does not fix the bug for you, please add a comment "+
		"stating that, and change the tag to verification-failed-%s. "+
		"In either case, without details of your testing we will not "+
		"be able to proceed.\n\nFurther information regarding the "+
		"verification process can be found at "+
		"https://wiki.ubuntu.com/QATeam/PerformingSRUVerification .  "+
		"Thank you in advance for helping!\n\n"+
		"N.B. The updated package will be released to -updates after "+
		"the bug(s) fixed by this package have been verified and "+
		"the package has been in -proposed for a minimum of 7 days.",
		release, release, release)
	return b.String()
}
