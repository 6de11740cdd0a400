// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package qatracker

import (
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// The canonical status vocabularies of the tracker. Positions are
// significant: the tracker identifies a status by its index in the
// relevant list.
var (
	BuildMilestoneStatuses = []string{"Active", "Re-building", "Disabled", "Superseded", "Ready"}
	MilestoneNotify        = []string{"No", "Yes"}
	MilestoneAutofill      = []string{"No", "Yes"}
	MilestoneStatuses      = []string{"Testing", "Released", "Archived"}
	MilestoneSeriesStatuses = []string{"Active", "Disabled"}
	SeriesManifestStatuses  = []string{"Active", "Disabled"}
	ProductStatuses         = []string{"Active", "Disabled"}
	ProductTypes            = []string{"iso", "package", "hardware"}
	ProductDownloadTypes    = []string{"HTTP", "RSYNC", "ZSYNC", "GPG signature", "MD5 checksum", "Comment", "Torrent"}
	TestcaseStatuses        = []string{"Mandatory", "Disabled", "Run-once", "Optional"}
	ResultResults           = []string{"Failed", "Passed", "In progress"}
	ResultStatuses          = []string{"Active", "Disabled"}
	RebuildStatuses         = []string{"Requested", "Queued", "Building", "Built", "Published", "Canceled"}
)

// Status selects entries of a status vocabulary, either by name
// (case-insensitive) or by position in the canonical list.
type Status struct {
	name   string
	code   int
	byCode bool
}

// ByName selects a status by its name, matched case-insensitively.
func ByName(name string) Status {
	return Status{name: name}
}

// ByCode selects a status by its position in the canonical status list.
func ByCode(code int) Status {
	return Status{code: code, byCode: true}
}

// resolveStatuses maps the given status filters to a sorted, de-duplicated
// list of indexes into the valid status list. No filters selects every
// status.
func resolveStatuses(valid []string, statuses []Status) ([]int, error) {
	codes := set.NewInts()
	if len(statuses) == 0 {
		for code := range valid {
			codes.Add(code)
		}
		return codes.SortedValues(), nil
	}
	for _, status := range statuses {
		if status.byCode {
			if status.code < 0 || status.code >= len(valid) {
				return nil, errors.NotValidf("status %d", status.code)
			}
			codes.Add(status.code)
			continue
		}
		found := -1
		for code, name := range valid {
			if strings.EqualFold(name, status.name) {
				found = code
				break
			}
		}
		if found < 0 {
			return nil, errors.NotValidf("status %q", status.name)
		}
		codes.Add(found)
	}
	return codes.SortedValues(), nil
}
