// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package qatracker

import (
	"fmt"
	"strconv"
	"time"

	"github.com/juju/errors"
)

// timestampLayout is the fixed layout the tracker renders timestamps in.
const timestampLayout = "2006-01-02 15:04:05"

type fieldKind int

const (
	stringField fieldKind = iota
	intField
	boolField
	timeField
)

// fieldTable maps record field names to their kinds. Fields not listed
// decode as strings.
type fieldTable map[string]fieldKind

// The field tables for each record kind, mirroring the conversions the
// tracker's own interface applies.
var (
	bugFields = fieldTable{
		"bugnumber":       intField,
		"count":           intField,
		"earliest_report": timeField,
		"latest_report":   timeField,
	}
	buildFields = fieldTable{
		"id":        intField,
		"productid": intField,
		"userid":    intField,
		"status":    intField,
		"date":      timeField,
	}
	milestoneFields = fieldTable{
		"id":     intField,
		"status": intField,
		"series": intField,
		"notify": boolField,
	}
	productFields = fieldTable{
		"id":     intField,
		"type":   intField,
		"status": intField,
	}
	rebuildFields = fieldTable{
		"id":          intField,
		"seriesid":    intField,
		"productid":   intField,
		"milestoneid": intField,
		"requestedby": intField,
		"changedby":   intField,
		"status":      intField,
		"requestedat": timeField,
		"changedat":   timeField,
	}
	resultFields = fieldTable{
		"id":         intField,
		"reporterid": intField,
		"revisionid": intField,
		"result":     intField,
		"changedby":  intField,
		"status":     intField,
		"date":       timeField,
		"lastchange": timeField,
	}
	seriesFields = fieldTable{
		"id":     intField,
		"status": intField,
	}
	seriesManifestFields = fieldTable{
		"id":        intField,
		"productid": intField,
		"status":    intField,
	}
	testcaseFields = fieldTable{
		"id":     intField,
		"status": intField,
		"weight": intField,
		"suite":  intField,
	}
)

// fields holds one record's values, converted per its field table.
type fields struct {
	values map[string]interface{}
}

func decodeFields(table fieldTable, raw map[string]interface{}) fields {
	values := make(map[string]interface{}, len(raw))
	for name, value := range raw {
		switch table[name] {
		case intField:
			if n, ok := toInt(value); ok {
				values[name] = n
			}
		case boolField:
			values[name] = toBool(value)
		case timeField:
			values[name] = toTime(value)
		default:
			values[name] = toStr(value)
		}
	}
	return fields{values: values}
}

func (f fields) str(name string) string {
	s, _ := f.values[name].(string)
	return s
}

func (f fields) integer(name string) int {
	n, _ := f.values[name].(int)
	return n
}

func (f fields) boolean(name string) bool {
	b, _ := f.values[name].(bool)
	return b
}

func (f fields) timestamp(name string) time.Time {
	t, _ := f.values[name].(time.Time)
	return t
}

func toStr(value interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

func toInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func toBool(value interface{}) bool {
	switch b := value.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

func toTime(value interface{}) time.Time {
	switch t := value.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(timestampLayout, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	}
	return time.Time{}
}

// Bug is a bug reported against tracker results.
type Bug struct {
	client *Client

	BugNumber      int
	Count          int
	Title          string
	EarliestReport time.Time
	LatestReport   time.Time
}

func newBug(c *Client, raw map[string]interface{}) *Bug {
	f := decodeFields(bugFields, raw)
	return &Bug{
		client:         c,
		BugNumber:      f.integer("bugnumber"),
		Count:          f.integer("count"),
		Title:          f.str("title"),
		EarliestReport: f.timestamp("earliest_report"),
		LatestReport:   f.timestamp("latest_report"),
	}
}

// Build is a build posted to a milestone.
type Build struct {
	client *Client

	ID        int
	ProductID int
	UserID    int
	Status    int
	Version   string
	Note      string
	Date      time.Time
}

func newBuild(c *Client, raw map[string]interface{}) *Build {
	f := decodeFields(buildFields, raw)
	return &Build{
		client:    c,
		ID:        f.integer("id"),
		ProductID: f.integer("productid"),
		UserID:    f.integer("userid"),
		Status:    f.integer("status"),
		Version:   f.str("version"),
		Note:      f.str("note"),
		Date:      f.timestamp("date"),
	}
}

// GetResults returns the results recorded against the build for the given
// testcase, filtered by result status.
func (b *Build) GetResults(testcase *Testcase, statuses ...Status) ([]*Result, error) {
	if testcase == nil {
		return nil, errors.NotValidf("nil testcase")
	}
	return b.getResults(testcase.ID, statuses)
}

func (b *Build) getResults(testcaseID int, statuses []Status) ([]*Result, error) {
	codes, err := resolveStatuses(ResultStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := b.client.getRecords("qatracker.results.get_list", b.ID, testcaseID, codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	results := make([]*Result, len(records))
	for i, record := range records {
		results[i] = newResult(b.client, record)
	}
	return results, nil
}

// AddResult records a test result against the build. The bugs map links
// bug numbers to an importance of 0 or 1. Requires user access; the
// created result is re-queried and returned.
func (b *Build) AddResult(testcase *Testcase, result Status, comment, hardware string, bugs map[int]int) (*Result, error) {
	if err := b.client.checkAccess("user", "admin"); err != nil {
		return nil, errors.Trace(err)
	}
	if testcase == nil {
		return nil, errors.NotValidf("nil testcase")
	}
	codes, err := resolveStatuses(ResultResults, []Status{result})
	if err != nil {
		return nil, errors.Trace(err)
	}

	rpcBugs := make(map[string]interface{}, len(bugs))
	for bug, importance := range bugs {
		if bug <= 0 {
			return nil, errors.NotValidf("bug number %d", bug)
		}
		if importance != 0 && importance != 1 {
			return nil, errors.NotValidf("bug importance %d", importance)
		}
		rpcBugs[strconv.Itoa(bug)] = importance
	}

	reply, err := b.client.call("qatracker.results.add",
		b.ID, testcase.ID, codes[0], comment, hardware, rpcBugs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resultID, ok := toInt(reply)
	if !ok || resultID == -1 {
		return nil, errors.Errorf("cannot post result for build %d", b.ID)
	}

	results, err := b.getResults(testcase.ID, []Status{ByCode(0)})
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, entry := range results {
		if entry.ID == resultID {
			return entry, nil
		}
	}
	return nil, errors.NotFoundf("result %d", resultID)
}

// Milestone is a testing milestone.
type Milestone struct {
	client *Client

	ID     int
	Title  string
	Status int
	Series int
	Notify bool
}

func newMilestone(c *Client, raw map[string]interface{}) *Milestone {
	f := decodeFields(milestoneFields, raw)
	return &Milestone{
		client: c,
		ID:     f.integer("id"),
		Title:  f.str("title"),
		Status: f.integer("status"),
		Series: f.integer("series"),
		Notify: f.boolean("notify"),
	}
}

// GetBugs returns the bugs linked to the milestone.
func (m *Milestone) GetBugs() ([]*Bug, error) {
	records, err := m.client.getRecords("qatracker.bugs.get_list", m.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	bugs := make([]*Bug, len(records))
	for i, record := range records {
		bugs[i] = newBug(m.client, record)
	}
	return bugs, nil
}

// GetBuilds returns the builds posted to the milestone, filtered by
// build status.
func (m *Milestone) GetBuilds(statuses ...Status) ([]*Build, error) {
	codes, err := resolveStatuses(BuildMilestoneStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := m.client.getRecords("qatracker.builds.get_list", m.ID, codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	builds := make([]*Build, len(records))
	for i, record := range records {
		builds[i] = newBuild(m.client, record)
	}
	return builds, nil
}

// AddBuild posts a build of the product to the milestone. Both must be
// active and the caller needs admin access; the created build is
// re-queried and returned.
func (m *Milestone) AddBuild(product *Product, version, note string, notify bool) (*Build, error) {
	if m.Status != 0 {
		return nil, errors.NewNotValid(nil, "only active milestones are accepted")
	}
	if err := m.client.checkAccess("admin"); err != nil {
		return nil, errors.Trace(err)
	}
	if product == nil {
		return nil, errors.NotValidf("nil product")
	}
	if product.Status != 0 {
		return nil, errors.NewNotValid(nil, "only active products are accepted")
	}

	if _, err := m.client.call("qatracker.builds.add",
		product.ID, m.ID, version, note, notify); err != nil {
		return nil, errors.Trace(err)
	}

	builds, err := m.GetBuilds(ByCode(0))
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, build := range builds {
		if build.ProductID == product.ID && build.Version == version {
			return build, nil
		}
	}
	return nil, errors.NotFoundf("build of %q version %q", product.Title, version)
}

// Product is a tested product (an iso, package or hardware profile).
type Product struct {
	client *Client

	ID     int
	Title  string
	Type   int
	Status int
}

func newProduct(c *Client, raw map[string]interface{}) *Product {
	f := decodeFields(productFields, raw)
	return &Product{
		client: c,
		ID:     f.integer("id"),
		Title:  f.str("title"),
		Type:   f.integer("type"),
		Status: f.integer("status"),
	}
}

// GetTestcases returns the testcases associated with the product for the
// given series, filtered by testcase status.
func (p *Product) GetTestcases(seriesID int, statuses ...Status) ([]*Testcase, error) {
	codes, err := resolveStatuses(TestcaseStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := p.client.getRecords("qatracker.testcases.get_list", p.ID, seriesID, codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	testcases := make([]*Testcase, len(records))
	for i, record := range records {
		testcases[i] = newTestcase(p.client, record)
	}
	return testcases, nil
}

// Rebuild is an image rebuild request.
type Rebuild struct {
	client *Client

	ID          int
	SeriesID    int
	ProductID   int
	MilestoneID int
	RequestedBy int
	ChangedBy   int
	Status      int
	RequestedAt time.Time
	ChangedAt   time.Time
}

func newRebuild(c *Client, raw map[string]interface{}) *Rebuild {
	f := decodeFields(rebuildFields, raw)
	return &Rebuild{
		client:      c,
		ID:          f.integer("id"),
		SeriesID:    f.integer("seriesid"),
		ProductID:   f.integer("productid"),
		MilestoneID: f.integer("milestoneid"),
		RequestedBy: f.integer("requestedby"),
		ChangedBy:   f.integer("changedby"),
		Status:      f.integer("status"),
		RequestedAt: f.timestamp("requestedat"),
		ChangedAt:   f.timestamp("changedat"),
	}
}

// Save pushes the rebuild's status back to the tracker. Only the status
// field is supported; requires admin access.
func (r *Rebuild) Save() error {
	if err := r.client.checkAccess("admin"); err != nil {
		return errors.Trace(err)
	}
	reply, err := r.client.call("qatracker.rebuilds.update_status", r.ID, r.Status)
	if err != nil {
		return errors.Trace(err)
	}
	if ok, _ := reply.(bool); !ok {
		return errors.Errorf("failed to update rebuild %d", r.ID)
	}
	return nil
}

// Result is a test result recorded against a build.
type Result struct {
	client  *Client
	deleted bool

	ID         int
	ReporterID int
	RevisionID int
	Result     int
	ChangedBy  int
	Status     int
	Comment    string
	Hardware   string
	Bugs       string
	Date       time.Time
	LastChange time.Time
}

func newResult(c *Client, raw map[string]interface{}) *Result {
	f := decodeFields(resultFields, raw)
	return &Result{
		client:     c,
		ID:         f.integer("id"),
		ReporterID: f.integer("reporterid"),
		RevisionID: f.integer("revisionid"),
		Result:     f.integer("result"),
		ChangedBy:  f.integer("changedby"),
		Status:     f.integer("status"),
		Comment:    f.str("comment"),
		Hardware:   f.str("hardware"),
		Bugs:       f.str("bugs"),
		Date:       f.timestamp("date"),
		LastChange: f.timestamp("lastchange"),
	}
}

// Save pushes the result's fields back to the tracker. Requires user
// access.
func (r *Result) Save() error {
	if err := r.client.checkAccess("user", "admin"); err != nil {
		return errors.Trace(err)
	}
	if r.deleted {
		return errors.NewNotValid(nil, "result no longer exists")
	}
	reply, err := r.client.call("qatracker.results.update",
		r.ID, r.Result, r.Comment, r.Hardware, r.Bugs)
	if err != nil {
		return errors.Trace(err)
	}
	if ok, _ := reply.(bool); !ok {
		return errors.Errorf("failed to update result %d", r.ID)
	}
	return nil
}

// Delete removes the result from the tracker. Requires user access; a
// result can only be removed once.
func (r *Result) Delete() error {
	if err := r.client.checkAccess("user", "admin"); err != nil {
		return errors.Trace(err)
	}
	if r.deleted {
		return errors.NewNotValid(nil, "result has already been removed")
	}
	reply, err := r.client.call("qatracker.results.delete", r.ID)
	if err != nil {
		return errors.Trace(err)
	}
	if ok, _ := reply.(bool); !ok {
		return errors.Errorf("failed to remove result %d", r.ID)
	}
	r.Status = 1
	r.deleted = true
	return nil
}

// Series is a distribution series known to the tracker.
type Series struct {
	client *Client

	ID     int
	Title  string
	Status int
}

func newSeries(c *Client, raw map[string]interface{}) *Series {
	f := decodeFields(seriesFields, raw)
	return &Series{
		client: c,
		ID:     f.integer("id"),
		Title:  f.str("title"),
		Status: f.integer("status"),
	}
}

// GetManifest returns the products in the series' manifest, filtered by
// manifest status.
func (s *Series) GetManifest(statuses ...Status) ([]*SeriesManifest, error) {
	codes, err := resolveStatuses(SeriesManifestStatuses, statuses)
	if err != nil {
		return nil, errors.Trace(err)
	}
	records, err := s.client.getRecords("qatracker.series.get_manifest", s.ID, codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	manifest := make([]*SeriesManifest, len(records))
	for i, record := range records {
		manifest[i] = newSeriesManifest(s.client, record)
	}
	return manifest, nil
}

// SeriesManifest is one product of a series' manifest.
type SeriesManifest struct {
	client *Client

	ID           int
	ProductID    int
	ProductTitle string
	Status       int
}

func newSeriesManifest(c *Client, raw map[string]interface{}) *SeriesManifest {
	f := decodeFields(seriesManifestFields, raw)
	return &SeriesManifest{
		client:       c,
		ID:           f.integer("id"),
		ProductID:    f.integer("productid"),
		ProductTitle: f.str("product_title"),
		Status:       f.integer("status"),
	}
}

// Testcase is a testcase of a product testsuite.
type Testcase struct {
	client *Client

	ID     int
	Title  string
	Status int
	Weight int
	Suite  int
}

func newTestcase(c *Client, raw map[string]interface{}) *Testcase {
	f := decodeFields(testcaseFields, raw)
	return &Testcase{
		client: c,
		ID:     f.integer("id"),
		Title:  f.str("title"),
		Status: f.integer("status"),
		Weight: f.integer("weight"),
		Suite:  f.integer("suite"),
	}
}
