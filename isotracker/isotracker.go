// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package isotracker layers the local configuration conventions of the
// Ubuntu ISO testing trackers on top of the qatracker client: tracker
// endpoints and credentials come from ~/.isotracker.conf, with named
// target sections overriding the [general] defaults.
package isotracker

import (
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/utils/v3"
	"gopkg.in/ini.v1"

	"github.com/canonical/ubuntu-archive-tools/qatracker"
)

var logger = loggo.GetLogger("archivetools.isotracker")

const (
	configPath = "~/.isotracker.conf"
	notePath   = "~/.isotracker.note"
)

// ErrNoConfiguration is returned by New when no configuration file
// exists. Detect it with errors.Cause.
var ErrNoConfiguration = errors.New("no iso tracker configuration")

// defaultBuildStatuses filters Builds when the caller supplies none.
var defaultBuildStatuses = []qatracker.Status{
	qatracker.ByName("Active"),
	qatracker.ByName("Re-building"),
	qatracker.ByName("Ready"),
}

// Tracker wraps a qatracker client connected per the local
// configuration, with the tracker's products and milestones pre-fetched.
type Tracker struct {
	target string
	config *ini.File
	client *qatracker.Client

	products   []*qatracker.Product
	milestones []*qatracker.Milestone
}

// New connects to the tracker selected by target, an optional section
// of ~/.isotracker.conf overriding the [general] url and credentials.
// An unknown target falls back to the defaults with a warning.
func New(target string) (*Tracker, error) {
	path, err := utils.NormalizePath(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Annotatef(ErrNoConfiguration, "missing configuration file at %s", path)
	}
	config, err := ini.Load(path)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot read configuration file at %s", path)
	}

	general := config.Section("general")
	url := general.Key("url").String()
	username := general.Key("username").String()
	password := general.Key("password").String()

	if target != "" {
		if section, err := config.GetSection(target); err == nil {
			if section.HasKey("url") {
				url = section.Key("url").String()
			}
			if section.HasKey("username") {
				username = section.Key("username").String()
			}
			if section.HasKey("password") {
				password = section.Key("password").String()
			}
		} else {
			logger.Warningf("no %q target in configuration, using the default", target)
		}
	}

	client, err := qatracker.NewClient(qatracker.Config{
		URL:      url,
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	tracker := &Tracker{
		target: target,
		config: config,
		client: client,
	}
	if tracker.products, err = client.GetProducts(); err != nil {
		return nil, errors.Trace(err)
	}
	if tracker.milestones, err = client.GetMilestones(); err != nil {
		return nil, errors.Trace(err)
	}
	return tracker, nil
}

// Client returns the underlying qatracker client.
func (t *Tracker) Client() *qatracker.Client {
	return t.client
}

// DefaultMilestone returns the milestone named by the configuration,
// preferring the target section's default_milestone over [general]'s.
func (t *Tracker) DefaultMilestone() (*qatracker.Milestone, error) {
	var name string
	if t.target != "" {
		if section, err := t.config.GetSection(t.target); err == nil {
			name = section.Key("default_milestone").String()
		}
	}
	if name == "" {
		name = t.config.Section("general").Key("default_milestone").String()
	}
	if name == "" {
		return nil, errors.NotFoundf("default milestone")
	}
	return t.MilestoneByName(name)
}

// ProductByName returns the product with the given title, matched
// case-insensitively.
func (t *Tracker) ProductByName(name string) (*qatracker.Product, error) {
	for _, product := range t.products {
		if strings.EqualFold(product.Title, name) {
			return product, nil
		}
	}
	return nil, errors.NotFoundf("product %q", name)
}

// MilestoneByName returns the milestone with the given title, matched
// case-insensitively.
func (t *Tracker) MilestoneByName(name string) (*qatracker.Milestone, error) {
	for _, milestone := range t.milestones {
		if strings.EqualFold(milestone.Title, name) {
			return milestone, nil
		}
	}
	return nil, errors.NotFoundf("milestone %q", name)
}

// Builds returns the builds of the milestone, or of the default
// milestone when nil. Without explicit status filters only Active,
// Re-building and Ready builds are returned.
func (t *Tracker) Builds(milestone *qatracker.Milestone, statuses ...qatracker.Status) ([]*qatracker.Build, error) {
	if milestone == nil {
		var err error
		if milestone, err = t.DefaultMilestone(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if len(statuses) == 0 {
		statuses = defaultBuildStatuses
	}
	return milestone.GetBuilds(statuses...)
}

// PostBuild posts a build of the product to the milestone, or to the
// default milestone when nil. An empty note is substituted with the
// contents of ~/.isotracker.note when that file exists.
func (t *Tracker) PostBuild(product *qatracker.Product, version string, milestone *qatracker.Milestone, note string, notify bool) (*qatracker.Build, error) {
	if product == nil {
		return nil, errors.NotValidf("nil product")
	}
	if note == "" {
		path, err := utils.NormalizePath(notePath)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if text, err := os.ReadFile(path); err == nil {
			note = string(text)
		}
	}
	if milestone == nil {
		var err error
		if milestone, err = t.DefaultMilestone(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	build, err := milestone.AddBuild(product, version, note, notify)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Infof("build of %q version %q added to the tracker", product.Title, version)
	return build, nil
}
