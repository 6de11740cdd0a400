// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package launchpad declares the capabilities the bug-processing
// workflows need from a Launchpad-style bug tracker. Implementations
// wrap whatever client the calling tool uses; the workflows only ever
// see these interfaces.
package launchpad

// Launchpad is the entry point to the bug tracker.
type Launchpad interface {
	// RootURI returns the API root, with a trailing slash.
	RootURI() string

	// Bug returns the bug with the given number.
	Bug(number int) (Bug, error)

	// Person returns the person or team with the given name.
	Person(name string) (Person, error)

	// Load resolves a target URL, such as a distribution source
	// package, into a task target.
	Load(url string) (Target, error)
}

// Bug is a single bug report.
type Bug interface {
	// Number returns the bug number.
	Number() int

	// Title returns the bug title.
	Title() string

	// Owner returns the person who reported the bug.
	Owner() Person

	// Tasks returns the bug's tasks.
	Tasks() ([]Task, error)

	// AddTask adds a task against the given target.
	AddTask(target Target) (Task, error)

	// Tags returns the bug's tags.
	Tags() []string

	// SetTags replaces the bug's tags.
	SetTags(tags []string) error

	// Subscribe subscribes the person to the bug.
	Subscribe(person Person) error

	// Subscribers returns the people subscribed to the bug.
	Subscribers() ([]Person, error)

	// AddMessage posts a comment on the bug.
	AddMessage(subject, content string) error
}

// Task is one bug task, a bug's state against one target.
type Task interface {
	// Status returns the task's status name, such as "Fix Committed".
	Status() string

	// SetStatus sets and saves the task's status.
	SetStatus(status string) error

	// TargetLink returns the API URL of the task's target.
	TargetLink() string

	// WebLink returns the human-facing URL of the task.
	WebLink() string
}

// Person is a person or team.
type Person interface {
	// Name returns the unique short name, such as "ubuntu-sru".
	Name() string

	// DisplayName returns the full display name.
	DisplayName() string
}

// Target is an opaque task target, such as a distribution source
// package, identified by its API URL.
type Target interface {
	// SelfLink returns the API URL of the target.
	SelfLink() string
}
