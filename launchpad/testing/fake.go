// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package testing provides an in-memory bug tracker fake for exercising
// the bug-processing workflows.
package testing

import (
	"github.com/juju/errors"

	"github.com/canonical/ubuntu-archive-tools/launchpad"
)

// Fake is an in-memory launchpad.Launchpad. People are created on
// demand, the way the real tracker resolves any known team name.
type Fake struct {
	Root   string
	Bugs   map[int]*FakeBug
	People map[string]*FakePerson
}

// NewFake returns a Fake rooted at the given API URI.
func NewFake(root string) *Fake {
	return &Fake{
		Root:   root,
		Bugs:   make(map[int]*FakeBug),
		People: make(map[string]*FakePerson),
	}
}

// AddBug registers a bug and returns it for further setup.
func (f *Fake) AddBug(number int, title string, owner *FakePerson) *FakeBug {
	bug := &FakeBug{number: number, title: title, owner: owner}
	f.Bugs[number] = bug
	return bug
}

func (f *Fake) RootURI() string {
	return f.Root
}

func (f *Fake) Bug(number int) (launchpad.Bug, error) {
	bug, ok := f.Bugs[number]
	if !ok {
		return nil, errors.NotFoundf("bug %d", number)
	}
	return bug, nil
}

func (f *Fake) Person(name string) (launchpad.Person, error) {
	person, ok := f.People[name]
	if !ok {
		person = &FakePerson{name: name, display: name}
		f.People[name] = person
	}
	return person, nil
}

func (f *Fake) Load(url string) (launchpad.Target, error) {
	return &FakeTarget{Link: url}, nil
}

// FakeBug is an in-memory bug. Setters record what the workflows did.
type FakeBug struct {
	number int
	title  string
	owner  *FakePerson
	tags   []string

	BugTasks    []*FakeTask
	Subscribed  []*FakePerson
	subscribers []*FakePerson
	Messages    []FakeMessage
	TagsHistory [][]string
}

// FakeMessage is a comment posted on a FakeBug.
type FakeMessage struct {
	Subject string
	Content string
}

// AddBugTask registers an existing task on the bug, for test setup.
func (b *FakeBug) AddBugTask(status, targetLink, webLink string) *FakeTask {
	task := &FakeTask{status: status, target: targetLink, web: webLink}
	b.BugTasks = append(b.BugTasks, task)
	return task
}

// SetInitialTags seeds the bug's tags, for test setup.
func (b *FakeBug) SetInitialTags(tags ...string) {
	b.tags = tags
}

// AddSubscriber seeds the bug's subscriber list, for test setup.
func (b *FakeBug) AddSubscriber(person *FakePerson) {
	b.subscribers = append(b.subscribers, person)
}

func (b *FakeBug) Number() int {
	return b.number
}

func (b *FakeBug) Title() string {
	return b.title
}

func (b *FakeBug) Owner() launchpad.Person {
	return b.owner
}

func (b *FakeBug) Tasks() ([]launchpad.Task, error) {
	tasks := make([]launchpad.Task, len(b.BugTasks))
	for i, task := range b.BugTasks {
		tasks[i] = task
	}
	return tasks, nil
}

func (b *FakeBug) AddTask(target launchpad.Target) (launchpad.Task, error) {
	task := &FakeTask{status: "New", target: target.SelfLink()}
	b.BugTasks = append(b.BugTasks, task)
	return task, nil
}

func (b *FakeBug) Tags() []string {
	return append([]string(nil), b.tags...)
}

func (b *FakeBug) SetTags(tags []string) error {
	b.tags = append([]string(nil), tags...)
	b.TagsHistory = append(b.TagsHistory, b.Tags())
	return nil
}

func (b *FakeBug) Subscribe(person launchpad.Person) error {
	fake := person.(*FakePerson)
	b.Subscribed = append(b.Subscribed, fake)
	b.subscribers = append(b.subscribers, fake)
	return nil
}

func (b *FakeBug) Subscribers() ([]launchpad.Person, error) {
	people := make([]launchpad.Person, len(b.subscribers))
	for i, person := range b.subscribers {
		people[i] = person
	}
	return people, nil
}

func (b *FakeBug) AddMessage(subject, content string) error {
	b.Messages = append(b.Messages, FakeMessage{Subject: subject, Content: content})
	return nil
}

// FakeTask is an in-memory bug task.
type FakeTask struct {
	status string
	target string
	web    string

	StatusHistory []string
}

func (t *FakeTask) Status() string {
	return t.status
}

func (t *FakeTask) SetStatus(status string) error {
	t.status = status
	t.StatusHistory = append(t.StatusHistory, status)
	return nil
}

func (t *FakeTask) TargetLink() string {
	return t.target
}

func (t *FakeTask) WebLink() string {
	return t.web
}

// FakePerson is an in-memory person or team.
type FakePerson struct {
	name    string
	display string
}

// NewFakePerson returns a person with the given short and display names.
func NewFakePerson(name, display string) *FakePerson {
	return &FakePerson{name: name, display: display}
}

func (p *FakePerson) Name() string {
	return p.name
}

func (p *FakePerson) DisplayName() string {
	return p.display
}

// FakeTarget is a task target identified by its API URL.
type FakeTarget struct {
	Link string
}

func (t *FakeTarget) SelfLink() string {
	return t.Link
}
