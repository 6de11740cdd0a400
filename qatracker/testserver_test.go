// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package qatracker_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
)

// fakeTracker is a minimal XML-RPC endpoint serving canned responses
// keyed by method name.
type fakeTracker struct {
	mu        sync.Mutex
	responses map[string]string
	failing   map[string]bool
	calls     []trackerCall
	auth      []string
}

type trackerCall struct {
	method string
	body   string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		responses: map[string]string{
			"system.listMethods":   xmlArray(xmlString("system.listMethods")),
			"qatracker.get_access": xmlString("admin"),
		},
		failing: make(map[string]bool),
	}
}

func (f *fakeTracker) respond(method, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = value
}

func (f *fakeTracker) fail(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[method] = true
}

func (f *fakeTracker) calledMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	methods := make([]string, len(f.calls))
	for i, call := range f.calls {
		methods[i] = call.method
	}
	return methods
}

func (f *fakeTracker) lastBody(method string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i].body
		}
	}
	return ""
}

var methodNamePattern = regexp.MustCompile(`<methodName>([^<]+)</methodName>`)

func (f *fakeTracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	method := ""
	if m := methodNamePattern.FindSubmatch(body); m != nil {
		method = string(m[1])
	}

	f.mu.Lock()
	f.calls = append(f.calls, trackerCall{method: method, body: string(body)})
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	value, ok := f.responses[method]
	failing := f.failing[method]
	f.mu.Unlock()

	if failing {
		http.Error(w, "tracker exploded", http.StatusInternalServerError)
		return
	}
	if !ok {
		value = xmlString("")
	}
	fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param><value>%s</value></param></params></methodResponse>`, value)
}

func (f *fakeTracker) serve() *httptest.Server {
	return httptest.NewServer(f)
}

func xmlString(s string) string {
	return "<string>" + s + "</string>"
}

func xmlInt(n int) string {
	return fmt.Sprintf("<int>%d</int>", n)
}

func xmlArray(values ...string) string {
	var b strings.Builder
	b.WriteString("<array><data>")
	for _, value := range values {
		b.WriteString("<value>" + value + "</value>")
	}
	b.WriteString("</data></array>")
	return b.String()
}

func xmlStruct(members ...[2]string) string {
	var b strings.Builder
	b.WriteString("<struct>")
	for _, member := range members {
		b.WriteString("<member><name>" + member[0] + "</name><value>" + member[1] + "</value></member>")
	}
	b.WriteString("</struct>")
	return b.String()
}
