package core

import (
	"context"
	"errors"
	"sync"

	"inside-notes/pkg"
)

// fakeLLM records calls and answers from canned values.
type fakeLLM struct {
	mu sync.Mutex

	rewriteOut string
	rewriteErr error
	rewrites   []rewriteCall

	transcribeOut string
	transcribeErr error
	transcribes   int

	summarizeOut string
	summarizeErr error
	summaries    []string
}

type rewriteCall struct {
	text  string
	style string
}

func (f *fakeLLM) Rewrite(ctx context.Context, text, style string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rewrites = append(f.rewrites, rewriteCall{text: text, style: style})
	return f.rewriteOut, f.rewriteErr
}

func (f *fakeLLM) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribes++
	return f.transcribeOut, f.transcribeErr
}

func (f *fakeLLM) Summarize(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, prompt)
	return f.summarizeOut, f.summarizeErr
}

func (f *fakeLLM) Ping(ctx context.Context) error { return nil }

// blockingLLM parks Rewrite and Transcribe until release is closed.  Each
// call announces itself on entered first.
type blockingLLM struct {
	fakeLLM
	entered chan string
	release chan struct{}
}

func newBlockingLLM() *blockingLLM {
	return &blockingLLM{
		fakeLLM: fakeLLM{rewriteOut: "Texto refinado.", transcribeOut: "Testou conectividade"},
		entered: make(chan string, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingLLM) Rewrite(ctx context.Context, text, style string) (string, error) {
	b.entered <- "rewrite"
	<-b.release
	return b.fakeLLM.Rewrite(ctx, text, style)
}

func (b *blockingLLM) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	b.entered <- "transcribe"
	<-b.release
	return b.fakeLLM.Transcribe(ctx, audio, mimeType)
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *recordingNotifier) Notify(kind NotificationKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Kind: kind, Message: message})
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// fakeSaver keeps the results handed over by workflows.
type fakeSaver struct {
	results []Result
	ids     []string
	err     error
}

func (s *fakeSaver) SaveAnnotation(ctx context.Context, visitID, annotationID string, r Result) (*pkg.Annotation, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.results = append(s.results, r)
	s.ids = append(s.ids, annotationID)
	id := annotationID
	if id == "" {
		id = "new"
	}
	return &pkg.Annotation{ID: id, VisitID: visitID, Kind: r.Kind, Body: r.Body, Fragments: r.Fragments, Draft: r.Draft}, nil
}

// fakeSource hands out fakeCaptures or a fixed error.
type fakeSource struct {
	err      error
	captures []*fakeCapture
}

func (s *fakeSource) Open(ctx context.Context) (Capture, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := &fakeCapture{}
	s.captures = append(s.captures, c)
	return c, nil
}

type fakeCapture struct {
	stopped bool
	closes  int
	stopErr error
}

func (c *fakeCapture) Stop() (Audio, error) {
	c.stopped = true
	if c.stopErr != nil {
		return Audio{}, c.stopErr
	}
	return Audio{Data: []byte("webm"), MimeType: "audio/webm"}, nil
}

func (c *fakeCapture) Close() error {
	c.closes++
	return nil
}

var errBoom = errors.New("boom")

type mapVisits struct {
	items   map[string]pkg.Visit
	updates int
	err     error
}

func newMapVisits(vs ...pkg.Visit) *mapVisits {
	m := &mapVisits{items: map[string]pkg.Visit{}}
	for _, v := range vs {
		m.items[v.ID] = v
	}
	return m
}

func (m *mapVisits) Create(ctx context.Context, v *pkg.Visit) error {
	m.items[v.ID] = *v
	return nil
}

func (m *mapVisits) Update(ctx context.Context, v *pkg.Visit) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[v.ID]; !ok {
		return pkg.ErrNotFound
	}
	m.updates++
	m.items[v.ID] = *v
	return nil
}

func (m *mapVisits) GetByID(ctx context.Context, id string) (*pkg.Visit, error) {
	v, ok := m.items[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &v, nil
}

func (m *mapVisits) List(ctx context.Context) ([]pkg.Visit, error) {
	out := make([]pkg.Visit, 0, len(m.items))
	for _, v := range m.items {
		out = append(out, v)
	}
	return out, nil
}

type sliceAnnotations struct {
	items []pkg.Annotation
}

func (s *sliceAnnotations) Create(ctx context.Context, a *pkg.Annotation) error {
	s.items = append(s.items, *a)
	return nil
}

func (s *sliceAnnotations) Update(ctx context.Context, a *pkg.Annotation) error {
	for i := range s.items {
		if s.items[i].ID == a.ID {
			s.items[i] = *a
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (s *sliceAnnotations) GetByID(ctx context.Context, id string) (*pkg.Annotation, error) {
	for _, a := range s.items {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (s *sliceAnnotations) ListByParent(ctx context.Context, visitID string) ([]pkg.Annotation, error) {
	out := []pkg.Annotation{}
	for _, a := range s.items {
		if a.VisitID == visitID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mapUsers map[int64]pkg.User

func (m mapUsers) Create(ctx context.Context, u *pkg.User) error { m[u.ID] = *u; return nil }
func (m mapUsers) Update(ctx context.Context, u *pkg.User) error { m[u.ID] = *u; return nil }

func (m mapUsers) GetByID(ctx context.Context, id int64) (*pkg.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &u, nil
}

func (m mapUsers) GetByEmail(ctx context.Context, email string) (*pkg.User, error) {
	for _, u := range m {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (m mapUsers) List(ctx context.Context) ([]pkg.User, error) {
	out := []pkg.User{}
	for _, u := range m {
		out = append(out, u)
	}
	return out, nil
}

type mapClients struct {
	items map[int64]pkg.Client
	err   error
}

func (m mapClients) Get(ctx context.Context, id int64) (*pkg.Client, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.items[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &c, nil
}

type fakeArtifacts struct {
	url    string
	err    error
	stored map[string]string
}

func (f *fakeArtifacts) Put(ctx context.Context, visitID, report string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.stored == nil {
		f.stored = map[string]string{}
	}
	f.stored[visitID] = report
	return f.url, nil
}

type fakeReportNotifier struct {
	events []ReportEvent
	err    error
}

func (f *fakeReportNotifier) ReportGenerated(ctx context.Context, ev ReportEvent) error {
	f.events = append(f.events, ev)
	return f.err
}
