package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"inside-notes/internal/llm"
	"inside-notes/pkg"
)

// State is the consolidation state of a workflow.
type State string

const (
	StateIdle          State = "idle"
	StateChoosingStyle State = "choosing_style"
	StateProcessing    State = "processing"
	StateReviewing     State = "reviewing"
	StateSaved         State = "saved"
)

// RecorderState is the audio capture state of a workflow.  A single value
// rules out recording and transcribing at the same time.
type RecorderState string

const (
	RecorderIdle         RecorderState = "idle"
	RecorderRecording    RecorderState = "recording"
	RecorderTranscribing RecorderState = "transcribing"
)

// Result is the annotation content a workflow hands to its saver.
type Result struct {
	Kind      pkg.AnnotationKind
	Body      string
	Fragments []string
	Draft     bool
}

// AnnotationSaver persists a finished workflow.  An empty annotationID
// creates a new annotation.
type AnnotationSaver interface {
	SaveAnnotation(ctx context.Context, visitID, annotationID string, r Result) (*pkg.Annotation, error)
}

// WorkflowDeps are the collaborators shared by workflows.
type WorkflowDeps struct {
	LLM      llm.Client
	Prompts  *PromptSet
	Saver    AnnotationSaver
	Notifier Notifier
	Logger   *zap.Logger
}

// Consolidate prefixes every fragment with a bullet and joins them with a
// blank line, in insertion order.
func Consolidate(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}
	return "- " + strings.Join(fragments, "\n\n- ")
}

// Workflow captures fragments for one annotation, consolidates them, has
// them rewritten and saves the result.  Capability calls run without the
// lock held; gen detects a reset that happened meanwhile.
type Workflow struct {
	ID      string
	VisitID string
	Kind    pkg.AnnotationKind

	deps WorkflowDeps

	mu           sync.Mutex
	gen          uint64
	annotationID string
	state        State
	recorder     RecorderState
	fragments    []string
	raw          string
	rewritten    string
	capture      Capture
}

// NewWorkflow opens a workflow for a new annotation, or for editing existing
// when it is not nil.
func NewWorkflow(id, visitID string, kind pkg.AnnotationKind, existing *pkg.Annotation, deps WorkflowDeps) *Workflow {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Prompts == nil {
		deps.Prompts = NewPromptSet()
	}
	w := &Workflow{ID: id, VisitID: visitID, Kind: kind, deps: deps}
	w.Open(existing)
	return w
}

// Open resets the workflow and preloads the fragments of existing.
func (w *Workflow) Open(existing *pkg.Annotation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	if existing != nil {
		w.annotationID = existing.ID
		w.Kind = existing.Kind
		w.fragments = append([]string(nil), existing.Fragments...)
	}
}

// Close clears all transient state and releases a held audio input.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *Workflow) resetLocked() {
	w.gen++
	if w.capture != nil {
		if err := w.capture.Close(); err != nil {
			w.deps.Logger.Warn("release audio input", zap.String("workflow_id", w.ID), zap.Error(err))
		}
		w.capture = nil
	}
	w.annotationID = ""
	w.state = StateIdle
	w.recorder = RecorderIdle
	w.fragments = nil
	w.raw = ""
	w.rewritten = ""
}

func (w *Workflow) notify(kind NotificationKind, msg string) {
	if w.deps.Notifier != nil {
		w.deps.Notifier.Notify(kind, msg)
	}
}

func (w *Workflow) requireIdleLocked() error {
	switch w.state {
	case StateIdle:
		return nil
	case StateProcessing:
		return ErrBusy
	default:
		return ErrInvalidState
	}
}

// AddFragment appends a typed fragment.
func (w *Workflow) AddFragment(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Field: "text", Message: "required"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireIdleLocked(); err != nil {
		return err
	}
	w.fragments = append(w.fragments, text)
	return nil
}

// DeleteFragment removes the fragment at position i.
func (w *Workflow) DeleteFragment(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireIdleLocked(); err != nil {
		return err
	}
	if i < 0 || i >= len(w.fragments) {
		return ErrFragmentIndex
	}
	w.fragments = append(w.fragments[:i:i], w.fragments[i+1:]...)
	return nil
}

// Finalize starts consolidation.  With a single template the rewrite runs
// immediately; with several the workflow waits in StateChoosingStyle.
func (w *Workflow) Finalize(ctx context.Context) error {
	w.mu.Lock()
	if err := w.requireIdleLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.recorder != RecorderIdle {
		w.mu.Unlock()
		return ErrBusy
	}
	if len(w.fragments) == 0 {
		w.mu.Unlock()
		return ErrNoFragments
	}
	prompts := w.deps.Prompts.List()
	switch {
	case len(prompts) == 0:
		w.mu.Unlock()
		w.notify(NotifyError, MsgNoPrompt)
		return ErrNoPrompt
	case len(prompts) > 1:
		w.state = StateChoosingStyle
		w.mu.Unlock()
		return nil
	}
	return w.rewriteLocked(ctx, prompts[0])
}

// ChooseStyle picks the template by name and runs the rewrite.
func (w *Workflow) ChooseStyle(ctx context.Context, name string) error {
	w.mu.Lock()
	switch w.state {
	case StateChoosingStyle:
	case StateProcessing:
		w.mu.Unlock()
		return ErrBusy
	default:
		w.mu.Unlock()
		return ErrInvalidState
	}
	p, ok := w.deps.Prompts.Get(name)
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}
	return w.rewriteLocked(ctx, p)
}

// CancelStyle leaves template selection without rewriting.
func (w *Workflow) CancelStyle() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateChoosingStyle {
		return ErrInvalidState
	}
	w.state = StateIdle
	return nil
}

// rewriteLocked must be called with w.mu held and releases it.
func (w *Workflow) rewriteLocked(ctx context.Context, p pkg.Prompt) error {
	raw := Consolidate(w.fragments)
	gen := w.gen
	w.state = StateProcessing
	w.mu.Unlock()

	out, err := w.deps.LLM.Rewrite(ctx, raw, p.Content)

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return ErrInvalidState
	}
	if err != nil {
		w.state = StateIdle
		w.mu.Unlock()
		w.deps.Logger.Error("rewrite failed", zap.String("workflow_id", w.ID), zap.String("prompt", p.Name), zap.Error(err))
		w.notify(NotifyError, MsgRewriteFailed)
		return &CapabilityError{Op: "rewrite", Message: MsgRewriteFailed, Err: err}
	}
	w.raw = raw
	w.rewritten = out
	w.state = StateReviewing
	w.mu.Unlock()
	return nil
}

// EditRewritten replaces the rewritten text under review.
func (w *Workflow) EditRewritten(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing {
		return ErrInvalidState
	}
	w.rewritten = text
	return nil
}

// Back discards the rewritten draft and returns to editing fragments.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing {
		return ErrInvalidState
	}
	w.state = StateIdle
	w.raw = ""
	w.rewritten = ""
	return nil
}

// Save persists the reviewed text as a final annotation.
func (w *Workflow) Save(ctx context.Context) (*pkg.Annotation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing {
		return nil, ErrInvalidState
	}
	if strings.TrimSpace(w.rewritten) == "" {
		return nil, &ValidationError{Field: "text", Message: "required"}
	}
	return w.saveLocked(ctx, Result{
		Kind:      w.Kind,
		Body:      w.rewritten,
		Fragments: append([]string(nil), w.fragments...),
	}, MsgSavedFinal)
}

// SaveDraft persists the literal consolidation without calling the model.
func (w *Workflow) SaveDraft(ctx context.Context) (*pkg.Annotation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireIdleLocked(); err != nil {
		return nil, err
	}
	if w.recorder != RecorderIdle {
		return nil, ErrBusy
	}
	if len(w.fragments) == 0 {
		return nil, ErrNoFragments
	}
	return w.saveLocked(ctx, Result{
		Kind:      w.Kind,
		Body:      Consolidate(w.fragments),
		Fragments: append([]string(nil), w.fragments...),
		Draft:     true,
	}, MsgSavedDraft)
}

func (w *Workflow) saveLocked(ctx context.Context, r Result, okMsg string) (*pkg.Annotation, error) {
	ann, err := w.deps.Saver.SaveAnnotation(ctx, w.VisitID, w.annotationID, r)
	if err != nil {
		w.deps.Logger.Error("save annotation", zap.String("workflow_id", w.ID), zap.Error(err))
		w.notify(NotifyError, MsgSaveFailed)
		return nil, err
	}
	w.resetLocked()
	w.state = StateSaved
	w.notify(NotifySuccess, okMsg)
	return ann, nil
}

// StartRecording acquires an audio input from src.
func (w *Workflow) StartRecording(ctx context.Context, src AudioSource) error {
	w.mu.Lock()
	if err := w.requireIdleLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.recorder != RecorderIdle {
		w.mu.Unlock()
		return ErrBusy
	}
	w.recorder = RecorderRecording
	gen := w.gen
	w.mu.Unlock()

	c, err := src.Open(ctx)

	w.mu.Lock()
	if err != nil {
		if gen == w.gen {
			w.recorder = RecorderIdle
		}
		w.mu.Unlock()
		w.deps.Logger.Warn("acquire audio input", zap.String("workflow_id", w.ID), zap.Error(err))
		if errors.Is(err, ErrDeviceNotFound) {
			w.notify(NotifyError, MsgNoMicrophone)
			return err
		}
		w.notify(NotifyError, MsgMicrophoneDenied)
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if gen != w.gen {
		w.mu.Unlock()
		_ = c.Close()
		return ErrInvalidState
	}
	w.capture = c
	w.mu.Unlock()
	return nil
}

// StopRecording finalises the capture and transcribes it.  A non-empty
// transcription is appended as one fragment.  The recorder returns to idle
// and the input is released last, whatever the outcome.
func (w *Workflow) StopRecording(ctx context.Context) error {
	w.mu.Lock()
	if w.recorder != RecorderRecording || w.capture == nil {
		w.mu.Unlock()
		return ErrInvalidState
	}
	c := w.capture
	w.capture = nil
	w.recorder = RecorderTranscribing
	gen := w.gen
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if gen == w.gen {
			w.recorder = RecorderIdle
		}
		w.mu.Unlock()
		if err := c.Close(); err != nil {
			w.deps.Logger.Warn("release audio input", zap.String("workflow_id", w.ID), zap.Error(err))
		}
	}()

	text, err := w.transcribe(ctx, c)
	if err != nil {
		w.deps.Logger.Error("transcription failed", zap.String("workflow_id", w.ID), zap.Error(err))
		w.notify(NotifyError, MsgTranscribeFailed)
		return &CapabilityError{Op: "transcribe", Message: MsgTranscribeFailed, Err: err}
	}

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return ErrInvalidState
	}
	w.fragments = append(w.fragments, text)
	w.mu.Unlock()
	w.notify(NotifySuccess, MsgTranscribed)
	return nil
}

func (w *Workflow) transcribe(ctx context.Context, c Capture) (string, error) {
	audio, err := c.Stop()
	if err != nil {
		return "", fmt.Errorf("stop capture: %w", err)
	}
	text, err := w.deps.LLM.Transcribe(ctx, audio.Data, audio.MimeType)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranscription
	}
	return text, nil
}

// Record runs a full start/stop cycle against src.
func (w *Workflow) Record(ctx context.Context, src AudioSource) error {
	if err := w.StartRecording(ctx, src); err != nil {
		return err
	}
	return w.StopRecording(ctx)
}

// Snapshot is a consistent copy of the workflow state.
type Snapshot struct {
	ID           string             `json:"id"`
	VisitID      string             `json:"visit_id"`
	AnnotationID string             `json:"annotation_id,omitempty"`
	Kind         pkg.AnnotationKind `json:"kind"`
	State        State              `json:"state"`
	Recorder     RecorderState      `json:"recorder"`
	Fragments    []string           `json:"fragments"`
	RawText      string             `json:"raw_text"`
	Rewritten    string             `json:"rewritten_text"`
	Prompts      []string           `json:"prompts,omitempty"`
}

// Snapshot returns the current state.  The raw text is the live
// consolidation while editing and the text that was sent to the model once
// under review.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		ID:           w.ID,
		VisitID:      w.VisitID,
		AnnotationID: w.annotationID,
		Kind:         w.Kind,
		State:        w.state,
		Recorder:     w.recorder,
		Fragments:    append([]string{}, w.fragments...),
		RawText:      Consolidate(w.fragments),
		Rewritten:    w.rewritten,
	}
	if w.state == StateReviewing {
		s.RawText = w.raw
	}
	if w.state == StateChoosingStyle {
		for _, p := range w.deps.Prompts.List() {
			s.Prompts = append(s.Prompts, p.Name)
		}
	}
	return s
}
