package extract

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/jackzampolin/docextract/internal/render"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/upload"
)

// State is the submission state shown to the user.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateSuccess State = "success"
	StateError   State = "error"
)

// FailureMessage is the only error text shown for transport or service
// failures. Details go to the log.
const FailureMessage = "Failed to process document via API."

var (
	// ErrNoFile is returned by Submit when no file is selected.
	ErrNoFile = errors.New("no file selected")
	// ErrPending is returned by Submit while a request is outstanding.
	ErrPending = errors.New("a document is already being processed")
)

// Extractor performs one extraction request.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Response, error)
}

// Result is the last successful extraction.
type Result struct {
	Filename string
	Data     []byte
	RawText  string
	Usage    *render.Usage
	// Warnings lists places where Data does not match the submitted schema.
	Warnings []string
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = slices.Clone(r.Data)
	c.Warnings = slices.Clone(r.Warnings)
	if r.Usage != nil {
		u := *r.Usage
		c.Usage = &u
	}
	return &c
}

// Render returns the result in the form the renderer takes.
func (r *Result) Render() render.Result {
	return render.Result{Data: r.Data, RawText: r.RawText, Usage: r.Usage}
}

// Snapshot is a consistent copy of the flow state.
type Snapshot struct {
	State   State
	File    *upload.File
	Result  *Result
	Message string
}

// FlowConfig configures a Flow.
type FlowConfig struct {
	Extractor Extractor
	Logger    *slog.Logger
}

// Flow owns the selected file and the submission state. All methods are safe
// to call from multiple goroutines; at most one request is outstanding.
type Flow struct {
	mu        sync.Mutex
	extractor Extractor
	logger    *slog.Logger

	state   State
	file    *upload.File
	result  *Result
	message string
}

// NewFlow creates a flow in the idle state.
func NewFlow(cfg FlowConfig) *Flow {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		extractor: cfg.Extractor,
		logger:    logger,
		state:     StateIdle,
	}
}

// SetExtractor replaces the extractor used by later submissions.
func (f *Flow) SetExtractor(e Extractor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractor = e
}

// SelectFile makes file the document to submit.
func (f *Flow) SelectFile(file *upload.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.file = cloneFile(file)
}

// ClearFile deselects the current document.
func (f *Flow) ClearFile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.file = nil
}

// CanSubmit reports whether Submit would send a request.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file != nil && f.state != StatePending && f.extractor != nil
}

// Submit serializes fields once and sends them with the selected file. Without
// a file it returns ErrNoFile and changes nothing. On failure the previous
// result is kept and the state becomes StateError.
func (f *Flow) Submit(ctx context.Context, fields schema.Schema) (*Result, error) {
	f.mu.Lock()
	if f.state == StatePending {
		f.mu.Unlock()
		return nil, ErrPending
	}
	if f.file == nil {
		f.mu.Unlock()
		return nil, ErrNoFile
	}
	if f.extractor == nil {
		f.mu.Unlock()
		return nil, errors.New("no extraction service configured")
	}
	file := f.file
	extractor := f.extractor
	f.state = StatePending
	f.mu.Unlock()

	config, err := schema.MarshalSchemaConfig(fields)
	if err != nil {
		return nil, f.fail(file, err)
	}

	resp, err := extractor.Extract(ctx, Request{File: file, SchemaConfig: config})
	if err != nil {
		return nil, f.fail(file, err)
	}
	if resp == nil {
		return nil, f.fail(file, errors.New("empty response"))
	}

	warnings, err := schema.ValidateData(fields, resp.Data)
	if err != nil {
		f.logger.Debug("could not check result against schema", "error", err)
	}
	for _, w := range warnings {
		f.logger.Warn("result does not match schema", "file", file.Name, "detail", w)
	}

	res := &Result{
		Filename: resp.Filename,
		Data:     resp.Data,
		RawText:  resp.RawText,
		Usage:    resp.Usage,
		Warnings: warnings,
	}
	if res.Filename == "" {
		res.Filename = file.Name
	}

	f.mu.Lock()
	f.state = StateSuccess
	f.result = res
	f.message = ""
	f.mu.Unlock()

	f.logger.Info("document processed", "file", file.Name)
	return res.clone(), nil
}

func (f *Flow) fail(file *upload.File, err error) error {
	f.logger.Error("failed to process document", "file", file.Name, "error", err)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateError
	f.message = FailureMessage
	return err
}

// DismissError clears the error message. The state returns to StateSuccess
// when a previous result is held, otherwise to StateIdle.
func (f *Flow) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateError {
		return
	}
	f.message = ""
	if f.result != nil {
		f.state = StateSuccess
	} else {
		f.state = StateIdle
	}
}

// Snapshot returns a copy of the current state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		State:   f.state,
		File:    cloneFile(f.file),
		Result:  f.result.clone(),
		Message: f.message,
	}
}

func cloneFile(file *upload.File) *upload.File {
	if file == nil {
		return nil
	}
	c := *file
	return &c
}
