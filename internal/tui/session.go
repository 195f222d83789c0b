package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/render"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/upload"
)

// Menu entries. Only the entries that apply to the current state are offered.
const (
	ActionShowSchema  = "Show schema"
	ActionAddField    = "Add field"
	ActionEditField   = "Edit field"
	ActionRemoveField = "Remove field"
	ActionEditItems   = "Edit array items"
	ActionSelectFile  = "Select file"
	ActionClearFile   = "Clear file"
	ActionProcess     = "Process document"
	ActionViewResults = "View results"
	ActionDismiss     = "Dismiss error"
	ActionReset       = "Reset schema"
	ActionQuit        = "Quit"
)

const (
	optionDone   = "Done"
	optionBack   = "Back"
	optionAdd    = "Add item"
	optionRename = "Rename"
	optionRemove = "Remove"
)

// Config configures a Session.
type Config struct {
	Driver Driver
	// Flow owns the selected file and submission state.
	Flow *extract.Flow
	// Editor holds the schema. Nil starts from the starter schema.
	Editor *schema.Editor
	// Renderer formats results. Nil renders without color.
	Renderer *render.Renderer
	// View is the initial result view.
	View   render.View
	Logger *slog.Logger
}

// Session is one interactive editing session. The schema lives only as long
// as the session.
type Session struct {
	driver   Driver
	flow     *extract.Flow
	editor   *schema.Editor
	renderer *render.Renderer
	view     render.View
	logger   *slog.Logger
}

// NewSession creates a session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Driver == nil {
		return nil, errors.New("driver is required")
	}
	if cfg.Flow == nil {
		return nil, errors.New("flow is required")
	}
	s := &Session{
		driver:   cfg.Driver,
		flow:     cfg.Flow,
		editor:   cfg.Editor,
		renderer: cfg.Renderer,
		view:     cfg.View,
		logger:   cfg.Logger,
	}
	if s.editor == nil {
		s.editor = schema.NewEditor()
	}
	if s.renderer == nil {
		s.renderer = &render.Renderer{Styler: render.Plain{}}
	}
	if s.view == "" {
		s.view = render.ViewFormatted
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Editor returns the session's schema editor.
func (s *Session) Editor() *schema.Editor {
	return s.editor
}

// Run shows the menu until the user quits or interrupts. An interrupt inside a
// sub-prompt returns to the menu.
func (s *Session) Run(ctx context.Context) error {
	for {
		actions := s.menu()
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:  s.status(),
			Options:  actions,
			PageSize: len(actions),
		})
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}

		action := actions[idx]
		if action == ActionQuit {
			return nil
		}
		s.logger.Debug("menu action", "action", action)
		if err := s.do(ctx, action); err != nil && !errors.Is(err, ErrAborted) {
			return err
		}
	}
}

func (s *Session) menu() []string {
	snap := s.flow.Snapshot()

	actions := []string{ActionShowSchema, ActionAddField}
	if s.editor.Len() > 0 {
		actions = append(actions, ActionEditField, ActionRemoveField)
	}
	if s.hasArrayField() {
		actions = append(actions, ActionEditItems)
	}
	actions = append(actions, ActionSelectFile)
	if snap.File != nil {
		actions = append(actions, ActionClearFile)
	}
	if s.flow.CanSubmit() {
		actions = append(actions, ActionProcess)
	}
	if snap.Result != nil {
		actions = append(actions, ActionViewResults)
	}
	if snap.State == extract.StateError {
		actions = append(actions, ActionDismiss)
	}
	return append(actions, ActionReset, ActionQuit)
}

func (s *Session) status() string {
	snap := s.flow.Snapshot()
	file := "none"
	if snap.File != nil {
		file = snap.File.Summary()
	}
	return fmt.Sprintf("Fields: %d | File: %s | State: %s", s.editor.Len(), file, snap.State)
}

func (s *Session) do(ctx context.Context, action string) error {
	switch action {
	case ActionShowSchema:
		return s.showSchema(ctx)
	case ActionAddField:
		f := s.editor.AddField()
		return s.editField(ctx, f.ID)
	case ActionEditField:
		f, ok, err := s.chooseField(ctx, "Edit which field?", nil)
		if err != nil || !ok {
			return err
		}
		return s.editField(ctx, f.ID)
	case ActionRemoveField:
		return s.removeField(ctx)
	case ActionEditItems:
		f, ok, err := s.chooseField(ctx, "Edit items of which field?", schema.Field.IsArray)
		if err != nil || !ok {
			return err
		}
		return s.editItems(ctx, f.ID)
	case ActionSelectFile:
		return s.selectFile(ctx)
	case ActionClearFile:
		s.flow.ClearFile()
		return nil
	case ActionProcess:
		return s.process(ctx)
	case ActionViewResults:
		return s.viewResults(ctx)
	case ActionDismiss:
		s.flow.DismissError()
		return nil
	case ActionReset:
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Replace the schema with the starter fields?"})
		if err != nil || !ok {
			return err
		}
		s.editor.Reset()
		return nil
	}
	return fmt.Errorf("unknown action %q", action)
}

func (s *Session) showSchema(ctx context.Context) error {
	fields := s.editor.Fields()
	if len(fields) == 0 {
		return s.driver.Info(ctx, "Schema is empty.")
	}

	var b strings.Builder
	for i, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "%d. %s (%s, %s)", i+1, displayKey(f.Key), f.Type, req)
		if f.Description != "" {
			fmt.Fprintf(&b, ": %s", f.Description)
		}
		b.WriteByte('\n')
		if f.IsArray() {
			for _, it := range f.ItemsStructure.Entries() {
				fmt.Fprintf(&b, "     - %s: %s\n", displayKey(it.Key), it.Description)
			}
		}
	}
	for _, issue := range schema.Lint(fields) {
		fmt.Fprintf(&b, "warning: %s\n", issue)
	}
	return s.driver.Info(ctx, strings.TrimRight(b.String(), "\n"))
}

// chooseField asks for one field, optionally limited by keep. ok is false when
// the user picks Back.
func (s *Session) chooseField(ctx context.Context, msg string, keep func(schema.Field) bool) (schema.Field, bool, error) {
	var (
		candidates []schema.Field
		options    []string
	)
	for i, f := range s.editor.Fields() {
		if keep != nil && !keep(f) {
			continue
		}
		candidates = append(candidates, f)
		options = append(options, fieldLabel(i, f))
	}
	options = append(options, optionBack)

	idx, err := s.driver.Select(ctx, SelectConfig{Message: msg, Options: options})
	if err != nil {
		return schema.Field{}, false, err
	}
	if idx < 0 || idx >= len(candidates) {
		return schema.Field{}, false, nil
	}
	return candidates[idx], true, nil
}

func (s *Session) editField(ctx context.Context, id string) error {
	for {
		f, ok := s.editor.Field(id)
		if !ok {
			return nil
		}
		options := []string{
			"Key: " + displayKey(f.Key),
			"Description: " + f.Description,
			"Type: " + string(f.Type),
			"Required: " + yesNo(f.Required),
			optionDone,
		}
		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Edit " + displayKey(f.Key), Options: options})
		if err != nil {
			return err
		}

		switch idx {
		case 0:
			key, err := s.driver.Input(ctx, InputConfig{Message: "Key", Default: f.Key})
			if err != nil {
				return err
			}
			s.editor.UpdateField(id, schema.SetKey(key))
		case 1:
			desc, err := s.driver.Input(ctx, InputConfig{Message: "Description", Default: f.Description})
			if err != nil {
				return err
			}
			s.editor.UpdateField(id, schema.SetDescription(desc))
		case 2:
			t, err := s.chooseType(ctx, f.Type)
			if err != nil {
				return err
			}
			s.editor.UpdateField(id, schema.SetType(t))
		case 3:
			req, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Required?", Default: f.Required})
			if err != nil {
				return err
			}
			s.editor.UpdateField(id, schema.SetRequired(req))
		default:
			return nil
		}
	}
}

func (s *Session) chooseType(ctx context.Context, current schema.FieldType) (schema.FieldType, error) {
	options := make([]string, len(schema.FieldTypes))
	def := 0
	for i, t := range schema.FieldTypes {
		options[i] = string(t)
		if t == current {
			def = i
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Type", Options: options, DefaultIndex: def})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return current, nil
	}
	return schema.FieldTypes[idx], nil
}

func (s *Session) removeField(ctx context.Context) error {
	f, ok, err := s.chooseField(ctx, "Remove which field?", nil)
	if err != nil || !ok {
		return err
	}
	yes, err := s.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Remove %s?", displayKey(f.Key))})
	if err != nil || !yes {
		return err
	}
	s.editor.RemoveField(f.ID)
	return nil
}

func (s *Session) editItems(ctx context.Context, id string) error {
	for {
		f, ok := s.editor.Field(id)
		if !ok || !f.IsArray() {
			return nil
		}
		entries := f.ItemsStructure.Entries()
		options := make([]string, 0, len(entries)+2)
		for _, it := range entries {
			options = append(options, fmt.Sprintf("%s: %s", displayKey(it.Key), it.Description))
		}
		options = append(options, optionAdd, optionDone)

		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Items of " + displayKey(f.Key), Options: options})
		if err != nil {
			return err
		}
		switch {
		case idx >= 0 && idx < len(entries):
			if err := s.editItem(ctx, id, entries[idx]); err != nil {
				return err
			}
		case idx == len(entries):
			if key, ok := s.editor.AddArrayItem(id); ok {
				if err := s.driver.Info(ctx, "Added item "+key); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}

func (s *Session) editItem(ctx context.Context, id string, it schema.Item) error {
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message: "Item " + displayKey(it.Key),
		Options: []string{optionRename, optionRemove, optionBack},
	})
	if err != nil {
		return err
	}
	switch idx {
	case 0:
		key, err := s.driver.Input(ctx, InputConfig{Message: "Key", Default: it.Key})
		if err != nil {
			return err
		}
		desc, err := s.driver.Input(ctx, InputConfig{Message: "Description", Default: it.Description})
		if err != nil {
			return err
		}
		s.editor.RenameArrayItem(id, it.Key, key, desc)
	case 1:
		s.editor.RemoveArrayItem(id, it.Key)
	}
	return nil
}

func (s *Session) selectFile(ctx context.Context) error {
	path, err := s.driver.Input(ctx, InputConfig{
		Message: "Document path",
		Help:    "PDF, JPG, PNG or WEBP",
		Validator: func(v string) error {
			if strings.TrimSpace(v) == "" {
				return errors.New("path is required")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	file, err := upload.Select(strings.TrimSpace(path))
	if errors.Is(err, upload.ErrInvalidFileType) {
		s.flow.ClearFile()
		return s.driver.Info(ctx, err.Error())
	}
	if err != nil {
		return s.driver.Info(ctx, "Could not use file: "+err.Error())
	}
	s.flow.SelectFile(file)
	return s.driver.Info(ctx, "Selected "+file.Summary())
}

func (s *Session) process(ctx context.Context) error {
	snap := s.flow.Snapshot()
	if snap.File != nil {
		if err := s.driver.Info(ctx, "Processing "+snap.File.Name+"..."); err != nil {
			return err
		}
	}

	res, err := s.flow.Submit(ctx, s.editor.Fields())
	if errors.Is(err, extract.ErrNoFile) || errors.Is(err, extract.ErrPending) {
		return s.driver.Info(ctx, err.Error())
	}
	if err != nil {
		msg := s.flow.Snapshot().Message
		if msg == "" {
			msg = err.Error()
		}
		return s.driver.Info(ctx, msg)
	}

	if err := s.showResult(ctx, res); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		if err := s.driver.Info(ctx, "warning: "+w); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) viewResults(ctx context.Context) error {
	res := s.flow.Snapshot().Result
	if res == nil {
		return nil
	}

	options := make([]string, len(render.Views))
	def := 0
	for i, v := range render.Views {
		options[i] = string(v)
		if v == s.view {
			def = i
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "View", Options: options, DefaultIndex: def})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(render.Views) {
		s.view = render.Views[idx]
	}
	return s.showResult(ctx, res)
}

func (s *Session) showResult(ctx context.Context, res *extract.Result) error {
	var buf bytes.Buffer
	if err := s.renderer.Show(&buf, s.view, res.Render()); err != nil {
		s.logger.Warn("failed to render result", "view", s.view, "error", err)
		return s.driver.Info(ctx, "Could not render result: "+err.Error())
	}
	return s.driver.Info(ctx, strings.TrimRight(buf.String(), "\n"))
}

func (s *Session) hasArrayField() bool {
	for _, f := range s.editor.Fields() {
		if f.IsArray() {
			return true
		}
	}
	return false
}

func fieldLabel(i int, f schema.Field) string {
	return fmt.Sprintf("%d. %s (%s)", i+1, displayKey(f.Key), f.Type)
}

func displayKey(key string) string {
	if key == "" {
		return "(no key)"
	}
	return key
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
