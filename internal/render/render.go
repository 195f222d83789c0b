package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"
)

// Placeholder is printed for null values.
const Placeholder = "-"

// View selects how a result is shown.
type View string

const (
	ViewFormatted View = "formatted"
	ViewJSON      View = "json"
	ViewRaw       View = "raw"
)

// Views lists the supported views.
var Views = []View{ViewFormatted, ViewJSON, ViewRaw}

// ParseView validates a view name. Empty selects ViewFormatted.
func ParseView(s string) (View, error) {
	if s == "" {
		return ViewFormatted, nil
	}
	for _, v := range Views {
		if string(v) == strings.ToLower(s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q (want formatted, json or raw)", s)
}

// Styler decorates rendered text.
type Styler interface {
	Key(k string) string
	Null(s string) string
	Bool(b bool, s string) string
	Text(s string) string
}

// Plain applies no styling.
type Plain struct{}

func (Plain) Key(k string) string { return k }
func (Plain) Null(s string) string { return s }
func (Plain) Bool(_ bool, s string) string { return s }
func (Plain) Text(s string) string { return s }

// Terminal colours output with lipgloss.
type Terminal struct {
	key   lipgloss.Style
	null  lipgloss.Style
	yes   lipgloss.Style
	no    lipgloss.Style
	plain lipgloss.Style
}

// NewTerminal returns the terminal styler: dim keys, green true, red false and
// a grey placeholder.
func NewTerminal() *Terminal {
	return &Terminal{
		key:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
		null:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		yes:   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		no:    lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		plain: lipgloss.NewStyle(),
	}
}

func (t *Terminal) Key(k string) string { return t.key.Render(k) }
func (t *Terminal) Null(s string) string { return t.null.Render(s) }
func (t *Terminal) Text(s string) string { return t.plain.Render(s) }

func (t *Terminal) Bool(b bool, s string) string {
	if b {
		return t.yes.Render(s)
	}
	return t.no.Render(s)
}

// Renderer renders values as indented key/value text. The zero value renders
// without styling.
type Renderer struct {
	Styler Styler
	// Indent prefixes each nesting level. Defaults to two spaces.
	Indent string
}

// Render returns the text for v. It is a pure function of v.
func (r *Renderer) Render(v *Value) string {
	return strings.Join(r.lines(v), "\n")
}

func (r *Renderer) styler() Styler {
	if r.Styler == nil {
		return Plain{}
	}
	return r.Styler
}

func (r *Renderer) indent() string {
	if r.Indent == "" {
		return "  "
	}
	return r.Indent
}

func (r *Renderer) lines(v *Value) []string {
	if v == nil {
		return []string{r.scalar(v)}
	}
	st := r.styler()
	ind := r.indent()

	switch v.Kind {
	case Object:
		if len(v.Members) == 0 {
			return []string{st.Text("{}")}
		}
		var out []string
		for _, m := range v.Members {
			if isBlock(m.Value) {
				out = append(out, st.Key(m.Key)+":")
				for _, l := range r.lines(m.Value) {
					out = append(out, ind+l)
				}
				continue
			}
			out = append(out, st.Key(m.Key)+": "+r.scalar(m.Value))
		}
		return out

	case Array:
		if len(v.Elems) == 0 {
			return []string{st.Text("[]")}
		}
		var out []string
		pad := strings.Repeat(" ", len("- "))
		for _, e := range v.Elems {
			sub := r.lines(e)
			out = append(out, "- "+sub[0])
			for _, l := range sub[1:] {
				out = append(out, pad+l)
			}
		}
		return out
	}
	return []string{r.scalar(v)}
}

func (r *Renderer) scalar(v *Value) string {
	st := r.styler()
	if v == nil {
		return st.Null(Placeholder)
	}
	switch v.Kind {
	case Null:
		return st.Null(Placeholder)
	case Bool:
		if v.Bool {
			return st.Bool(true, "true")
		}
		return st.Bool(false, "false")
	case Object:
		return st.Text("{}")
	case Array:
		return st.Text("[]")
	case String:
		if readsAsLiteral(v.Text) {
			return st.Text(strconv.Quote(v.Text))
		}
	}
	return st.Text(v.Text)
}

// readsAsLiteral reports whether a string would print like a boolean or a
// null, so it has to be quoted to stay distinguishable without colour.
func readsAsLiteral(s string) bool {
	switch s {
	case "true", "false", "null", Placeholder:
		return true
	}
	return false
}

// isBlock reports whether v renders on its own indented lines.
func isBlock(v *Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case Object:
		return len(v.Members) > 0
	case Array:
		return len(v.Elems) > 0
	}
	return false
}

// PrettyJSON indents raw JSON by two spaces, keeping key order and number
// literals. Empty input yields "null".
func PrettyJSON(raw []byte) string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "null"
	}
	out := pretty.Pretty(raw)
	return strings.TrimRight(string(out), "\n")
}

// Usage is token accounting reported by the service.
type Usage struct {
	InputTokens  int64 `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64 `json:"output_tokens" yaml:"output_tokens"`
}

// UsageLine formats usage as "<in> in / <out> out". A nil usage yields "".
func UsageLine(u *Usage) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("%d in / %d out", u.InputTokens, u.OutputTokens)
}
