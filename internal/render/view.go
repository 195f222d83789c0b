package render

import (
	"fmt"
	"io"
)

// Result is what a view is rendered from.
type Result struct {
	// Data is the raw JSON of the extracted data.
	Data []byte
	// RawText is the full service response, shown by the raw view.
	RawText string
	Usage   *Usage
}

// Show writes res to w using view.
func (r *Renderer) Show(w io.Writer, view View, res Result) error {
	var body string
	switch view {
	case ViewFormatted, "":
		v, err := Decode(res.Data)
		if err != nil {
			return err
		}
		body = r.Render(v)
	case ViewJSON:
		body = PrettyJSON(res.Data)
	case ViewRaw:
		body = res.RawText
	default:
		return fmt.Errorf("unknown view %q", view)
	}

	if _, err := fmt.Fprintln(w, body); err != nil {
		return err
	}
	if line := UsageLine(res.Usage); line != "" && view != ViewRaw {
		if _, err := fmt.Fprintf(w, "\n%s\n", r.styler().Null(line)); err != nil {
			return err
		}
	}
	return nil
}
