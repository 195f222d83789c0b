package extract

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jackzampolin/docextract/internal/render"
)

// Response is a successful extraction result. Data and ExtractionSchemaUsed
// are the raw JSON substrings of the body, so key order and number literals
// are exactly what the service sent.
type Response struct {
	Status               string
	Filename             string
	Message              string
	Data                 []byte
	ExtractionSchemaUsed []byte
	Usage                *render.Usage
	// RawText is the full response body, pretty printed.
	RawText string
}

// ParseResponse reads a service response body. The body must be a JSON
// object; a missing data member leaves Data nil.
func ParseResponse(body []byte) (*Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return nil, fmt.Errorf("failed to decode response: expected object, got %s", res.Type)
	}

	out := &Response{
		Status:   res.Get("status").String(),
		Filename: res.Get("filename").String(),
		Message:  res.Get("message").String(),
		RawText:  render.PrettyJSON(body),
	}
	if v := res.Get("data"); v.Exists() {
		out.Data = []byte(v.Raw)
	}
	if v := res.Get("extraction_schema_used"); v.Exists() {
		out.ExtractionSchemaUsed = []byte(v.Raw)
	}
	out.Usage = parseUsage(res.Get("usage"))
	return out, nil
}

func parseUsage(u gjson.Result) *render.Usage {
	if !u.IsObject() {
		return nil
	}
	in := firstOf(u, "input_tokens", "inputTokens", "prompt_tokens")
	outTokens := firstOf(u, "output_tokens", "outputTokens", "completion_tokens")
	if !in.Exists() && !outTokens.Exists() {
		return nil
	}
	return &render.Usage{InputTokens: in.Int(), OutputTokens: outTokens.Int()}
}

func firstOf(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
