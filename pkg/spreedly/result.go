package spreedly

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	metaKey         = "meta"
	attributePrefix = "@"
	errorsKey       = "errors"
	errorsSeparator = ", "
)

// Failure describes a business-level failure: the call was transported but the
// API reported a problem, or answered with a server error.
type Failure struct {
	StatusCode int
	Errors     []any
}

// Result is produced fresh for every call. Exactly one of Success and Fails is true.
type Result struct {
	status  int
	raw     []byte
	body    any
	failure *Failure
}

// NewResult interprets an already transported response body. Statuses outside
// 2xx, bodies carrying a top-level "errors" key, and 2xx bodies that are not
// JSON all produce a failed result.
func NewResult(status int, raw []byte) *Result {
	r := &Result{status: status, raw: raw}

	body, decodeErr := decodeBody(raw)
	r.body = body

	entries, hasErrors := errorList(body)
	switch {
	case hasErrors:
		r.failure = &Failure{StatusCode: status, Errors: entries}
	case status < 200 || status > 299:
		r.failure = &Failure{StatusCode: status}
	case decodeErr != nil:
		r.failure = &Failure{StatusCode: status}
	}
	return r
}

// Success reports whether the call succeeded.
func (r *Result) Success() bool { return r != nil && r.failure == nil }

// Fails reports whether the call produced a business failure.
func (r *Result) Fails() bool { return !r.Success() }

// Failure returns the failure detail, or nil on success.
func (r *Result) Failure() *Failure {
	if r == nil {
		return nil
	}
	return r.failure
}

// StatusCode returns the HTTP status of the call.
func (r *Result) StatusCode() int {
	if r == nil {
		return 0
	}
	return r.status
}

// Raw returns the undecoded response body.
func (r *Result) Raw() []byte {
	if r == nil {
		return nil
	}
	return r.raw
}

// Response returns the resource carried by a successful body: top-level "meta"
// and "@"-prefixed keys are dropped, and when a single key remains its value is
// returned with its own "@"-prefixed keys dropped. It returns nil on failure;
// Raw and Failure still describe what the API sent.
func (r *Result) Response() any {
	if r == nil || r.failure != nil || r.body == nil {
		return nil
	}
	return extractResource(r.body)
}

// Decode unmarshals Response into v.
func (r *Result) Decode(v any) error {
	resource := r.Response()
	if resource == nil {
		return fmt.Errorf("spreedly: no resource to decode (status %d)", r.StatusCode())
	}
	buf, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("re-encode resource: %w", err)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("decode resource: %w", err)
	}
	return nil
}

// Errors returns the "errors" entries of the body verbatim. A value that is not
// an array is returned as the only entry.
func (r *Result) Errors() []any {
	if r == nil {
		return nil
	}
	entries, _ := errorList(r.body)
	return entries
}

// ErrorsJoined returns every error message joined with ", ". Object entries
// contribute their "message" field, string entries themselves.
func (r *Result) ErrorsJoined() string {
	entries := r.Errors()
	if len(entries) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		switch v := e.(type) {
		case map[string]any:
			msg, _ := v["message"].(string)
			msgs = append(msgs, msg)
		case string:
			msgs = append(msgs, v)
		}
	}
	return strings.Join(msgs, errorsSeparator)
}

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// errorList reports whether body carries a top-level "errors" key and returns
// its entries untouched. A null value has no entries.
func errorList(body any) ([]any, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}
	rawErrs, ok := obj[errorsKey]
	if !ok {
		return nil, false
	}
	switch v := rawErrs.(type) {
	case nil:
		return nil, true
	case []any:
		return v, true
	default:
		return []any{v}, true
	}
}

func extractResource(body any) any {
	obj, ok := body.(map[string]any)
	if !ok {
		return body
	}

	filtered := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == metaKey || strings.HasPrefix(k, attributePrefix) {
			continue
		}
		filtered[k] = v
	}
	if len(filtered) != 1 {
		return filtered
	}
	for _, v := range filtered {
		if inner, ok := v.(map[string]any); ok {
			return dropAttributes(inner)
		}
		return v
	}
	return filtered
}

func dropAttributes(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if strings.HasPrefix(k, attributePrefix) {
			continue
		}
		out[k] = v
	}
	return out
}
