// Package extract maps an arbitrary incoming field bag to the canonical
// submission fields. Field names come from an external form builder and are
// not under our control, so matching is by substring and a small fallback set.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
)

var ErrNoData = errors.New("no data received")

// Field is one incoming form field. Fields are carried as an ordered list so
// the scan order is the order the fields appeared on the wire.
type Field struct {
	Name  string
	Value any
}

// Result is the canonical triple extracted from one request.
type Result struct {
	Message  string
	Email    string
	FormData map[string]any
}

var messageFallbacks = map[string]bool{
	"message":  true,
	"text-1":   true,
	"question": true,
	"content":  true,
}

// Extract scans the field list once, in order. The message is the last field
// whose name contains "textarea" or matches a fallback name exactly; the
// email is the last field whose name contains "email". A missing message is
// not an error, only an empty field list is.
func Extract(fields []Field) (Result, error) {
	if len(fields) == 0 {
		return Result{}, ErrNoData
	}

	res := Result{FormData: make(map[string]any, len(fields))}
	for _, f := range fields {
		res.FormData[f.Name] = f.Value

		name := strings.ToLower(f.Name)
		if strings.Contains(name, "textarea") || messageFallbacks[f.Name] {
			res.Message = stringValue(f.Value)
		}
		if strings.Contains(name, "email") {
			res.Email = stringValue(f.Value)
		}
	}
	return res, nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseBody builds the ordered field list from a request body. JSON object
// bodies keep the key order of the document; urlencoded bodies keep the wire
// order of the pairs.
func ParseBody(contentType string, body io.Reader) ([]Field, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	switch mt {
	case "application/x-www-form-urlencoded":
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		return parseForm(string(b))
	default:
		return parseJSON(body)
	}
}

func parseForm(raw string) ([]Field, error) {
	var fields []Field
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("bad form field name %q: %w", name, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("bad form field value for %q: %w", n, err)
		}
		fields = append(fields, Field{Name: n, Value: v})
	}
	return fields, nil
}

// parseJSON walks the top-level object with the token decoder instead of
// unmarshalling into a map, so key order survives.
func parseJSON(r io.Reader) ([]Field, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse body: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("parse body: expected JSON object")
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse body: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("parse body: non-string key")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parse body: field %q: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: normalize(value)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return fields, nil
}

// normalize rewrites json.Number leaves back to plain strings so FormData
// round-trips through the store without a custom marshaller.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}
