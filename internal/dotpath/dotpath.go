// Package dotpath resolves "source@a.b.c" references against the documents
// available to an action, and renders "{{source@path}}" placeholders in text.
// Strings without a source prefix are literals.
package dotpath

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Accessor resolves references against named source documents.
type Accessor struct {
	sources map[string]interface{}
}

func New(sources map[string]interface{}) *Accessor {
	return &Accessor{sources: sources}
}

// IsRef reports whether s has the "source@path" form for a known source.
func (a *Accessor) IsRef(s string) bool {
	src, _, ok := strings.Cut(s, "@")
	if !ok {
		return false
	}
	_, known := a.sources[src]
	return known
}

// Get returns the referenced value, or s itself when it is not a reference.
func (a *Accessor) Get(s string) (interface{}, error) {
	if !a.IsRef(s) {
		return s, nil
	}
	src, path, _ := strings.Cut(s, "@")
	cur := a.sources[src]
	if path == "" || path == "." {
		return cur, nil
	}
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("path %q not found in %s", path, src)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("path %q not found in %s", path, src)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("path %q not found in %s", path, src)
		}
	}
	return cur, nil
}

// Reshape replaces every reference found in the string leaves of v.
func (a *Accessor) Reshape(v interface{}) (interface{}, error) {
	switch node := v.(type) {
	case string:
		return a.Get(node)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			r, err := a.Reshape(child)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, child := range node {
			r, err := a.Reshape(child)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Render substitutes placeholders; unresolvable ones render empty.
func (a *Accessor) Render(template string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		ref := placeholder.FindStringSubmatch(m)[1]
		if !a.IsRef(ref) {
			return m
		}
		v, err := a.Get(ref)
		if err != nil {
			return ""
		}
		return Stringify(v)
	})
}

// Stringify formats a resolved value for text output.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
