// Package repair recovers structured objects from unreliable model
// output: fenced markdown, prose-wrapped JSON, over-escaped quotes and
// nested result envelopes.
package repair

import (
	"encoding/json"
	"sort"
	"strings"
)

// Parse attempts to recover a JSON object from model output. The input
// may be the raw response text or a value already decoded by the
// transport. Failure is soft: the second return is false and the caller
// decides what to do with the record.
func Parse(content interface{}) (map[string]interface{}, bool) {
	switch v := content.(type) {
	case map[string]interface{}:
		if len(v) > 0 {
			return v, true
		}
		return nil, false
	case string:
		return parseText(v)
	case []byte:
		return parseText(string(v))
	default:
		return nil, false
	}
}

// parseText runs the text recovery ladder: strip a complete code fence,
// cut to the outermost braces, strict parse, then one re-parse with
// escaped quotes unescaped.
func parseText(text string) (map[string]interface{}, bool) {
	txt := strings.TrimSpace(text)
	if txt == "" {
		return nil, false
	}

	if strings.HasPrefix(txt, "```") && strings.HasSuffix(txt, "```") {
		if lines := strings.Split(txt, "\n"); len(lines) >= 3 {
			txt = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	candidate := txt
	if first, last := strings.Index(txt, "{"), strings.LastIndex(txt, "}"); first != -1 && last > first {
		candidate = txt[first : last+1]
	}

	if obj, ok := decodeObject(candidate); ok {
		return obj, true
	}

	repaired := strings.ReplaceAll(candidate, `\"`, `"`)
	if repaired != candidate {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(repaired), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// decodeObject parses a candidate strictly. An object is returned
// directly; a non-empty array whose first element is an object returns
// that element.
func decodeObject(candidate string) (map[string]interface{}, bool) {
	var v interface{}
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case []interface{}:
		if len(t) > 0 {
			if obj, ok := t[0].(map[string]interface{}); ok {
				return obj, true
			}
		}
	}
	return nil, false
}

// ContentFromResult digs the assistant content out of one batch result
// envelope. The nominal path is response.body.choices[0].message.content;
// the envelope is untrusted, so every step degrades to the next: the
// first choice's text field, a string message, a top-level content key,
// and finally a recursive search for any content key holding something
// JSON-shaped.
func ContentFromResult(line map[string]interface{}) (interface{}, bool) {
	if resp, ok := line["response"].(map[string]interface{}); ok {
		if body, ok := resp["body"].(map[string]interface{}); ok {
			if choices, ok := body["choices"].([]interface{}); ok && len(choices) > 0 {
				if first, ok := choices[0].(map[string]interface{}); ok {
					msg := first["message"]
					if m, ok := msg.(map[string]interface{}); ok {
						if c := m["content"]; truthy(c) {
							return c, true
						}
					}
					if t := first["text"]; truthy(t) {
						return t, true
					}
					if s, ok := msg.(string); ok && s != "" {
						return s, true
					}
				}
			}
		}
	}
	if v, ok := line["content"]; ok {
		return v, true
	}
	if s, ok := searchContent(line); ok {
		return s, true
	}
	return nil, false
}

// searchContent walks nested objects and arrays looking for a key named
// content whose string value contains one of `{`, `]`, `"`. The sniff
// is deliberately loose. Keys are visited in sorted order so the result
// is deterministic.
func searchContent(v interface{}) (string, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			val := t[k]
			if k == "content" {
				if s, ok := val.(string); ok && strings.ContainsAny(s, `{]"`) {
					return s, true
				}
			}
			if s, ok := searchContent(val); ok {
				return s, true
			}
		}
	case []interface{}:
		for _, item := range t {
			if s, ok := searchContent(item); ok {
				return s, true
			}
		}
	}
	return "", false
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}
