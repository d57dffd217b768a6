package importer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// parseFloat reads the leading number of s, so "12.50 USD" is 12.5.
// Anything without a numeric prefix is 0.
func parseFloat(s string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseInt reads the leading integer of s, so "7.9" is 7
func parseInt(s string) int {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// splitList splits a pipe-delimited cell, keeping order and duplicates
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitSet splits a pipe-delimited cell, dropping repeated values
func splitSet(s string) []string {
	return dedupe(splitList(s))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// parseVariations reads a JSON object or the "axis:opt1|opt2;axis2:opt" shorthand.
// It never fails; unreadable input yields an empty map.
func parseVariations(s string) map[string][]string {
	out := map[string][]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		for axis, raw := range obj {
			axis = strings.TrimSpace(axis)
			if axis == "" {
				continue
			}
			var options []string
			switch v := raw.(type) {
			case []interface{}:
				for _, opt := range v {
					options = append(options, strings.TrimSpace(jsonScalar(opt)))
				}
			case string:
				options = strings.Split(v, "|")
			case nil:
			default:
				options = []string{jsonScalar(v)}
			}
			if opts := cleanOptions(options); len(opts) > 0 {
				out[axis] = opts
			}
		}
		return out
	}

	for _, pair := range strings.Split(s, ";") {
		axis, options, ok := strings.Cut(pair, ":")
		axis = strings.TrimSpace(axis)
		if !ok || axis == "" {
			continue
		}
		if opts := splitSet(options); len(opts) > 0 {
			out[axis] = opts
		}
	}
	return out
}

// parseAttributes reads a JSON object or the "key:value;key2:value2" shorthand.
// Values may contain further colons. It never fails.
func parseAttributes(s string) map[string]string {
	out := map[string]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		for key, raw := range obj {
			if key = strings.TrimSpace(key); key != "" && raw != nil {
				out[key] = strings.TrimSpace(jsonScalar(raw))
			}
		}
		return out
	}

	for _, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			out = append(out, opt)
		}
	}
	return dedupe(out)
}

func jsonScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
