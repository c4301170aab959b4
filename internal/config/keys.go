package config

import (
	"reflect"
	"sort"
	"strings"
)

// knownKeys and secretKeys are derived from Config's JSON tags. Leaves are
// scalars and slices; nested structs contribute dotted prefixes. Fields
// tagged secret:"true" are masked when listed.
var knownKeys, secretKeys = fieldKeys(reflect.TypeOf(Config{}), "")

func fieldKeys(t reflect.Type, prefix string) (all, secret map[string]bool) {
	all, secret = map[string]bool{}, map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := prefix + name
		if f.Type.Kind() == reflect.Struct {
			a, s := fieldKeys(f.Type, key+".")
			for k := range a {
				all[k] = true
			}
			for k := range s {
				secret[k] = true
			}
			continue
		}
		all[key] = true
		if f.Tag.Get("secret") == "true" {
			secret[key] = true
		}
	}
	return all, secret
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// maskSecret keeps the last four characters: "***abcd".
func maskSecret(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	return "***" + s
}

// flattenTree turns decoded JSON objects into dotted keys. Arrays stay
// whole so schedule.autoplay reads back as one value.
func flattenTree(tree map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			if child, ok := v.(map[string]any); ok {
				walk(prefix+k+".", child)
				continue
			}
			out[prefix+k] = v
		}
	}
	walk("", tree)
	return out
}

// setPath stores value at a dotted key inside tree, creating or replacing
// intermediate objects as needed.
func setPath(tree map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}
