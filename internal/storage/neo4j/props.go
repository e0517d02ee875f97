package neo4j

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

func getString(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(record *neo4j.Record, key string) int64 {
	if v, ok := record.Get(key); ok && v != nil {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		}
	}
	return 0
}

func getBool(record *neo4j.Record, key string) bool {
	if v, ok := record.Get(key); ok && v != nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getTime(record *neo4j.Record, key string) time.Time {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case dbtype.LocalDateTime:
		return t.Time()
	}
	return time.Time{}
}

func getStringSlice(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}

	list, ok := val.([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// plainValue converts driver graph types into JSON-friendly maps
func plainValue(v any) any {
	switch t := v.(type) {
	case dbtype.Node:
		return map[string]any{"element_id": t.ElementId, "labels": t.Labels, "props": plainMap(t.Props)}
	case dbtype.Relationship:
		return map[string]any{
			"element_id": t.ElementId,
			"type":       t.Type,
			"start":      t.StartElementId,
			"end":        t.EndElementId,
			"props":      plainMap(t.Props),
		}
	case dbtype.Path:
		nodes := make([]any, 0, len(t.Nodes))
		for _, n := range t.Nodes {
			nodes = append(nodes, plainValue(n))
		}
		rels := make([]any, 0, len(t.Relationships))
		for _, r := range t.Relationships {
			rels = append(rels, plainValue(r))
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case dbtype.LocalDateTime:
		return t.Time().Format(time.RFC3339)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, plainValue(item))
		}
		return out
	case map[string]any:
		return plainMap(t)
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}
