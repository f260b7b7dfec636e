// Package docstore is the minimal document-store contract the inventory core
// runs on, plus its MongoDB, SQL (gorm) and in-memory backends.
//
// Every backend guarantees atomicity per document only. Callers that touch
// several documents must order their writes so that a failure leaves data
// duplicated rather than lost.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned by Get, Patch and Delete when the key does not exist.
var ErrNotFound = errors.New("documento no encontrado")

// ErrDuplicateKey is returned by Create when an explicit key is already taken.
var ErrDuplicateKey = errors.New("clave de documento duplicada")

// Fields is the persisted body of a document, keyed by wire field name.
// Values are strings, int64, float64, bool, time.Time, []any, map[string]any or nil.
type Fields map[string]any

// Ref addresses a single document.
type Ref struct {
	Collection string
	Key        string
}

func (r Ref) String() string { return r.Collection + "/" + r.Key }

// Document is a stored document with its key.
type Document struct {
	Collection string
	Key        string
	Fields     Fields
}

// Ref returns the address of the document.
func (d Document) Ref() Ref { return Ref{Collection: d.Collection, Key: d.Key} }

// Filter is an equality condition on one field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one collection. Where conditions are ANDed.
type Query struct {
	Collection string
	Where      []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Store is the document-store contract consumed by the repositories.
type Store interface {
	Get(ctx context.Context, collection, key string) (*Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Create stores fields under key; an empty key lets the store generate one.
	Create(ctx context.Context, collection, key string, fields Fields) (string, error)
	// Patch writes the masked fields. Mask entries missing from fields are removed;
	// fields outside the mask are left untouched.
	Patch(ctx context.Context, ref Ref, mask []string, fields Fields) error
	Delete(ctx context.Context, ref Ref) error
	Ping(ctx context.Context) error
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Value: value} }

// applyPatch merges a masked patch into body in place.
func applyPatch(body Fields, mask []string, fields Fields) {
	for _, k := range mask {
		if v, ok := fields[k]; ok && v != nil {
			body[k] = v
		} else {
			delete(body, k)
		}
	}
}

// matches reports whether body satisfies every filter.
func matches(body Fields, where []Filter) bool {
	for _, f := range where {
		if !equalValue(body[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// selectDocs filters, orders and limits docs the way Query describes. Backends
// that cannot push the query down share it.
func selectDocs(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if matches(d.Fields, q.Where) {
			out = append(out, d)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValue(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := toTime(b)
		return ok && ta.Equal(tb)
	}
	if tb, ok := b.(time.Time); ok {
		ta, ok := toTime(a)
		return ok && ta.Equal(tb)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValue orders nil first, then numbers, times and strings by value.
func compareValue(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// cloneValue deep-copies maps and slices so stored bodies never alias caller data.
func cloneValue(v any) any {
	switch t := v.(type) {
	case Fields:
		return cloneFields(t)
	case map[string]any:
		return map[string]any(cloneFields(Fields(t)))
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	}
	return v
}

func cloneFields(f Fields) Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}
