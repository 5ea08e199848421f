package store

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Reserved record fields.
const (
	FieldID        = "id"
	FieldTenantID  = "tenant_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// TimeLayout is fixed width so stamped timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is a JSON-shaped document held in a collection.
type Record map[string]any

// Scope is the explicit tenant and user context of a store call.
type Scope struct {
	TenantID   string
	UserID     string
	SuperAdmin bool
}

// ID returns the record id or "" when absent.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// TenantID returns the record tenant or "" when absent.
func (r Record) TenantID() string {
	t, _ := r[FieldTenantID].(string)
	return t
}

// Clone deep-copies the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return Record(cloneValue(map[string]any(t)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Normalize converts arbitrary Go values into their JSON representation so
// every backend stores and returns the same shapes. Numbers become
// json.Number and keep their exact digits.
func Normalize(r Record) (Record, error) {
	if r == nil {
		return Record{}, nil
	}
	raw, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRecord, err.Error())
	}
	out, err := unmarshalRecord(raw)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRecord, err.Error())
	}
	return out, nil
}

// unmarshalRecord decodes a JSON object without widening numbers to float64.
func unmarshalRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := Record{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// merge applies a shallow patch onto dst.
func merge(dst, patch Record) Record {
	if dst == nil {
		dst = Record{}
	}
	for k, v := range patch {
		dst[k] = cloneValue(v)
	}
	return dst
}

// FormatTime renders t in the stored timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidCollection reports whether name can be used as a collection.
func ValidCollection(name string) bool {
	return collectionPattern.MatchString(name)
}

// sortByCreated orders records by created_at, keeping backend order for ties.
func sortByCreated(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, _ := records[i][FieldCreatedAt].(string)
		b, _ := records[j][FieldCreatedAt].(string)
		return a < b
	})
}
