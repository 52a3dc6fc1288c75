package flow

import (
	"maps"
	"sort"
	"time"
)

// State is the canonical record of workflow-accumulated facts, a mapping
// from named fields to JSON-compatible values. The Executor owns the
// canonical State for a run exclusively; steps only ever see a View of it
// and contribute changes through a Patch.
//
// Fields are append-or-replace only: no step may remove another step's
// contribution. Replacement is limited to a node's own write-set, so a
// retry can overwrite its own earlier fields but nothing else.
//
// State reloaded from a durable checkpoint store carries whole numbers
// as int64 and fractional ones as float64; the View accessors convert
// transparently.
type State map[string]any

// Patch is a partial update to the State produced by one step invocation.
// Every key must belong to the producing node's declared write-set.
type Patch map[string]any

// Clone returns a shallow copy of the state. Values are assumed to be
// treated as immutable by steps.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// view wraps the state in a read-only accessor for handing to steps.
// The underlying map is cloned so a misbehaving step cannot reach the
// canonical record.
func (s State) view() View {
	return View{s: s.Clone()}
}

// merge applies a patch onto the state. The caller (the Executor) has
// already verified the patch against the node's write-set.
func (s State) merge(p Patch) {
	for k, v := range p {
		s[k] = v
	}
}

// View is a read-only window onto the workflow State. Steps and edge
// predicates receive Views, never the State itself.
type View struct {
	s State
}

// ViewOf wraps a state in a read-only View. Primarily useful in tests and
// when invoking predicates outside the engine.
func ViewOf(s State) View {
	return s.view()
}

// Get returns the value for key and whether it is present.
func (v View) Get(key string) (any, bool) {
	val, ok := v.s[key]
	return val, ok
}

// Has reports whether key is present.
func (v View) Has(key string) bool {
	_, ok := v.s[key]
	return ok
}

// GetString returns the string value for key, or "" if absent or not a string.
func (v View) GetString(key string) string {
	if s, ok := v.s[key].(string); ok {
		return s
	}
	return ""
}

// GetBool returns the bool value for key, or false if absent or not a bool.
func (v View) GetBool(key string) bool {
	if b, ok := v.s[key].(bool); ok {
		return b
	}
	return false
}

// GetInt returns the int value for key, or 0 if absent. JSON round-trips
// store numbers as float64, so both forms are accepted.
func (v View) GetInt(key string) int {
	switch n := v.s[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// GetTime returns the time value for key, accepting either a time.Time or
// an RFC 3339 string (the form checkpointed state comes back in).
func (v View) GetTime(key string) time.Time {
	switch t := v.s[key].(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// GetStrings returns the string-slice value for key. Slices decoded from
// checkpointed JSON come back as []any and are converted.
func (v View) GetStrings(key string) []string {
	switch vals := v.s[key].(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Keys returns all present field names in sorted order.
func (v View) Keys() []string {
	keys := make([]string, 0, len(v.s))
	for k := range v.s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of fields in the view.
func (v View) Len() int {
	return len(v.s)
}

// Snapshot returns a mutable copy of the viewed state. The copy is
// disconnected from the canonical record.
func (v View) Snapshot() State {
	return v.s.Clone()
}
