package checkpoint

import (
	"bytes"
	"encoding/json"

	"github.com/randalmurphal/orion/flow"
)

// decodeCheckpoint unmarshals a stored checkpoint, keeping whole-number
// state values as int64. A plain json.Unmarshal turns every number into
// float64, which would make a resumed run's final state differ in type
// from an uninterrupted one.
func decodeCheckpoint(data []byte) (*flow.Checkpoint, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var cp flow.Checkpoint
	if err := dec.Decode(&cp); err != nil {
		return nil, err
	}
	for k, v := range cp.State {
		cp.State[k] = normalizeValue(v)
	}
	for i := range cp.Nodes {
		for k, v := range cp.Nodes[i].Outcome.Patch {
			cp.Nodes[i].Outcome.Patch[k] = normalizeValue(v)
		}
	}
	return &cp, nil
}

// normalizeValue resolves json.Number leaves to int64 when integral,
// float64 otherwise, recursing through nested containers.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, e := range val {
			val[k] = normalizeValue(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = normalizeValue(e)
		}
		return val
	default:
		return v
	}
}
