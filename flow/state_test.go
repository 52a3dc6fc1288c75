package flow

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestStateClone_Isolated(t *testing.T) {
	orig := State{"repo.url": "https://example.com/r.git"}
	clone := orig.Clone()
	clone["repo.url"] = "changed"

	if orig["repo.url"] != "https://example.com/r.git" {
		t.Error("mutating clone changed the original")
	}
}

func TestView_ReadOnlySnapshot(t *testing.T) {
	s := State{"branch": "main"}
	v := s.view()
	s["branch"] = "feature"

	if got := v.GetString("branch"); got != "main" {
		t.Errorf("view saw later mutation: %q", got)
	}
}

func TestView_Accessors(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	v := ViewOf(State{
		"name":    "orion",
		"count":   3,
		"float":   float64(7),
		"enabled": true,
		"when":    now,
		"files":   []string{"a.go", "b.go"},
	})

	if got := v.GetString("name"); got != "orion" {
		t.Errorf("GetString = %q", got)
	}
	if got := v.GetInt("count"); got != 3 {
		t.Errorf("GetInt = %d", got)
	}
	if got := v.GetInt("float"); got != 7 {
		t.Errorf("GetInt(float64) = %d", got)
	}
	if !v.GetBool("enabled") {
		t.Error("GetBool = false")
	}
	if got := v.GetTime("when"); !got.Equal(now) {
		t.Errorf("GetTime = %v, want %v", got, now)
	}
	if got := v.GetStrings("files"); !reflect.DeepEqual(got, []string{"a.go", "b.go"}) {
		t.Errorf("GetStrings = %v", got)
	}
	if v.Has("missing") || v.GetString("missing") != "" {
		t.Error("missing key should be zero-valued")
	}
	if got := v.Keys(); !reflect.DeepEqual(got, []string{"count", "enabled", "files", "float", "name", "when"}) {
		t.Errorf("Keys = %v, want sorted", got)
	}
}

func TestView_JSONRoundTripAccessors(t *testing.T) {
	// Checkpointed state comes back through JSON: numbers become
	// float64, string slices []any, times RFC 3339 strings.
	now := time.Now().UTC().Truncate(time.Second)
	data, err := json.Marshal(State{
		"count": 42,
		"files": []string{"x.go"},
		"when":  now,
	})
	if err != nil {
		t.Fatal(err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	v := ViewOf(s)

	if got := v.GetInt("count"); got != 42 {
		t.Errorf("GetInt after round trip = %d", got)
	}
	if got := v.GetStrings("files"); !reflect.DeepEqual(got, []string{"x.go"}) {
		t.Errorf("GetStrings after round trip = %v", got)
	}
	if got := v.GetTime("when"); !got.Equal(now) {
		t.Errorf("GetTime after round trip = %v, want %v", got, now)
	}
}

func TestStateMerge(t *testing.T) {
	s := State{"existing": 1}
	s.merge(Patch{"added": 2, "existing": 3})

	if s["added"] != 2 || s["existing"] != 3 {
		t.Errorf("merge result = %v", s)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		out  Outcome
		want string
	}{
		{Succeedf(nil, "pushed %d commits", 2), "success: pushed 2 commits"},
		{Transient(errTest), "transient: boom"},
		{Succeed(nil), "success"},
	}
	for _, tt := range tests {
		if got := tt.out.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
