package dates

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestDecode(t *testing.T) {
	body := `[
		{"id": 1, "data": {"a": "1", "b": "2"}},
		{"id": "two", "data": {}},
		{"id": 3, "data": {"dates": ["*23-08-2019", "24-08-2019"]}}
	]`

	records, err := Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	gotIDs := []ID{records[0].ID, records[1].ID, records[2].ID}
	if diff := cmp.Diff([]ID{"1", "two", "3"}, gotIDs); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a", "b"}, records[0].Data.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	if records[1].Data.Len() != 0 {
		t.Errorf("Expected empty data, got %d keys", records[1].Data.Len())
	}

	v, _ := records[2].Data.Get("dates")
	if got := DisplayText(v); got != "*23-08-2019,24-08-2019" {
		t.Errorf("Array display = %q", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Not JSON", "<html>oops</html>"},
		{"Null", "null"},
		{"Object", `{"id": 1}`},
		{"Null record", `[null]`},
		{"Scalar record", `[1]`},
		{"Data not object", `[{"id": 1, "data": "x"}]`},
		{"Trailing data", `[] []`},
		{"Empty body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecodeMissingData(t *testing.T) {
	records, err := Decode(strings.NewReader(`[{"id": 7}]`))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if records[0].Data.Len() != 0 {
		t.Errorf("Expected empty data for missing key")
	}
}

func TestDecodeMissingID(t *testing.T) {
	records, err := Decode(strings.NewReader(`[{"data": {"a": "1"}}, {"id": null}, {"id": ""}]`))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	got := []ID{records[0].ID, records[1].ID, records[2].ID}
	if diff := cmp.Diff([]ID{UndefinedID, "null", ""}, got); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestDataKeyOrder(t *testing.T) {
	var d Data
	if err := json.Unmarshal([]byte(`{"z": 1, "2": "b", "a": 2, "0": "a", "z": 3, "01": "x"}`), &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := []string{"0", "2", "z", "a", "01"}
	if diff := cmp.Diff(want, d.Keys()); diff != "" {
		t.Errorf("Key order mismatch (-want +got):\n%s", diff)
	}

	z, _ := d.Get("z")
	if DisplayText(z) != "3" {
		t.Errorf("Duplicate key should take last value, got %v", z)
	}
}

func TestDataJSONRoundTrip(t *testing.T) {
	rec := DateRecord{
		ID:   "12",
		Data: NewData(Field{"b", "2"}, Field{"a", json.Number("1.5")}),
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"id":12,"data":{"b":"2","a":1.5}}`
	if string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestDataYAML(t *testing.T) {
	src := `
- id: 1
  data:
    venue: Berlin
    capacity: 3000
    sold_out: true
- id: abc
  data: {}
`
	var records []DateRecord
	if err := yaml.Unmarshal([]byte(src), &records); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if diff := cmp.Diff([]string{"venue", "capacity", "sold_out"}, records[0].Data.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
	if records[1].ID != "abc" {
		t.Errorf("Expected ID abc, got %s", records[1].ID)
	}

	out, err := yaml.Marshal(records[0])
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), "id: 1\n") {
		t.Errorf("Numeric ID should stay numeric, got:\n%s", out)
	}
	if strings.Index(string(out), "venue") > strings.Index(string(out), "capacity") {
		t.Errorf("YAML output reordered keys:\n%s", out)
	}
}

func TestDataYAMLNestedKeys(t *testing.T) {
	src := `
- id: 1
  data:
    venue: Oslo
    seats: {1: front, 2: back}
    rows: [{3: c}]
`
	var records []DateRecord
	if err := yaml.Unmarshal([]byte(src), &records); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}

	seats, _ := records[0].Data.Get("seats")
	if diff := cmp.Diff(map[string]any{"1": "front", "2": "back"}, seats); diff != "" {
		t.Errorf("Nested keys mismatch (-want +got):\n%s", diff)
	}
	rows, _ := records[0].Data.Get("rows")
	if diff := cmp.Diff([]any{map[string]any{"3": "c"}}, rows); diff != "" {
		t.Errorf("Keys inside arrays mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), `"seats":{"1":"front","2":"back"}`) {
		t.Errorf("Unexpected JSON: %s", out)
	}
}

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`1`, "1"},
		{`"1"`, "1"},
		{`2.50`, "2.5"},
		{`null`, "null"},
		{`true`, "true"},
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
		}
		if id != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, id, tt.want)
		}
	}
}
