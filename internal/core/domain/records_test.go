package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRecords_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantIDs []int
	}{
		{"null", `{"vehicles": null}`, nil},
		{"empty string", `{"vehicles": ""}`, nil},
		{"single object", `{"vehicles": {"id": 4, "make": "Honda"}}`, []int{4}},
		{"array", `{"vehicles": [{"id": 1}, {"id": 2}]}`, []int{1, 2}},
		{"empty array", `{"vehicles": []}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env struct {
				Vehicles Records[Vehicle] `json:"vehicles"`
			}
			if err := json.Unmarshal([]byte(tt.payload), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(env.Vehicles) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(env.Vehicles), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if env.Vehicles[i].RecordID() != id {
					t.Fatalf("record %d: got id %d, want %d", i, env.Vehicles[i].RecordID(), id)
				}
			}
		})
	}
}

func TestRecords_UnmarshalJSON_RejectsScalars(t *testing.T) {
	var rs Records[Vehicle]
	if err := json.Unmarshal([]byte(`42`), &rs); err == nil {
		t.Fatalf("expected an error for a scalar payload")
	}
}

func TestRecords_Validate(t *testing.T) {
	rs := Records[Vehicle]{{ID: 1}, {ID: 0}}
	if err := rs.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := (Records[Vehicle]{{ID: 1}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
