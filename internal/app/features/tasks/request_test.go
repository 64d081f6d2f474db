package tasks

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "   ", wantNil: true},
		{in: "2025-06-01", want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2025-06-01T10:30:00+02:00", want: time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)},
		{in: "06/01/2025", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDate(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDate(%q): %v", tt.in, err)
			continue
		}
		if tt.wantNil {
			if got != nil {
				t.Errorf("parseDate(%q) = %v, want nil", tt.in, got)
			}
			continue
		}
		if got == nil || !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPatchRequest_NullVersusAbsent(t *testing.T) {
	tests := []struct {
		body          string
		clearDue      bool
		clearAssignee bool
		setAssignee   bool
	}{
		{body: `{}`},
		{body: `{"due_date": null}`, clearDue: true},
		{body: `{"assigned_to": ""}`, clearAssignee: true},
		{body: `{"assigned_to": "65f000000000000000000001"}`, setAssignee: true},
	}
	for _, tt := range tests {
		var req patchRequest
		if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
			t.Fatalf("%s: %v", tt.body, err)
		}
		p, err := req.toPatch()
		if err != nil {
			t.Fatalf("%s: %v", tt.body, err)
		}
		if p.ClearDueDate != tt.clearDue {
			t.Errorf("%s: ClearDueDate = %v", tt.body, p.ClearDueDate)
		}
		if p.ClearAssignee != tt.clearAssignee {
			t.Errorf("%s: ClearAssignee = %v", tt.body, p.ClearAssignee)
		}
		if (p.AssignedTo != nil) != tt.setAssignee {
			t.Errorf("%s: AssignedTo = %v", tt.body, p.AssignedTo)
		}
	}
}
