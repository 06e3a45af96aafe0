package timer

import (
	"testing"

	"github.com/julianstephens/bloomup/internal/models"
)

func TestTaskIndex(t *testing.T) {
	tasks := []models.Task{{ID: "a", Name: "Read"}, {ID: "b", Name: "Write"}}

	tests := []struct {
		ref     string
		want    int
		wantErr bool
	}{
		{"1", 0, false},
		{"2", 1, false},
		{"3", 0, true},
		{"0", 0, true},
		{"Write", 1, false},
		{"b", 1, false},
		{"Run", 0, true},
	}
	for _, tt := range tests {
		got, err := taskIndex(tasks, tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("taskIndex(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("taskIndex(%q) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}
