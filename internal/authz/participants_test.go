package authz

import (
	"testing"

	"taskhub/internal/models"
)

func TestIsParticipant(t *testing.T) {
	task := &models.Task{CreatorID: "alice", AssignedToID: "bob"}

	cases := []struct {
		user string
		want bool
	}{
		{"alice", true},
		{"bob", true},
		{"carol", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsParticipant(task, tc.user); got != tc.want {
			t.Fatalf("IsParticipant(%q) = %v, want %v", tc.user, got, tc.want)
		}
	}
	if IsParticipant(nil, "alice") {
		t.Fatal("nil task must have no participants")
	}
	if !IsCreator(task, "alice") || IsCreator(task, "bob") {
		t.Fatal("unexpected creator check result")
	}
	if !IsAssignee(task, "bob") || IsAssignee(task, "alice") {
		t.Fatal("unexpected assignee check result")
	}
}
