package dialog

import (
	"testing"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    Action
		wantErr bool
	}{
		{
			name:    "bare action",
			payload: "my_tasks",
			want:    Action{Kind: ActionMyTasks},
		},
		{
			name:    "task scoped action",
			payload: "complete_task:42",
			want:    Action{Kind: ActionCompleteTask, TaskID: 42},
		},
		{
			name:    "confirm delete",
			payload: "confirm_delete:7",
			want:    Action{Kind: ActionConfirmDelete, TaskID: 7},
		},
		{
			name:    "timezone with zone argument",
			payload: "set_tz:Europe/Moscow",
			want:    Action{Kind: ActionSetTimezone, Zone: "Europe/Moscow"},
		},
		{
			name:    "unknown action",
			payload: "launch_missiles:1",
			wantErr: true,
		},
		{
			name:    "task action without id",
			payload: "complete_task",
			wantErr: true,
		},
		{
			name:    "task action with non-numeric id",
			payload: "complete_task:banana",
			wantErr: true,
		},
		{
			name:    "task action with zero id",
			payload: "complete_task:0",
			wantErr: true,
		},
		{
			name:    "task action with negative id",
			payload: "delete_task:-5",
			wantErr: true,
		},
		{
			name:    "bare action with stray argument",
			payload: "my_tasks:1",
			wantErr: true,
		},
		{
			name:    "timezone without argument",
			payload: "set_tz:",
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAction(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction(%q) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestActionPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	actions := []Action{
		{Kind: ActionNewTask},
		{Kind: ActionShowTask, TaskID: 123},
		{Kind: ActionConfirmHide, TaskID: 9},
		{Kind: ActionSetTimezone, Zone: "Asia/Tokyo"},
	}

	for _, action := range actions {
		got, err := ParseAction(action.Payload())
		if err != nil {
			t.Errorf("ParseAction(%q) error = %v", action.Payload(), err)
			continue
		}
		if got != action {
			t.Errorf("round trip of %+v = %+v", action, got)
		}
	}
}
