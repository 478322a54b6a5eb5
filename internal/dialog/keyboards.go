package dialog

import (
	"fmt"

	"taskline/internal/format"
	"taskline/internal/models"
	"taskline/internal/timezone"
)

// Reply-keyboard labels. The transport maps these texts back to commands.
const (
	MainButtonNewTask  = "📝 Add task"
	MainButtonMyTasks  = "📋 My tasks"
	MainButtonTimezone = "🌍 Timezone"
	CancelButtonLabel  = "❌ Cancel"
)

// MainKeyboard is the persistent reply keyboard shown between flows.
func MainKeyboard() *Keyboard {
	return &Keyboard{
		Reply: true,
		Rows: [][]Button{
			{{Label: MainButtonNewTask}, {Label: MainButtonMyTasks}},
			{{Label: MainButtonTimezone}},
		},
	}
}

// CancelKeyboard is the reply keyboard offered during text-entry flows.
func CancelKeyboard() *Keyboard {
	return &Keyboard{
		Reply: true,
		Rows:  [][]Button{{{Label: CancelButtonLabel}}},
	}
}

func taskButton(a Action, label string) Button {
	return Button{Label: label, Payload: a.Payload()}
}

// ListKeyboard builds the inline keyboard for the list view: one button
// per task, a control row, and the show/hide-completed toggle with the
// visible done count.
func ListKeyboard(tasks []*models.Task, showDone bool, doneCount int) *Keyboard {
	var rows [][]Button

	for _, task := range tasks {
		rows = append(rows, []Button{
			taskButton(Action{Kind: ActionShowTask, TaskID: task.ID}, format.ButtonLabel(task)),
		})
	}

	rows = append(rows, []Button{
		{Label: "📝 New task", Payload: string(ActionNewTask)},
		{Label: "🔄 Refresh", Payload: string(ActionRefresh)},
	})

	if showDone {
		rows = append(rows, []Button{
			{Label: "🙈 Hide completed", Payload: string(ActionHideCompleted)},
		})
	} else if doneCount > 0 {
		rows = append(rows, []Button{
			{
				Label:   fmt.Sprintf("✅ Show completed (%d)", doneCount),
				Payload: string(ActionShowCompleted),
			},
		})
	}

	return &Keyboard{Rows: rows}
}

// DetailKeyboard builds the inline keyboard for a task detail view. Done
// tasks get reactivate/hide instead of complete/edit.
func DetailKeyboard(task *models.Task) *Keyboard {
	var rows [][]Button

	if task.IsDone() {
		rows = append(rows,
			[]Button{taskButton(Action{Kind: ActionReactivate, TaskID: task.ID}, "⏳ Reactivate")},
			[]Button{taskButton(Action{Kind: ActionHideTask, TaskID: task.ID}, "🫥 Hide")},
		)
	} else {
		rows = append(rows,
			[]Button{taskButton(Action{Kind: ActionCompleteTask, TaskID: task.ID}, "✅ Mark completed")},
			[]Button{taskButton(Action{Kind: ActionEditTask, TaskID: task.ID}, "✏️ Edit")},
		)
	}

	rows = append(rows,
		[]Button{taskButton(Action{Kind: ActionDeleteTask, TaskID: task.ID}, "🗑 Delete")},
		[]Button{{Label: "⬅️ Back to list", Payload: string(ActionMyTasks)}},
	)

	return &Keyboard{Rows: rows}
}

// EditKeyboard offers only cancellation while an edit is pending.
func EditKeyboard(taskID int64) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{taskButton(Action{Kind: ActionCancelEdit, TaskID: taskID}, "❌ Cancel edit")},
	}}
}

// ConfirmKeyboard builds the yes/no keyboard for a two-step confirmation.
// The intended action and target ride in the payload, so no session state
// is needed for the sub-protocol.
func ConfirmKeyboard(confirm ActionKind, taskID int64) *Keyboard {
	return &Keyboard{Rows: [][]Button{{
		taskButton(Action{Kind: confirm, TaskID: taskID}, "✅ Yes"),
		taskButton(Action{Kind: ActionShowTask, TaskID: taskID}, "❌ No"),
	}}}
}

// TimezoneKeyboard lists the popular zone catalog two per row, plus the
// manual-entry option.
func TimezoneKeyboard() *Keyboard {
	zones := timezone.Popular()
	var rows [][]Button

	for i := 0; i < len(zones); i += 2 {
		row := []Button{{
			Label:   zones[i].Label,
			Payload: string(ActionSetTimezone) + ":" + zones[i].Name,
		}}
		if i+1 < len(zones) {
			row = append(row, Button{
				Label:   zones[i+1].Label,
				Payload: string(ActionSetTimezone) + ":" + zones[i+1].Name,
			})
		}
		rows = append(rows, row)
	}

	rows = append(rows, []Button{
		{Label: "✏️ Enter manually", Payload: string(ActionManualTZ)},
	})

	return &Keyboard{Rows: rows}
}
