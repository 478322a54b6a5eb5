package dialog

import (
	"fmt"
	"strconv"
	"strings"
)

// EventKind discriminates inbound events from the transport.
type EventKind int

const (
	// EventCommand is a top-level command (/new_task, a reply-keyboard
	// button mapped to a command, etc.)
	EventCommand EventKind = iota
	// EventText is a free-text message
	EventText
	// EventButton is an inline button press carrying a payload
	EventButton
	// EventNonText is any message without usable text (sticker, photo, ...)
	EventNonText
)

// Event is a single inbound user action.
type Event struct {
	Kind    EventKind
	OwnerID int64
	Command string // for EventCommand
	Text    string // for EventText
	Payload string // for EventButton, "action" or "action:arg" form
}

// ActionKind enumerates the button actions the controller understands.
// The constants double as the wire action names in payloads.
type ActionKind string

const (
	ActionNewTask       ActionKind = "new_task"
	ActionMyTasks       ActionKind = "my_tasks"
	ActionRefresh       ActionKind = "refresh_tasks"
	ActionShowTask      ActionKind = "show_task"
	ActionEditTask      ActionKind = "edit_task"
	ActionCancelEdit    ActionKind = "cancel_edit"
	ActionCompleteTask  ActionKind = "complete_task"
	ActionReactivate    ActionKind = "reactivate_task"
	ActionDeleteTask    ActionKind = "delete_task"
	ActionConfirmDelete ActionKind = "confirm_delete"
	ActionHideTask      ActionKind = "hide_task"
	ActionConfirmHide   ActionKind = "confirm_hide"
	ActionShowCompleted ActionKind = "show_completed"
	ActionHideCompleted ActionKind = "hide_completed"
	ActionSetTimezone   ActionKind = "set_tz"
	ActionManualTZ      ActionKind = "timezone_manual"
)

// Action is a parsed button payload.
type Action struct {
	Kind   ActionKind
	TaskID int64  // for task-scoped actions
	Zone   string // for ActionSetTimezone
}

// ErrMalformedPayload is returned for payloads that cannot be parsed into
// a known action. The controller answers these with a "bad data" notice
// and no state change.
type ErrMalformedPayload struct {
	Payload string
}

func (e *ErrMalformedPayload) Error() string {
	return fmt.Sprintf("malformed button payload %q", e.Payload)
}

// taskScoped lists actions that require a task id argument.
var taskScoped = map[ActionKind]bool{
	ActionShowTask:      true,
	ActionEditTask:      true,
	ActionCancelEdit:    true,
	ActionCompleteTask:  true,
	ActionReactivate:    true,
	ActionDeleteTask:    true,
	ActionConfirmDelete: true,
	ActionHideTask:      true,
	ActionConfirmHide:   true,
}

// bare lists actions that take no argument.
var bare = map[ActionKind]bool{
	ActionNewTask:       true,
	ActionMyTasks:       true,
	ActionRefresh:       true,
	ActionShowCompleted: true,
	ActionHideCompleted: true,
	ActionManualTZ:      true,
}

// ParseAction parses an "action" or "action:arg" payload once at the
// boundary, so malformed data never reaches business logic.
func ParseAction(payload string) (Action, error) {
	name, arg, hasArg := strings.Cut(payload, ":")
	kind := ActionKind(name)

	switch {
	case bare[kind]:
		if hasArg {
			return Action{}, &ErrMalformedPayload{Payload: payload}
		}
		return Action{Kind: kind}, nil

	case taskScoped[kind]:
		if !hasArg {
			return Action{}, &ErrMalformedPayload{Payload: payload}
		}
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return Action{}, &ErrMalformedPayload{Payload: payload}
		}
		return Action{Kind: kind, TaskID: id}, nil

	case kind == ActionSetTimezone:
		if !hasArg || arg == "" {
			return Action{}, &ErrMalformedPayload{Payload: payload}
		}
		return Action{Kind: kind, Zone: arg}, nil

	default:
		return Action{}, &ErrMalformedPayload{Payload: payload}
	}
}

// Payload renders the action back into its wire form.
func (a Action) Payload() string {
	switch {
	case taskScoped[a.Kind]:
		return string(a.Kind) + ":" + strconv.FormatInt(a.TaskID, 10)
	case a.Kind == ActionSetTimezone:
		return string(a.Kind) + ":" + a.Zone
	default:
		return string(a.Kind)
	}
}
