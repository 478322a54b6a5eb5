// Package dialog drives the multi-turn conversation flows: new-task entry,
// task editing and manual timezone entry, plus the stateless direct
// actions (complete, delete, hide, reactivate, list navigation).
package dialog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"taskline/internal/format"
	"taskline/internal/models"
	"taskline/internal/timezone"
	"taskline/internal/validation"
)

// DefaultListLimit bounds a single list view.
const DefaultListLimit = 50

// TaskStore is the task persistence contract the controller drives.
type TaskStore interface {
	Create(ctx context.Context, ownerID int64, text string) (int64, error)
	Get(ctx context.Context, id, ownerID int64) (*models.Task, error)
	List(ctx context.Context, ownerID int64, includeDone bool, limit, offset int) ([]*models.Task, error)
	Count(ctx context.Context, ownerID int64, includeDone bool) (int, error)
	UpdateText(ctx context.Context, id, ownerID int64, newText string) (bool, error)
	Complete(ctx context.Context, id, ownerID int64) (bool, error)
	Reactivate(ctx context.Context, id, ownerID int64) (bool, error)
	Hide(ctx context.Context, id, ownerID int64) (bool, error)
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
}

// PreferenceStore is the per-user preference contract.
type PreferenceStore interface {
	SetTimezone(ctx context.Context, ownerID int64, tz string) error
	GetTimezone(ctx context.Context, ownerID int64) (string, error)
}

// Celebrator accepts fire-and-forget celebration requests for completed
// tasks. Implementations must never block task completion on failures.
type Celebrator interface {
	CelebrateCompletion(ctx context.Context, task *models.Task) error
}

// Controller is the dialogue state machine. One instance serves all users;
// per-user state lives in the Session passed to Handle.
type Controller struct {
	tasks      TaskStore
	prefs      PreferenceStore
	resolver   *timezone.Resolver
	celebrator Celebrator
	logger     *zap.Logger
}

// NewController wires the controller. celebrator may be nil to disable
// celebration messages.
func NewController(tasks TaskStore, prefs PreferenceStore, resolver *timezone.Resolver, celebrator Celebrator, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		tasks:      tasks,
		prefs:      prefs,
		resolver:   resolver,
		celebrator: celebrator,
		logger:     logger,
	}
}

// Handle processes one inbound event against the session and returns a
// render instruction. Validation failures re-prompt without advancing;
// persistence failures reset the session and surface a generic notice.
func (c *Controller) Handle(ctx context.Context, sess *Session, ev Event) Render {
	switch ev.Kind {
	case EventCommand:
		return c.handleCommand(ctx, sess, ev.Command)
	case EventText:
		return c.handleText(ctx, sess, ev.Text)
	case EventNonText:
		return c.handleNonText(sess)
	case EventButton:
		return c.handleButton(ctx, sess, ev.Payload)
	default:
		return Render{Mode: RenderNone}
	}
}

const welcomeText = `🎯 Welcome to Taskline!

I keep track of your tasks and notes.

What I can do:
📝 Add new tasks
📋 Show your task list
✅ Mark tasks completed
🗑 Delete tasks

Pick a timezone in the menu so dates show up in your local time.`

const helpText = `Commands:
/new_task — add a task
/my_tasks — show your tasks
/set_timezone — choose a display timezone
/cancel — abort the current entry

Tap a task in the list to complete, edit, hide or delete it.`

const newTaskPrompt = `📝 New task

Send me the task text. For example:
• Buy milk
• Call mom
• Prepare the Friday presentation

Press "` + CancelButtonLabel + `" to abort.`

const manualTimezonePrompt = `✏️ Manual timezone entry

Send a zone name such as:
• Europe/Moscow
• Asia/Tokyo
• America/New_York

Or send "cancel" to go back to the list.`

func (c *Controller) handleCommand(ctx context.Context, sess *Session, command string) Render {
	// A top-level command always interrupts whatever flow was pending so
	// stray text cannot be misread as task content later.
	wasPending := sess.State != StateIdle
	sess.Reset()

	switch command {
	case "start":
		return Render{Mode: RenderSend, Text: welcomeText, Keyboard: MainKeyboard()}
	case "help":
		return Render{Mode: RenderSend, Text: helpText, Keyboard: MainKeyboard()}
	case "new_task":
		sess.State = StateAwaitingNewTask
		return Render{Mode: RenderSend, Text: newTaskPrompt, Keyboard: CancelKeyboard()}
	case "my_tasks":
		sess.ShowDone = false
		return c.listView(ctx, sess, RenderSend)
	case "set_timezone":
		return c.timezoneMenu(ctx, sess.OwnerID, RenderSend)
	case "cancel":
		if wasPending {
			return Render{Mode: RenderSend, Text: "❌ Cancelled.", Keyboard: MainKeyboard()}
		}
		return Render{Mode: RenderSend, Text: "Nothing to cancel.", Keyboard: MainKeyboard()}
	default:
		return Render{Mode: RenderSend, Text: "Unknown command. Try /help.", Keyboard: MainKeyboard()}
	}
}

func isCancelText(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "cancel", "отмена", strings.ToLower(CancelButtonLabel):
		return true
	}
	return false
}

func (c *Controller) handleText(ctx context.Context, sess *Session, text string) Render {
	switch sess.State {
	case StateAwaitingNewTask:
		return c.saveNewTask(ctx, sess, text)
	case StateAwaitingTaskEdit:
		return c.saveEditedTask(ctx, sess, text)
	case StateAwaitingManualTimezone:
		return c.saveManualTimezone(ctx, sess, text)
	default:
		if isCancelText(text) {
			return Render{Mode: RenderSend, Text: "Nothing to cancel.", Keyboard: MainKeyboard()}
		}
		return Render{
			Mode:     RenderSend,
			Text:     "I track tasks, not small talk 🙂 Use the buttons below or /help.",
			Keyboard: MainKeyboard(),
		}
	}
}

func (c *Controller) handleNonText(sess *Session) Render {
	switch sess.State {
	case StateAwaitingNewTask, StateAwaitingTaskEdit:
		// Stay in the waiting state; the user may still send text
		return Render{
			Mode:     RenderSend,
			Text:     "❌ Please send the task as text, or press \"" + CancelButtonLabel + "\".",
			Keyboard: CancelKeyboard(),
		}
	case StateAwaitingManualTimezone:
		return Render{
			Mode: RenderSend,
			Text: "❌ Please send the zone name as text, or \"cancel\" to go back.",
		}
	default:
		return Render{Mode: RenderNone}
	}
}

func (c *Controller) saveNewTask(ctx context.Context, sess *Session, text string) Render {
	if isCancelText(text) {
		sess.Reset()
		return Render{Mode: RenderSend, Text: "❌ Task entry cancelled.", Keyboard: MainKeyboard()}
	}

	id, err := c.tasks.Create(ctx, sess.OwnerID, text)
	if err != nil {
		if validation.IsValidationError(err) {
			// Re-prompt; the flow stays open
			return Render{
				Mode:     RenderSend,
				Text:     "❌ " + validationMessage(err) + " Try again:",
				Keyboard: CancelKeyboard(),
			}
		}
		return c.persistenceFailure(sess, "create_task", err)
	}

	sess.Reset()
	c.logger.Info("new_task_flow_completed",
		zap.Int64("owner_id", sess.OwnerID),
		zap.Int64("task_id", id),
	)
	return Render{
		Mode:     RenderSend,
		Text:     "✅ Task added!\n\n📝 " + validation.SanitizeText(text),
		Keyboard: MainKeyboard(),
	}
}

func (c *Controller) saveEditedTask(ctx context.Context, sess *Session, text string) Render {
	taskID := sess.EditingTaskID

	if isCancelText(text) {
		sess.Reset()
		return c.detailView(ctx, sess, taskID, RenderSend)
	}

	ok, err := c.tasks.UpdateText(ctx, taskID, sess.OwnerID, text)
	if err != nil {
		if validation.IsValidationError(err) {
			return Render{Mode: RenderSend, Text: "❌ " + validationMessage(err) + " Try again:"}
		}
		return c.persistenceFailure(sess, "update_task_text", err)
	}
	if !ok {
		// The task vanished or was completed while we waited for input
		sess.Reset()
		return Render{
			Mode:     RenderSend,
			Text:     "❌ The task could not be updated. It may have been completed or deleted.",
			Keyboard: MainKeyboard(),
		}
	}

	sess.Reset()
	render := c.detailView(ctx, sess, taskID, RenderSend)
	render.Notice = "✅ Task updated!"
	return render
}

func (c *Controller) saveManualTimezone(ctx context.Context, sess *Session, text string) Render {
	if isCancelText(text) {
		sess.Reset()
		return c.timezoneMenu(ctx, sess.OwnerID, RenderSend)
	}

	zone, err := validation.TimezoneName(text)
	if err != nil {
		// Retry prompt, state unchanged
		return Render{
			Mode: RenderSend,
			Text: "❌ Unknown timezone. Try again (e.g. Europe/Moscow) or send \"cancel\".",
		}
	}

	if err := c.prefs.SetTimezone(ctx, sess.OwnerID, zone); err != nil {
		return c.persistenceFailure(sess, "set_timezone", err)
	}

	sess.Reset()
	return Render{
		Mode:     RenderSend,
		Text:     timezoneUpdatedText(zone, c.resolver),
		Keyboard: MainKeyboard(),
	}
}

func (c *Controller) handleButton(ctx context.Context, sess *Session, payload string) Render {
	action, err := ParseAction(payload)
	if err != nil {
		c.logger.Warn("malformed_button_payload",
			zap.Int64("owner_id", sess.OwnerID),
			zap.String("payload", payload),
		)
		return Render{Mode: RenderNone, Notice: "❌ Bad data", Alert: true}
	}

	// Cancel-edit is part of the edit flow; every other button is a
	// top-level action and clears any stale pending state first.
	if action.Kind == ActionCancelEdit {
		sess.Reset()
		return c.detailView(ctx, sess, action.TaskID, RenderReplace)
	}
	sess.Reset()

	switch action.Kind {
	case ActionNewTask:
		sess.State = StateAwaitingNewTask
		return Render{Mode: RenderSend, Text: newTaskPrompt, Keyboard: CancelKeyboard()}

	case ActionMyTasks:
		sess.ShowDone = false
		return c.listView(ctx, sess, RenderReplace)

	case ActionRefresh:
		return c.listView(ctx, sess, RenderReplace)

	case ActionShowCompleted:
		sess.ShowDone = true
		return c.listView(ctx, sess, RenderReplace)

	case ActionHideCompleted:
		sess.ShowDone = false
		return c.listView(ctx, sess, RenderReplace)

	case ActionShowTask:
		return c.detailView(ctx, sess, action.TaskID, RenderReplace)

	case ActionEditTask:
		return c.startEdit(ctx, sess, action.TaskID)

	case ActionCompleteTask:
		return c.completeTask(ctx, sess, action.TaskID)

	case ActionReactivate:
		return c.reactivateTask(ctx, sess, action.TaskID)

	case ActionDeleteTask:
		return c.confirmPrompt(ctx, sess, action.TaskID, ActionConfirmDelete)

	case ActionHideTask:
		return c.confirmPrompt(ctx, sess, action.TaskID, ActionConfirmHide)

	case ActionConfirmDelete:
		return c.deleteTask(ctx, sess, action.TaskID)

	case ActionConfirmHide:
		return c.hideTask(ctx, sess, action.TaskID)

	case ActionSetTimezone:
		return c.setTimezone(ctx, sess, action.Zone)

	case ActionManualTZ:
		sess.State = StateAwaitingManualTimezone
		return Render{Mode: RenderReplace, Text: manualTimezonePrompt}

	default:
		return Render{Mode: RenderNone, Notice: "❌ Bad data", Alert: true}
	}
}

// listView renders the task list in the session's current view mode.
func (c *Controller) listView(ctx context.Context, sess *Session, mode RenderMode) Render {
	tasks, err := c.tasks.List(ctx, sess.OwnerID, sess.ShowDone, DefaultListLimit, 0)
	if err != nil {
		return c.persistenceFailure(sess, "list_tasks", err)
	}

	doneCount, err := c.tasks.Count(ctx, sess.OwnerID, true)
	if err != nil {
		return c.persistenceFailure(sess, "count_tasks", err)
	}

	tz, err := c.prefs.GetTimezone(ctx, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "get_timezone", err)
	}

	return Render{
		Mode:     mode,
		Text:     format.List(tasks, c.resolver, tz, sess.ShowDone),
		Keyboard: ListKeyboard(tasks, sess.ShowDone, doneCount),
	}
}

// detailView renders a single task, or a not-found notice that does not
// reveal whether the task exists for someone else.
func (c *Controller) detailView(ctx context.Context, sess *Session, taskID int64, mode RenderMode) Render {
	task, err := c.tasks.Get(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "get_task", err)
	}
	if task == nil {
		return Render{
			Mode:     mode,
			Text:     "❌ Task not found. It may have been deleted.",
			Keyboard: ListKeyboard(nil, false, 0),
		}
	}

	tz, err := c.prefs.GetTimezone(ctx, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "get_timezone", err)
	}

	return Render{
		Mode:     mode,
		Text:     format.Detail(task, c.resolver, tz),
		Keyboard: DetailKeyboard(task),
	}
}

func (c *Controller) startEdit(ctx context.Context, sess *Session, taskID int64) Render {
	task, err := c.tasks.Get(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "get_task", err)
	}
	if task == nil {
		return Render{Mode: RenderNone, Notice: "❌ Task not found", Alert: true}
	}
	if task.IsDone() {
		return Render{Mode: RenderNone, Notice: "❌ Completed tasks cannot be edited", Alert: true}
	}

	sess.State = StateAwaitingTaskEdit
	sess.EditingTaskID = task.ID
	return Render{
		Mode:     RenderReplace,
		Text:     format.EditPrompt(task),
		Keyboard: EditKeyboard(task.ID),
	}
}

func (c *Controller) completeTask(ctx context.Context, sess *Session, taskID int64) Render {
	ok, err := c.tasks.Complete(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "complete_task", err)
	}
	if !ok {
		return Render{Mode: RenderNone, Notice: "❌ Could not complete the task", Alert: true}
	}

	c.celebrate(ctx, sess.OwnerID, taskID)

	render := c.detailView(ctx, sess, taskID, RenderReplace)
	render.Notice = "✅ Task completed! It now lives in the completed section."
	render.Alert = true
	return render
}

// celebrate hands the completed task to the celebration pipeline. Purely
// best-effort: failures are logged and the completion flow proceeds.
func (c *Controller) celebrate(ctx context.Context, ownerID, taskID int64) {
	if c.celebrator == nil {
		return
	}
	task, err := c.tasks.Get(ctx, taskID, ownerID)
	if err != nil || task == nil {
		return
	}
	if err := c.celebrator.CelebrateCompletion(ctx, task); err != nil {
		c.logger.Warn("failed_to_enqueue_celebration",
			zap.Int64("owner_id", ownerID),
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
	}
}

func (c *Controller) reactivateTask(ctx context.Context, sess *Session, taskID int64) Render {
	ok, err := c.tasks.Reactivate(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "reactivate_task", err)
	}
	if !ok {
		return Render{Mode: RenderNone, Notice: "❌ Could not reactivate the task", Alert: true}
	}

	render := c.detailView(ctx, sess, taskID, RenderReplace)
	render.Notice = "⏳ Task is active again!"
	return render
}

// confirmPrompt emits the two-step confirmation for delete or hide. The
// target id and intended action travel in the button payload, not in the
// session.
func (c *Controller) confirmPrompt(ctx context.Context, sess *Session, taskID int64, confirm ActionKind) Render {
	task, err := c.tasks.Get(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "get_task", err)
	}
	if task == nil {
		return Render{Mode: RenderNone, Notice: "❌ Task not found", Alert: true}
	}

	var text string
	switch confirm {
	case ActionConfirmHide:
		if !task.IsDone() {
			return Render{Mode: RenderNone, Notice: "❌ Only completed tasks can be hidden", Alert: true}
		}
		text = format.ConfirmHide(task)
	default:
		text = format.ConfirmDelete(task)
	}

	return Render{
		Mode:     RenderReplace,
		Text:     text,
		Keyboard: ConfirmKeyboard(confirm, task.ID),
	}
}

func (c *Controller) deleteTask(ctx context.Context, sess *Session, taskID int64) Render {
	ok, err := c.tasks.Delete(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "delete_task", err)
	}
	if !ok {
		return Render{Mode: RenderNone, Notice: "❌ Could not delete the task", Alert: true}
	}

	sess.ShowDone = true
	render := c.listView(ctx, sess, RenderReplace)
	render.Notice = "🗑 Task deleted!"
	return render
}

func (c *Controller) hideTask(ctx context.Context, sess *Session, taskID int64) Render {
	ok, err := c.tasks.Hide(ctx, taskID, sess.OwnerID)
	if err != nil {
		return c.persistenceFailure(sess, "hide_task", err)
	}
	if !ok {
		return Render{Mode: RenderNone, Notice: "❌ Could not hide the task", Alert: true}
	}

	sess.ShowDone = true
	render := c.listView(ctx, sess, RenderReplace)
	render.Notice = "🫥 Task hidden!"
	return render
}

// timezoneMenu shows the current zone, the local time and the catalog.
func (c *Controller) timezoneMenu(ctx context.Context, ownerID int64, mode RenderMode) Render {
	tz, err := c.prefs.GetTimezone(ctx, ownerID)
	if err != nil {
		c.logger.Error("failed_to_get_timezone",
			zap.Int64("owner_id", ownerID),
			zap.Error(err),
		)
		tz = models.DefaultTimezone
	}

	text := "🌍 Timezone settings\n\n" +
		"Current timezone: " + timezone.Describe(tz) + "\n" +
		"Time now: " + c.resolver.NowIn(tz) + "\n\n" +
		"Pick your timezone from the list below:"

	return Render{Mode: mode, Text: text, Keyboard: TimezoneKeyboard()}
}

func (c *Controller) setTimezone(ctx context.Context, sess *Session, zone string) Render {
	cleaned, err := validation.TimezoneName(zone)
	if err != nil {
		return Render{Mode: RenderNone, Notice: "❌ Invalid timezone", Alert: true}
	}

	if err := c.prefs.SetTimezone(ctx, sess.OwnerID, cleaned); err != nil {
		return c.persistenceFailure(sess, "set_timezone", err)
	}

	return Render{
		Mode: RenderReplace,
		Text: timezoneUpdatedText(cleaned, c.resolver),
	}
}

func timezoneUpdatedText(zone string, resolver *timezone.Resolver) string {
	return "✅ Timezone updated!\n\n" +
		"Set to: " + timezone.Describe(zone) + "\n" +
		"Time now: " + resolver.NowIn(zone) + "\n\n" +
		"All dates and times will now use your timezone."
}

func validationMessage(err error) string {
	var ve *validation.Error
	if errors.As(err, &ve) {
		return ve.Reason + "."
	}
	return "Invalid input."
}

// persistenceFailure logs the underlying error with context, resets the
// flow and surfaces a generic retry-later message.
func (c *Controller) persistenceFailure(sess *Session, op string, err error) Render {
	c.logger.Error("persistence_failure",
		zap.String("operation", op),
		zap.Int64("owner_id", sess.OwnerID),
		zap.Error(err),
	)
	sess.Reset()
	return Render{
		Mode:     RenderSend,
		Text:     "❌ Something went wrong. Please try again later.",
		Keyboard: MainKeyboard(),
	}
}
