package dialog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"taskline/internal/models"
	"taskline/internal/timezone"
	"taskline/internal/validation"
)

// fakeTaskStore mirrors the repository's lifecycle rules in memory.
type fakeTaskStore struct {
	nextID int64
	tasks  map[int64]*models.Task
	err    error // when set, every call fails with it
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{nextID: 1, tasks: make(map[int64]*models.Task)}
}

func (f *fakeTaskStore) Create(_ context.Context, ownerID int64, text string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	cleaned, err := validation.TaskText(text)
	if err != nil {
		return 0, err
	}
	id := f.nextID
	f.nextID++
	f.tasks[id] = &models.Task{
		ID:        id,
		OwnerID:   ownerID,
		Text:      cleaned,
		Status:    models.TaskStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

func (f *fakeTaskStore) Get(_ context.Context, id, ownerID int64) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) List(_ context.Context, ownerID int64, includeDone bool, limit, offset int) ([]*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Task
	for _, task := range f.tasks {
		if task.OwnerID != ownerID || task.Hidden {
			continue
		}
		if !includeDone && task.IsDone() {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTaskStore) Count(_ context.Context, ownerID int64, includeDone bool) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, task := range f.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if includeDone {
			if task.IsDone() && !task.Hidden {
				n++
			}
		} else if !task.IsDone() {
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskStore) UpdateText(_ context.Context, id, ownerID int64, newText string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	cleaned, err := validation.TaskText(newText)
	if err != nil {
		return false, err
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID || task.IsDone() {
		return false, nil
	}
	task.Text = cleaned
	return true, nil
}

func (f *fakeTaskStore) Complete(_ context.Context, id, ownerID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID || task.IsDone() {
		return false, nil
	}
	now := time.Now().UTC()
	task.Status = models.TaskStatusDone
	task.CompletedAt = &now
	return true, nil
}

func (f *fakeTaskStore) Reactivate(_ context.Context, id, ownerID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID || !task.IsDone() {
		return false, nil
	}
	task.Status = models.TaskStatusActive
	task.CompletedAt = nil
	return true, nil
}

func (f *fakeTaskStore) Hide(_ context.Context, id, ownerID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID || !task.IsDone() {
		return false, nil
	}
	task.Hidden = true
	return true, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id, ownerID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return false, nil
	}
	delete(f.tasks, id)
	return true, nil
}

type fakePrefStore struct {
	zones map[int64]string
}

func newFakePrefStore() *fakePrefStore {
	return &fakePrefStore{zones: make(map[int64]string)}
}

func (f *fakePrefStore) SetTimezone(_ context.Context, ownerID int64, tz string) error {
	f.zones[ownerID] = tz
	return nil
}

func (f *fakePrefStore) GetTimezone(_ context.Context, ownerID int64) (string, error) {
	if tz, ok := f.zones[ownerID]; ok {
		return tz, nil
	}
	return models.DefaultTimezone, nil
}

type fakeCelebrator struct {
	tasks []*models.Task
	err   error
}

func (f *fakeCelebrator) CelebrateCompletion(_ context.Context, task *models.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fixture struct {
	store      *fakeTaskStore
	prefs      *fakePrefStore
	celebrator *fakeCelebrator
	controller *Controller
	sess       *Session
}

func newFixture(ownerID int64) *fixture {
	store := newFakeTaskStore()
	prefs := newFakePrefStore()
	celebrator := &fakeCelebrator{}
	return &fixture{
		store:      store,
		prefs:      prefs,
		celebrator: celebrator,
		controller: NewController(store, prefs, timezone.NewResolver(nil), celebrator, nil),
		sess:       &Session{OwnerID: ownerID},
	}
}

func (fx *fixture) command(t *testing.T, command string) Render {
	t.Helper()
	return fx.controller.Handle(context.Background(), fx.sess, Event{
		Kind: EventCommand, OwnerID: fx.sess.OwnerID, Command: command,
	})
}

func (fx *fixture) text(t *testing.T, text string) Render {
	t.Helper()
	return fx.controller.Handle(context.Background(), fx.sess, Event{
		Kind: EventText, OwnerID: fx.sess.OwnerID, Text: text,
	})
}

func (fx *fixture) button(t *testing.T, payload string) Render {
	t.Helper()
	return fx.controller.Handle(context.Background(), fx.sess, Event{
		Kind: EventButton, OwnerID: fx.sess.OwnerID, Payload: payload,
	})
}

func (fx *fixture) mustCreate(t *testing.T, text string) int64 {
	t.Helper()
	id, err := fx.store.Create(context.Background(), fx.sess.OwnerID, text)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return id
}

func (fx *fixture) mustComplete(t *testing.T, id int64) {
	t.Helper()
	ok, err := fx.store.Complete(context.Background(), id, fx.sess.OwnerID)
	if err != nil || !ok {
		t.Fatalf("Complete(%d) = %v, %v", id, ok, err)
	}
}

func TestNewTaskFlow(t *testing.T) {
	t.Parallel()

	t.Run("command then text creates task", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		render := fx.command(t, "new_task")
		if fx.sess.State != StateAwaitingNewTask {
			t.Fatalf("state = %v, want StateAwaitingNewTask", fx.sess.State)
		}
		if render.Keyboard == nil || !render.Keyboard.Reply {
			t.Error("expected cancel reply keyboard")
		}

		render = fx.text(t, "Buy milk")
		if fx.sess.State != StateIdle {
			t.Errorf("state after save = %v, want StateIdle", fx.sess.State)
		}
		if !strings.Contains(render.Text, "Buy milk") {
			t.Errorf("confirmation %q does not echo the task text", render.Text)
		}
		if len(fx.store.tasks) != 1 {
			t.Fatalf("store has %d tasks, want 1", len(fx.store.tasks))
		}
	})

	t.Run("invalid text re-prompts without leaving the flow", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		fx.command(t, "new_task")
		render := fx.text(t, "   \x00\x01   ")
		if fx.sess.State != StateAwaitingNewTask {
			t.Errorf("state = %v, want StateAwaitingNewTask", fx.sess.State)
		}
		if !strings.Contains(render.Text, "Try again") {
			t.Errorf("expected re-prompt, got %q", render.Text)
		}
		if len(fx.store.tasks) != 0 {
			t.Error("invalid text must not create a task")
		}
	})

	t.Run("overlong text is rejected", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		fx.command(t, "new_task")
		fx.text(t, strings.Repeat("я", validation.MaxTaskTextLength+1))
		if len(fx.store.tasks) != 0 {
			t.Error("overlong text must not create a task")
		}
		if fx.sess.State != StateAwaitingNewTask {
			t.Errorf("state = %v, want StateAwaitingNewTask", fx.sess.State)
		}
	})

	t.Run("cancel text aborts the flow", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		fx.command(t, "new_task")
		render := fx.text(t, CancelButtonLabel)
		if fx.sess.State != StateIdle {
			t.Errorf("state = %v, want StateIdle", fx.sess.State)
		}
		if !strings.Contains(render.Text, "cancelled") {
			t.Errorf("expected cancellation text, got %q", render.Text)
		}
		if len(fx.store.tasks) != 0 {
			t.Error("cancelled flow must not create a task")
		}
	})

	t.Run("non-text input re-prompts and keeps the flow open", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		fx.command(t, "new_task")
		render := fx.controller.Handle(context.Background(), fx.sess, Event{
			Kind: EventNonText, OwnerID: 100,
		})
		if fx.sess.State != StateAwaitingNewTask {
			t.Errorf("state = %v, want StateAwaitingNewTask", fx.sess.State)
		}
		if !strings.Contains(render.Text, "text") {
			t.Errorf("expected text-only reminder, got %q", render.Text)
		}
	})
}

func TestCommandInterruptsPendingFlow(t *testing.T) {
	t.Parallel()
	fx := newFixture(100)

	fx.command(t, "new_task")
	fx.command(t, "my_tasks")
	if fx.sess.State != StateIdle {
		t.Errorf("state = %v, want StateIdle after interrupting command", fx.sess.State)
	}

	// The text that would have become a task is now just chatter
	render := fx.text(t, "not a task")
	if len(fx.store.tasks) != 0 {
		t.Error("text after interruption must not create a task")
	}
	if render.Mode != RenderSend {
		t.Errorf("mode = %v, want RenderSend", render.Mode)
	}
}

func TestEditFlow(t *testing.T) {
	t.Parallel()

	t.Run("edit replaces the text", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Old text")

		fx.button(t, Action{Kind: ActionEditTask, TaskID: id}.Payload())
		if fx.sess.State != StateAwaitingTaskEdit || fx.sess.EditingTaskID != id {
			t.Fatalf("session = %+v, want edit state for task %d", fx.sess, id)
		}

		render := fx.text(t, "New text")
		if fx.sess.State != StateIdle {
			t.Errorf("state = %v, want StateIdle", fx.sess.State)
		}
		if render.Notice == "" {
			t.Error("expected an updated notice")
		}
		if got := fx.store.tasks[id].Text; got != "New text" {
			t.Errorf("task text = %q, want %q", got, "New text")
		}
	})

	t.Run("completed task cannot be edited", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Done task")
		fx.mustComplete(t, id)

		render := fx.button(t, Action{Kind: ActionEditTask, TaskID: id}.Payload())
		if fx.sess.State != StateIdle {
			t.Errorf("state = %v, want StateIdle", fx.sess.State)
		}
		if !render.Alert || render.Notice == "" {
			t.Errorf("expected alert notice, got %+v", render)
		}
	})

	t.Run("cancel edit returns to the detail view", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Keep me")

		fx.button(t, Action{Kind: ActionEditTask, TaskID: id}.Payload())
		render := fx.button(t, Action{Kind: ActionCancelEdit, TaskID: id}.Payload())
		if fx.sess.State != StateIdle {
			t.Errorf("state = %v, want StateIdle", fx.sess.State)
		}
		if !strings.Contains(render.Text, "Keep me") {
			t.Errorf("detail view %q does not show the task", render.Text)
		}
		if got := fx.store.tasks[id].Text; got != "Keep me" {
			t.Errorf("task text = %q, want unchanged", got)
		}
	})
}

func TestCompleteAndReactivate(t *testing.T) {
	t.Parallel()

	t.Run("complete marks done and celebrates", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Finish report")

		render := fx.button(t, Action{Kind: ActionCompleteTask, TaskID: id}.Payload())
		task := fx.store.tasks[id]
		if !task.IsDone() || task.CompletedAt == nil {
			t.Fatalf("task not completed: %+v", task)
		}
		if render.Notice == "" || !render.Alert {
			t.Error("expected completion alert notice")
		}
		if len(fx.celebrator.tasks) != 1 || fx.celebrator.tasks[0].ID != id {
			t.Errorf("celebrator got %v, want task %d", fx.celebrator.tasks, id)
		}
	})

	t.Run("second complete is rejected", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Once only")
		fx.mustComplete(t, id)

		render := fx.button(t, Action{Kind: ActionCompleteTask, TaskID: id}.Payload())
		if !render.Alert || render.Notice == "" {
			t.Errorf("expected failure notice, got %+v", render)
		}
		if len(fx.celebrator.tasks) != 0 {
			t.Error("failed completion must not celebrate")
		}
	})

	t.Run("celebration failure does not block completion", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		fx.celebrator.err = errors.New("queue down")
		id := fx.mustCreate(t, "Still completes")

		render := fx.button(t, Action{Kind: ActionCompleteTask, TaskID: id}.Payload())
		if !fx.store.tasks[id].IsDone() {
			t.Error("task must complete despite celebration failure")
		}
		if render.Notice == "" {
			t.Error("expected the normal completion notice")
		}
	})

	t.Run("reactivate clears completion", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Back again")
		fx.mustComplete(t, id)

		fx.button(t, Action{Kind: ActionReactivate, TaskID: id}.Payload())
		task := fx.store.tasks[id]
		if task.IsDone() || task.CompletedAt != nil {
			t.Errorf("task not reactivated: %+v", task)
		}
	})
}

func TestDeleteConfirmation(t *testing.T) {
	t.Parallel()

	t.Run("delete asks first and acts on confirm", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Doomed")

		render := fx.button(t, Action{Kind: ActionDeleteTask, TaskID: id}.Payload())
		if _, ok := fx.store.tasks[id]; !ok {
			t.Fatal("task deleted before confirmation")
		}
		if !strings.Contains(render.Text, "really") {
			t.Errorf("expected confirmation prompt, got %q", render.Text)
		}

		render = fx.button(t, Action{Kind: ActionConfirmDelete, TaskID: id}.Payload())
		if _, ok := fx.store.tasks[id]; ok {
			t.Error("task still present after confirmation")
		}
		if render.Notice == "" {
			t.Error("expected deletion notice")
		}
	})

	t.Run("declining returns to the task", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Survivor")

		fx.button(t, Action{Kind: ActionDeleteTask, TaskID: id}.Payload())
		// The "No" button carries show_task
		render := fx.button(t, Action{Kind: ActionShowTask, TaskID: id}.Payload())
		if _, ok := fx.store.tasks[id]; !ok {
			t.Error("declining the confirmation must not delete")
		}
		if !strings.Contains(render.Text, "Survivor") {
			t.Errorf("expected detail view, got %q", render.Text)
		}
	})
}

func TestHide(t *testing.T) {
	t.Parallel()

	t.Run("completed task hides after confirm", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Hide me")
		fx.mustComplete(t, id)

		fx.button(t, Action{Kind: ActionHideTask, TaskID: id}.Payload())
		if fx.store.tasks[id].Hidden {
			t.Fatal("task hidden before confirmation")
		}

		fx.button(t, Action{Kind: ActionConfirmHide, TaskID: id}.Payload())
		if !fx.store.tasks[id].Hidden {
			t.Error("task not hidden after confirmation")
		}
	})

	t.Run("active task cannot be hidden", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)
		id := fx.mustCreate(t, "Still active")

		render := fx.button(t, Action{Kind: ActionHideTask, TaskID: id}.Payload())
		if !render.Alert {
			t.Errorf("expected alert, got %+v", render)
		}
		render = fx.button(t, Action{Kind: ActionConfirmHide, TaskID: id}.Payload())
		if fx.store.tasks[id].Hidden {
			t.Error("active task must not become hidden")
		}
		if !render.Alert {
			t.Errorf("expected alert on forced confirm, got %+v", render)
		}
	})
}

func TestListViews(t *testing.T) {
	t.Parallel()

	// Three active, two done, one hidden
	fx := newFixture(100)
	for _, text := range []string{"a1", "a2", "a3"} {
		fx.mustCreate(t, text)
	}
	d1 := fx.mustCreate(t, "d1")
	d2 := fx.mustCreate(t, "d2")
	h1 := fx.mustCreate(t, "h1")
	fx.mustComplete(t, d1)
	fx.mustComplete(t, d2)
	fx.mustComplete(t, h1)
	if ok, _ := fx.store.Hide(context.Background(), h1, 100); !ok {
		t.Fatal("setup: hide failed")
	}

	t.Run("default list shows active only", func(t *testing.T) {
		render := fx.command(t, "my_tasks")
		if !strings.Contains(render.Text, "Active tasks (3)") {
			t.Errorf("list header wrong: %q", render.Text)
		}
		if strings.Contains(render.Text, "d1") {
			t.Errorf("done task leaked into active view: %q", render.Text)
		}
		// Toggle shows the visible done count, excluding hidden
		found := false
		for _, row := range render.Keyboard.Rows {
			for _, btn := range row {
				if btn.Payload == string(ActionShowCompleted) {
					found = true
					if !strings.Contains(btn.Label, "(2)") {
						t.Errorf("toggle label = %q, want count 2", btn.Label)
					}
				}
			}
		}
		if !found {
			t.Error("show-completed toggle missing")
		}
	})

	t.Run("expanded list shows done but never hidden", func(t *testing.T) {
		render := fx.button(t, string(ActionShowCompleted))
		if !fx.sess.ShowDone {
			t.Error("ShowDone not set")
		}
		if !strings.Contains(render.Text, "All tasks (5)") {
			t.Errorf("header wrong: %q", render.Text)
		}
		if !strings.Contains(render.Text, "d1") || !strings.Contains(render.Text, "d2") {
			t.Errorf("done tasks missing: %q", render.Text)
		}
		if strings.Contains(render.Text, "h1") {
			t.Errorf("hidden task leaked: %q", render.Text)
		}
	})

	t.Run("refresh keeps the view mode", func(t *testing.T) {
		fx.sess.ShowDone = true
		render := fx.button(t, string(ActionRefresh))
		if !strings.Contains(render.Text, "All tasks") {
			t.Errorf("refresh lost the expanded mode: %q", render.Text)
		}
	})
}

func TestOwnershipIsolation(t *testing.T) {
	t.Parallel()
	fx := newFixture(100)
	id := fx.mustCreate(t, "Mine")

	intruder := &Session{OwnerID: 200}
	render := fx.controller.Handle(context.Background(), intruder, Event{
		Kind: EventButton, OwnerID: 200,
		Payload: Action{Kind: ActionShowTask, TaskID: id}.Payload(),
	})
	if strings.Contains(render.Text, "Mine") {
		t.Errorf("foreign task text leaked: %q", render.Text)
	}

	render = fx.controller.Handle(context.Background(), intruder, Event{
		Kind: EventButton, OwnerID: 200,
		Payload: Action{Kind: ActionConfirmDelete, TaskID: id}.Payload(),
	})
	if _, ok := fx.store.tasks[id]; !ok {
		t.Error("foreign delete succeeded")
	}
	if !render.Alert {
		t.Errorf("expected failure alert, got %+v", render)
	}
}

func TestTimezoneFlows(t *testing.T) {
	t.Parallel()

	t.Run("catalog button sets the zone", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		render := fx.button(t, string(ActionSetTimezone)+":Europe/Moscow")
		if got := fx.prefs.zones[100]; got != "Europe/Moscow" {
			t.Errorf("stored zone = %q, want Europe/Moscow", got)
		}
		if !strings.Contains(render.Text, "Moscow") {
			t.Errorf("confirmation %q does not name the zone", render.Text)
		}
	})

	t.Run("manual entry validates the zone", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		fx.button(t, string(ActionManualTZ))
		if fx.sess.State != StateAwaitingManualTimezone {
			t.Fatalf("state = %v, want StateAwaitingManualTimezone", fx.sess.State)
		}

		render := fx.text(t, "Not/AZone")
		if fx.sess.State != StateAwaitingManualTimezone {
			t.Errorf("invalid zone must keep the flow open, state = %v", fx.sess.State)
		}
		if !strings.Contains(render.Text, "Unknown timezone") {
			t.Errorf("expected retry prompt, got %q", render.Text)
		}

		fx.text(t, "Asia/Tokyo")
		if got := fx.prefs.zones[100]; got != "Asia/Tokyo" {
			t.Errorf("stored zone = %q, want Asia/Tokyo", got)
		}
		if fx.sess.State != StateIdle {
			t.Errorf("state = %v, want StateIdle", fx.sess.State)
		}
	})

	t.Run("invalid zone in payload is rejected", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(100)

		render := fx.button(t, string(ActionSetTimezone)+":Mars/Olympus")
		if _, ok := fx.prefs.zones[100]; ok {
			t.Error("invalid zone must not be stored")
		}
		if !render.Alert {
			t.Errorf("expected alert, got %+v", render)
		}
	})
}

func TestMalformedPayload(t *testing.T) {
	t.Parallel()
	fx := newFixture(100)
	fx.command(t, "new_task")

	render := fx.button(t, "complete_task:banana")
	if render.Mode != RenderNone || !render.Alert {
		t.Errorf("expected silent alert, got %+v", render)
	}
	// Malformed input must not disturb the pending flow
	if fx.sess.State != StateAwaitingNewTask {
		t.Errorf("state = %v, want StateAwaitingNewTask", fx.sess.State)
	}
}

func TestPersistenceFailureResetsSession(t *testing.T) {
	t.Parallel()
	fx := newFixture(100)
	fx.command(t, "new_task")
	fx.store.err = errors.New("connection refused")

	render := fx.text(t, "Doomed task")
	if fx.sess.State != StateIdle {
		t.Errorf("state = %v, want StateIdle after store failure", fx.sess.State)
	}
	if !strings.Contains(render.Text, "try again later") {
		t.Errorf("expected generic failure text, got %q", render.Text)
	}
	if strings.Contains(render.Text, "connection refused") {
		t.Errorf("internal error leaked to the user: %q", render.Text)
	}
}
