// Package format renders tasks and task lists as display text. Functions
// here are pure: they take already-loaded records and a resolved timezone
// and do no I/O.
package format

import (
	"fmt"
	"strings"

	"taskline/internal/models"
	"taskline/internal/timezone"
)

// Truncation limits for the three display contexts. These are user-visible
// sizes and part of the rendering contract.
const (
	ButtonTextLimit  = 30
	ListLineLimit    = 60
	ConfirmTextLimit = 100
)

// Status glyphs used across lists, buttons and detail views.
const (
	GlyphActive = "⏳"
	GlyphDone   = "✅"
)

// Truncate cuts s to limit runes, replacing the tail with "..." when it
// does not fit.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// Glyph returns the status glyph for a task.
func Glyph(task *models.Task) string {
	if task.IsDone() {
		return GlyphDone
	}
	return GlyphActive
}

// ButtonLabel renders the short label used on a task's list button.
func ButtonLabel(task *models.Task) string {
	return Glyph(task) + " " + Truncate(task.Text, ButtonTextLimit)
}

// List renders the task list view. Active tasks come first, then done ones
// under a separate section when showDone is set; numbering continues
// across the two groups.
func List(tasks []*models.Task, resolver *timezone.Resolver, tz string, showDone bool) string {
	if len(tasks) == 0 {
		if showDone {
			return "📋 Task list\n\nYou have no tasks at all yet!\n\nCreate your first one with the button below or the /new_task command."
		}
		return "📋 Task list\n\nYou have no active tasks!\n\nCreate your first one with the button below or the /new_task command."
	}

	var active, done []*models.Task
	for _, task := range tasks {
		if task.IsDone() {
			done = append(done, task)
		} else {
			active = append(active, task)
		}
	}

	var b strings.Builder
	if showDone {
		fmt.Fprintf(&b, "📋 All tasks (%d)", len(tasks))
		if len(active) > 0 && len(done) > 0 {
			fmt.Fprintf(&b, "\nActive: %d, completed: %d", len(active), len(done))
		}
	} else {
		fmt.Fprintf(&b, "📋 Active tasks (%d)", len(active))
	}
	b.WriteString("\n\n")

	if len(active) > 0 {
		if showDone && len(done) > 0 {
			b.WriteString(GlyphActive + " Active:\n")
		}
		for i, task := range active {
			writeListLine(&b, i+1, task, resolver, tz)
		}
	}

	if showDone && len(done) > 0 {
		if len(active) > 0 {
			b.WriteString(GlyphDone + " Completed:\n")
		}
		for i, task := range done {
			writeListLine(&b, len(active)+i+1, task, resolver, tz)
		}
	}

	b.WriteString("👇 Tap a task for details")
	return b.String()
}

func writeListLine(b *strings.Builder, n int, task *models.Task, resolver *timezone.Resolver, tz string) {
	fmt.Fprintf(b, "%d. %s %s\n", n, Glyph(task), Truncate(task.Text, ListLineLimit))
	fmt.Fprintf(b, "   📅 %s", resolver.RenderDate(task.CreatedAt, tz))
	if task.IsDone() && task.CompletedAt != nil {
		fmt.Fprintf(b, " → %s %s", GlyphDone, resolver.RenderDate(*task.CompletedAt, tz))
	}
	b.WriteString("\n\n")
}

// Detail renders the full task view with untruncated text and date-times.
func Detail(task *models.Task, resolver *timezone.Resolver, tz string) string {
	status := GlyphActive + " Active"
	if task.IsDone() {
		status = GlyphDone + " Completed"
	}

	var b strings.Builder
	b.WriteString("📝 Task details\n\n")
	b.WriteString("Text:\n")
	b.WriteString(task.Text)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Created: %s", resolver.Render(task.CreatedAt, tz))
	if task.IsDone() && task.CompletedAt != nil {
		fmt.Fprintf(&b, "\nCompleted: %s", resolver.Render(*task.CompletedAt, tz))
	}
	return b.String()
}

// ConfirmDelete renders the destructive-action confirmation prompt.
func ConfirmDelete(task *models.Task) string {
	return fmt.Sprintf(
		"🗑 Delete task\n\nDo you really want to delete this task?\n\n%s\n\n⚠️ This cannot be undone!",
		Truncate(task.Text, ConfirmTextLimit),
	)
}

// ConfirmHide renders the hide confirmation prompt for a completed task.
func ConfirmHide(task *models.Task) string {
	return fmt.Sprintf(
		"🫥 Hide task\n\nDo you really want to hide this completed task?\n\n%s\n\nℹ️ Hidden tasks disappear from lists but stay in storage.",
		Truncate(task.Text, ConfirmTextLimit),
	)
}

// EditPrompt renders the edit-flow prompt showing the current text.
func EditPrompt(task *models.Task) string {
	return fmt.Sprintf(
		"📝 Edit task\n\nCurrent text:\n%s\n\nSend the new task text:",
		Truncate(task.Text, ConfirmTextLimit),
	)
}
