package dialog

// RenderMode tells the transport how to deliver a render instruction.
type RenderMode int

const (
	// RenderNone means nothing to deliver (ignored input)
	RenderNone RenderMode = iota
	// RenderSend sends a new message
	RenderSend
	// RenderReplace replaces the text (and keyboard) of the message the
	// triggering button was attached to
	RenderReplace
	// RenderKeyboardOnly replaces just the keyboard of that message
	RenderKeyboardOnly
)

// Button is a single keyboard button. Inline buttons carry a payload;
// reply-keyboard buttons carry only a label.
type Button struct {
	Label   string
	Payload string
}

// Keyboard describes a keyboard for the transport to render.
type Keyboard struct {
	// Reply selects a persistent reply keyboard instead of an inline one
	Reply bool
	Rows  [][]Button
}

// Render is the controller's instruction to the transport.
type Render struct {
	Mode     RenderMode
	Text     string
	Keyboard *Keyboard
	// Notice is short feedback rendered outside the message (a callback
	// answer popup on Telegram). Alert asks for the intrusive variant.
	Notice string
	Alert  bool
}
