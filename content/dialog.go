package content

import "fmt"

// DialogState is the lifecycle of one edit form.
type DialogState int

const (
	DialogIdle DialogState = iota
	DialogEditing
	DialogSubmitting
)

func (s DialogState) String() string {
	switch s {
	case DialogIdle:
		return "idle"
	case DialogEditing:
		return "editing"
	case DialogSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s DialogState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *DialogState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = DialogIdle
	case "editing":
		*s = DialogEditing
	case "submitting":
		*s = DialogSubmitting
	default:
		return fmt.Errorf("content: unknown dialog state %q", b)
	}
	return nil
}

// Dialog tracks the edit form for one kind of record. A dialog seeded with an
// existing record submits as an update, otherwise as a create.
// Dialog is not safe for concurrent use; Workspace guards it.
type Dialog[T any] struct {
	state   DialogState
	editing *T
}

// State returns the current state and the seeded record, if any.
func (d *Dialog[T]) State() (DialogState, *T) {
	return d.state, d.editing
}

func (d *Dialog[T]) open(seed *T) {
	d.state = DialogEditing
	d.editing = seed
}

func (d *Dialog[T]) submit() {
	d.state = DialogSubmitting
}

func (d *Dialog[T]) fail() {
	d.state = DialogEditing
}

func (d *Dialog[T]) close() {
	d.state = DialogIdle
	d.editing = nil
}
