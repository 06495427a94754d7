package autofill

import "fmt"

// InjectOptions tunes SetValue for a provider.
type InjectOptions struct {
	Keyup bool // follow input/change with a keyup, for composers validating on key events
}

// SetValue writes text into a composer the way a framework-managed form
// notices it. Native inputs go through the prototype setter; anything else is
// treated as content-editable.
func SetValue(el Element, text string, opt InjectOptions) error {
	state, err := el.State()
	if err != nil {
		return err
	}
	if state.IsNativeInput() {
		return setNativeValue(el, text, opt)
	}
	return setEditableValue(el, text)
}

func setNativeValue(el Element, text string, opt InjectOptions) error {
	if err := el.SetNativeValue(text); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	if opt.Keyup {
		if err := el.Focus(); err != nil {
			return err
		}
	}
	events := []Event{
		{Kind: PlainEvent, Type: "input", Bubbles: true},
		{Kind: PlainEvent, Type: "change", Bubbles: true},
	}
	if opt.Keyup {
		events = append(events, Event{Kind: KeyboardEvent, Type: "keyup", Bubbles: true, Key: " "})
	}
	return dispatchAll(el, events)
}

func setEditableValue(el Element, text string) error {
	if err := el.Focus(); err != nil {
		return err
	}
	if err := el.SetTextContent(text); err != nil {
		return fmt.Errorf("set text content: %w", err)
	}
	return dispatchAll(el, []Event{
		{Kind: InputEvent, Type: "beforeinput", Bubbles: true, Cancelable: true, InputType: "insertText", Data: text},
		{Kind: InputEvent, Type: "input", Bubbles: true, InputType: "insertText", Data: text},
		{Kind: PlainEvent, Type: "change", Bubbles: true},
	})
}

func dispatchAll(el Element, events []Event) error {
	for _, ev := range events {
		if err := el.Dispatch(ev); err != nil {
			return fmt.Errorf("dispatch %v: %w", ev.Type, err)
		}
	}
	return nil
}

// AttachFile puts file into a file input and announces it with a change event.
func AttachFile(fileInput Element, file File) error {
	if err := fileInput.SetFiles(file); err != nil {
		return fmt.Errorf("attach %v: %w", file.Name, err)
	}
	return fileInput.Dispatch(Event{Kind: PlainEvent, Type: "change", Bubbles: true})
}

// PressEnter focuses el and dispatches an Enter keydown on it.
func PressEnter(el Element) error {
	if err := el.Focus(); err != nil {
		return err
	}
	return el.Dispatch(Event{Kind: KeyboardEvent, Type: "keydown", Bubbles: true, Cancelable: true, Key: "Enter", Code: "Enter"})
}
