package autofill

// Document is the page the automation runs against.
// Implementations: ChromeDocument (a live tab) and StaticDocument (parsed HTML).
type Document interface {
	// QueryAll returns every element matching selector in document order.
	QueryAll(selector string) ([]Element, error)
}

// Element is a handle to one node of a Document.
type Element interface {
	// ID identifies the node within its document; equal IDs mean the same node.
	ID() string
	QueryAll(selector string) ([]Element, error)
	// Closest returns the nearest inclusive ancestor matching selector, or nil.
	Closest(selector string) (Element, error)
	State() (ElementState, error)
	// Text returns the value of a native input, otherwise the trimmed text content.
	Text() (string, error)

	Focus() error
	Click() error
	// SetNativeValue assigns value through the platform prototype setter,
	// bypassing any setter a UI framework installed on the instance.
	SetNativeValue(value string) error
	SetTextContent(value string) error
	Dispatch(event Event) error
	// SetFiles replaces the file list of a file input.
	SetFiles(files ...File) error
}

// ElementState is a snapshot of what the probe needs to know about an element.
type ElementState struct {
	Tag             string  `json:"tag"` // upper case, as Element.tagName
	Type            string  `json:"type"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Bottom          float64 `json:"bottom"`
	Display         string  `json:"display"`
	Visibility      string  `json:"visibility"`
	AriaHidden      string  `json:"ariaHidden"`
	Disabled        bool    `json:"disabled"`
	ReadOnly        bool    `json:"readOnly"`
	ContentEditable bool    `json:"contentEditable"`
}

// IsNativeInput reports whether the element keeps its text in a value property.
func (state ElementState) IsNativeInput() bool {
	return state.Tag == "TEXTAREA" || state.Tag == "INPUT"
}

// EventKind selects the DOM event constructor.
type EventKind string

const (
	PlainEvent    EventKind = "Event"
	InputEvent    EventKind = "InputEvent"
	KeyboardEvent EventKind = "KeyboardEvent"
)

// Event is a synthetic DOM event.
type Event struct {
	Kind       EventKind `json:"kind"`
	Type       string    `json:"type"`
	Bubbles    bool      `json:"bubbles"`
	Cancelable bool      `json:"cancelable"`
	InputType  string    `json:"inputType,omitempty"`
	Data       string    `json:"data,omitempty"`
	Key        string    `json:"key,omitempty"`
	Code       string    `json:"code,omitempty"`
}

// File is an attachment assigned to a file input.
type File struct {
	Name     string `json:"name"`
	MimeType string `json:"type"`
	Content  string `json:"content"`
}
