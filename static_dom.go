package autofill

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// StaticDocument is a Document over parsed HTML. There is no layout engine:
// boxes come from inline styles and document order, which is enough to
// replay a saved page through the resolver and to drive the coordinator in
// tests. Listeners registered with AddEventListener observe dispatched events.
type StaticDocument struct {
	*goquery.Document
	BaseUrl *url.URL

	mu        sync.Mutex
	values    map[*html.Node]string
	files     map[*html.Node][]File
	events    map[*html.Node][]Event
	listeners map[*html.Node]map[string][]func(Event)
	focused   *html.Node
	queries   int
}

// NewStaticDocument parses markup as a whole page.
func NewStaticDocument(markup string) (*StaticDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return newStaticDocument(doc), nil
}

func newStaticDocument(doc *goquery.Document) *StaticDocument {
	return &StaticDocument{
		Document:  doc,
		BaseUrl:   doc.Url,
		values:    map[*html.Node]string{},
		files:     map[*html.Node][]File{},
		events:    map[*html.Node][]Event{},
		listeners: map[*html.Node]map[string][]func(Event){},
	}
}

func compileSelector(selector string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m, nil
}

func (doc *StaticDocument) QueryAll(selector string) ([]Element, error) {
	m, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.queries++
	return doc.wrap(doc.FindMatcher(m).Nodes), nil
}

// Queries returns how many selector queries ran against the document.
func (doc *StaticDocument) Queries() int {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.queries
}

func (doc *StaticDocument) wrap(nodes []*html.Node) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &staticElement{doc: doc, node: n})
	}
	return elements
}

// Element returns the first element matching selector, or nil.
func (doc *StaticDocument) Element(selector string) Element {
	elements, err := doc.QueryAll(selector)
	if err != nil || len(elements) == 0 {
		return nil
	}
	return elements[0]
}

// AppendHTML inserts markup at the end of every element matching selector,
// the way a single-page app mounts its components.
func (doc *StaticDocument) AppendHTML(selector, markup string) error {
	m, err := compileSelector(selector)
	if err != nil {
		return err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	target := doc.FindMatcher(m)
	if target.Length() == 0 {
		return fmt.Errorf("%v: no element to append to", selector)
	}
	target.AppendHtml(markup)
	return nil
}

// SetAttr sets an attribute on every element matching selector.
func (doc *StaticDocument) SetAttr(selector, name, value string) error {
	m, err := compileSelector(selector)
	if err != nil {
		return err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.FindMatcher(m).SetAttr(name, value)
	return nil
}

// AddEventListener registers f for events of type typ reaching el.
func (doc *StaticDocument) AddEventListener(el Element, typ string, f func(Event)) {
	se := el.(*staticElement)
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.listeners[se.node] == nil {
		doc.listeners[se.node] = map[string][]func(Event){}
	}
	doc.listeners[se.node][typ] = append(doc.listeners[se.node][typ], f)
}

// Events returns the events dispatched with el as target.
func (doc *StaticDocument) Events(el Element) []Event {
	se := el.(*staticElement)
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return append([]Event(nil), doc.events[se.node]...)
}

// Files returns the file list of a file input.
func (doc *StaticDocument) Files(el Element) []File {
	se := el.(*staticElement)
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return append([]File(nil), doc.files[se.node]...)
}

// Focused returns the element holding focus, or nil.
func (doc *StaticDocument) Focused() Element {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.focused == nil {
		return nil
	}
	return &staticElement{doc: doc, node: doc.focused}
}

type staticElement struct {
	doc  *StaticDocument
	node *html.Node
}

func (el *staticElement) ID() string {
	return fmt.Sprintf("%p", el.node)
}

func (el *staticElement) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(el.node).Selection
}

func (el *staticElement) QueryAll(selector string) ([]Element, error) {
	m, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.doc.queries++
	return el.doc.wrap(goquery.NewDocumentFromNode(el.node).FindMatcher(m).Nodes), nil
}

func (el *staticElement) Closest(selector string) (Element, error) {
	m, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	for n := el.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && m.Match(n) {
			return &staticElement{doc: el.doc, node: n}, nil
		}
	}
	return nil, nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// inlineStyle returns a declaration of the style attribute, lower-cased.
func inlineStyle(n *html.Node, property string) string {
	style, ok := attr(n, "style")
	if !ok {
		return ""
	}
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if found && strings.EqualFold(strings.TrimSpace(name), property) {
			return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important")))
		}
	}
	return ""
}

func displayNone(n *html.Node) bool {
	if _, hidden := attr(n, "hidden"); hidden {
		return true
	}
	return inlineStyle(n, "display") == "none"
}

// documentIndex is the position of n in a depth-first walk of the tree.
func documentIndex(root, target *html.Node) int {
	index := 0
	found := -1
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target {
			found = index
			return true
		}
		if n.Type == html.ElementNode {
			index++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

const staticLineHeight = 20

func (el *staticElement) State() (ElementState, error) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()

	n := el.node
	if n.Type != html.ElementNode {
		return ElementState{}, fmt.Errorf("%v is not an element", el.ID())
	}
	state := ElementState{
		Tag:        strings.ToUpper(n.Data),
		Display:    "block",
		Visibility: "visible",
		Width:      100,
		Height:     staticLineHeight,
	}
	if t, ok := attr(n, "type"); ok {
		state.Type = strings.ToLower(t)
	}
	if displayNone(n) {
		state.Display = "none"
	}
	state.AriaHidden, _ = attr(n, "aria-hidden")
	_, state.Disabled = attr(n, "disabled")
	_, state.ReadOnly = attr(n, "readonly")

	for a := n; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && displayNone(a) {
			state.Width, state.Height = 0, 0
			break
		}
	}
	// visibility inherits from the nearest element declaring it
	for a := n; a != nil; a = a.Parent {
		if a.Type != html.ElementNode {
			continue
		}
		if v := inlineStyle(a, "visibility"); v != "" {
			state.Visibility = v
			break
		}
	}
	if inlineStyle(n, "width") == "0" || inlineStyle(n, "width") == "0px" {
		state.Width = 0
	}
	if inlineStyle(n, "height") == "0" || inlineStyle(n, "height") == "0px" {
		state.Height = 0
	}

	for a := n; a != nil; a = a.Parent {
		if a.Type != html.ElementNode {
			continue
		}
		if v, ok := attr(a, "contenteditable"); ok {
			v = strings.ToLower(v)
			state.ContentEditable = v == "" || v == "true" || v == "plaintext-only"
			break
		}
	}
	if state.Height > 0 {
		root := n
		for root.Parent != nil {
			root = root.Parent
		}
		state.Bottom = float64(documentIndex(root, n)+1) * staticLineHeight
	}
	return state, nil
}

func (el *staticElement) Text() (string, error) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	tag := strings.ToUpper(el.node.Data)
	if tag == "TEXTAREA" || tag == "INPUT" {
		if v, ok := el.doc.values[el.node]; ok {
			return v, nil
		}
		if tag == "INPUT" {
			v, _ := attr(el.node, "value")
			return v, nil
		}
	}
	return strings.TrimSpace(el.selection().Text()), nil
}

func (el *staticElement) Focus() error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.doc.focused = el.node
	return nil
}

func (el *staticElement) Click() error {
	return el.Dispatch(Event{Kind: PlainEvent, Type: "click", Bubbles: true, Cancelable: true})
}

func (el *staticElement) SetNativeValue(value string) error {
	tag := strings.ToUpper(el.node.Data)
	if tag != "TEXTAREA" && tag != "INPUT" {
		return fmt.Errorf("%v has no value property", strings.ToLower(tag))
	}
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.doc.values[el.node] = value
	return nil
}

func (el *staticElement) SetTextContent(value string) error {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.selection().SetText(value)
	return nil
}

func (el *staticElement) SetFiles(files ...File) error {
	if t, _ := attr(el.node, "type"); !strings.EqualFold(el.node.Data, "input") || !strings.EqualFold(t, "file") {
		return fmt.Errorf("%v is not a file input", el.node.Data)
	}
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.doc.files[el.node] = append([]File(nil), files...)
	return nil
}

func (el *staticElement) Dispatch(event Event) error {
	el.doc.mu.Lock()
	el.doc.events[el.node] = append(el.doc.events[el.node], event)
	var handlers []func(Event)
	for n := el.node; n != nil; n = n.Parent {
		handlers = append(handlers, el.doc.listeners[n][event.Type]...)
		if !event.Bubbles {
			break
		}
	}
	el.doc.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}
