package autofill

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// pageRuntime installs the page side of ChromeDocument once per page load:
// a registry of element references handed out to Go, plus counters that
// stand in for focus and mutation listeners.
const pageRuntime = `(() => {
	if (window.__autofill) return window.__autofill;
	const rt = { refs: [], ids: new Map(), live: 0, limit: 256, mutations: 0, focus: 0 };
	// drop detached nodes so a long-lived page does not pin every re-render
	rt.sweep = () => {
		rt.refs.forEach((el, i) => {
			if (el && !el.isConnected) { rt.ids.delete(el); rt.refs[i] = undefined; rt.live--; }
		});
		rt.limit = Math.max(256, rt.live * 2);
	};
	rt.ref = (el) => {
		let i = rt.ids.get(el);
		if (i === undefined) {
			if (rt.live >= rt.limit) rt.sweep();
			rt.refs.push(el);
			i = rt.refs.length - 1;
			rt.ids.set(el, i);
			rt.live++;
		}
		return i;
	};
	rt.get = (i) => {
		const el = rt.refs[i];
		if (!el || !el.isConnected) throw new Error("stale:" + i);
		return el;
	};
	new MutationObserver(() => { rt.mutations++; })
		.observe(document.documentElement, { childList: true, subtree: true });
	window.addEventListener("focus", () => { rt.focus++; });
	document.addEventListener("visibilitychange", () => {
		if (document.visibilityState === "visible") rt.focus++;
	});
	window.__autofill = rt;
	return rt;
})()`

const (
	jsQueryDocument = `(rt, sel) => Array.from(document.querySelectorAll(sel)).map(rt.ref)`
	jsQueryElement  = `(rt, i, sel) => Array.from(rt.get(i).querySelectorAll(sel)).map(rt.ref)`
	jsClosest       = `(rt, i, sel) => { const c = rt.get(i).closest(sel); return c ? rt.ref(c) : -1; }`
	jsState         = `(rt, i) => {
		const el = rt.get(i);
		const r = el.getBoundingClientRect();
		const s = window.getComputedStyle(el);
		return {
			tag: el.tagName,
			type: (el.getAttribute("type") || "").toLowerCase(),
			width: r.width, height: r.height, bottom: r.bottom,
			display: s.display, visibility: s.visibility,
			ariaHidden: el.getAttribute("aria-hidden") || "",
			disabled: !!el.disabled, readOnly: !!el.readOnly,
			contentEditable: !!el.isContentEditable,
		};
	}`
	jsText = `(rt, i) => {
		const el = rt.get(i);
		if (el instanceof HTMLTextAreaElement || el instanceof HTMLInputElement) return el.value;
		return (el.textContent || "").trim();
	}`
	jsFocus          = `(rt, i) => { rt.get(i).focus(); return true; }`
	jsClick          = `(rt, i) => { rt.get(i).click(); return true; }`
	jsSetNativeValue = `(rt, i, v) => {
		const el = rt.get(i);
		const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
			: el instanceof HTMLInputElement ? HTMLInputElement.prototype : null;
		if (!proto) throw new Error(el.tagName + " has no value property");
		const setter = Object.getOwnPropertyDescriptor(proto, "value")?.set;
		if (setter) setter.call(el, v); else el.value = v;
		return true;
	}`
	jsSetTextContent = `(rt, i, v) => { rt.get(i).textContent = v; return true; }`
	jsDispatch       = `(rt, i, e) => {
		const el = rt.get(i);
		const init = { bubbles: e.bubbles, cancelable: e.cancelable };
		let ev;
		if (e.kind === "InputEvent") {
			ev = new InputEvent(e.type, { ...init, inputType: e.inputType, data: e.data });
		} else if (e.kind === "KeyboardEvent") {
			ev = new KeyboardEvent(e.type, { ...init, key: e.key, code: e.code });
		} else {
			ev = new Event(e.type, init);
		}
		el.dispatchEvent(ev);
		return true;
	}`
	jsSetFiles = `(rt, i, files) => {
		const el = rt.get(i);
		if (!(el instanceof HTMLInputElement) || el.type !== "file") throw new Error("not a file input");
		const dt = new DataTransfer();
		for (const f of files) dt.items.add(new File([f.content], f.name, { type: f.type }));
		el.files = dt.files;
		return true;
	}`
	jsSignals = `(rt) => ({ mutations: rt.mutations, focus: rt.focus, url: location.href })`
	jsHTML    = `(rt) => document.documentElement.outerHTML`
)

// DefaultCallTimeout bounds each round trip to the page.
const DefaultCallTimeout = 10 * time.Second

// ChromeDocument is a Document backed by a chromedp tab.
type ChromeDocument struct {
	ctx         context.Context
	CallTimeout time.Duration
}

// NewChromeDocument wraps the tab of a chromedp context.
func NewChromeDocument(ctx context.Context) *ChromeDocument {
	return &ChromeDocument{ctx: ctx, CallTimeout: DefaultCallTimeout}
}

// call runs fn(rt, args...) in the page and decodes the result into res.
func (doc *ChromeDocument) call(op string, res interface{}, fn string, args ...interface{}) error {
	encoded, err := json.Marshal(args)
	if err != nil {
		return err
	}
	expression := fmt.Sprintf("((rt) => (%s).apply(null, [rt].concat(%s)))(%s)", fn, encoded, pageRuntime)

	ctx := doc.ctx
	if doc.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, doc.CallTimeout)
		defer cancel()
	}
	err = chromedp.Run(ctx, chromedp.Evaluate(expression, res))
	if err != nil {
		message := err.Error()
		if i := strings.Index(message, "stale:"); i >= 0 {
			id := message[i+len("stale:"):]
			if end := strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
				id = id[:end]
			}
			return StaleElementError{ID: id}
		}
		return ScriptError{Op: op, Message: message}
	}
	return nil
}

func (doc *ChromeDocument) wrap(refs []int) []Element {
	elements := make([]Element, 0, len(refs))
	for _, ref := range refs {
		elements = append(elements, &chromeElement{doc: doc, ref: ref})
	}
	return elements
}

func (doc *ChromeDocument) QueryAll(selector string) ([]Element, error) {
	var refs []int
	if err := doc.call("query "+selector, &refs, jsQueryDocument, selector); err != nil {
		return nil, err
	}
	return doc.wrap(refs), nil
}

// PageSignals are the counters behind the focus and mutation triggers.
type PageSignals struct {
	Mutations int64  `json:"mutations"`
	Focus     int64  `json:"focus"`
	URL       string `json:"url"`
}

// Signals reads the page counters. A navigation resets them to zero.
func (doc *ChromeDocument) Signals() (PageSignals, error) {
	var signals PageSignals
	err := doc.call("signals", &signals, jsSignals)
	return signals, err
}

// HTML returns the current markup of the page.
func (doc *ChromeDocument) HTML() (string, error) {
	var markup string
	err := doc.call("html", &markup, jsHTML)
	return markup, err
}

type chromeElement struct {
	doc *ChromeDocument
	ref int
}

func (el *chromeElement) ID() string {
	return strconv.Itoa(el.ref)
}

func (el *chromeElement) QueryAll(selector string) ([]Element, error) {
	var refs []int
	if err := el.doc.call("query "+selector, &refs, jsQueryElement, el.ref, selector); err != nil {
		return nil, err
	}
	return el.doc.wrap(refs), nil
}

func (el *chromeElement) Closest(selector string) (Element, error) {
	ref := -1
	if err := el.doc.call("closest "+selector, &ref, jsClosest, el.ref, selector); err != nil {
		return nil, err
	}
	if ref < 0 {
		return nil, nil
	}
	return &chromeElement{doc: el.doc, ref: ref}, nil
}

func (el *chromeElement) State() (ElementState, error) {
	var state ElementState
	err := el.doc.call("state", &state, jsState, el.ref)
	return state, err
}

func (el *chromeElement) Text() (string, error) {
	var text string
	err := el.doc.call("text", &text, jsText, el.ref)
	return text, err
}

func (el *chromeElement) run(op, fn string, args ...interface{}) error {
	var ok bool
	return el.doc.call(op, &ok, fn, append([]interface{}{el.ref}, args...)...)
}

func (el *chromeElement) Focus() error {
	return el.run("focus", jsFocus)
}

func (el *chromeElement) Click() error {
	return el.run("click", jsClick)
}

func (el *chromeElement) SetNativeValue(value string) error {
	return el.run("set value", jsSetNativeValue, value)
}

func (el *chromeElement) SetTextContent(value string) error {
	return el.run("set text", jsSetTextContent, value)
}

func (el *chromeElement) Dispatch(event Event) error {
	return el.run("dispatch "+event.Type, jsDispatch, event)
}

func (el *chromeElement) SetFiles(files ...File) error {
	return el.run("set files", jsSetFiles, files)
}
