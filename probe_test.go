package autofill

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsVisible(t *testing.T) {
	visible := ElementState{Tag: "TEXTAREA", Width: 100, Height: 20, Display: "block", Visibility: "visible"}
	tests := []struct {
		name   string
		modify func(*ElementState)
		want   bool
	}{
		{"rendered", func(*ElementState) {}, true},
		{"zero width", func(s *ElementState) { s.Width = 0 }, false},
		{"zero height", func(s *ElementState) { s.Height = 0 }, false},
		{"display none", func(s *ElementState) { s.Display = "none" }, false},
		{"visibility hidden", func(s *ElementState) { s.Visibility = "hidden" }, false},
		{"aria hidden", func(s *ElementState) { s.AriaHidden = "true" }, false},
		{"aria hidden false", func(s *ElementState) { s.AriaHidden = "false" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := visible
			tt.modify(&state)
			if got := IsVisible(state); got != tt.want {
				t.Errorf("IsVisible(%+v) = %v, want %v", state, got, tt.want)
			}
		})
	}
}

func TestIsUsable(t *testing.T) {
	doc := mustStaticDocument(t, `<html><body>
		<textarea id="plain"></textarea>
		<textarea id="disabled" disabled></textarea>
		<textarea id="readonly" readonly></textarea>
		<input id="text" type="text">
		<div style="display: none"><textarea id="under-hidden"></textarea></div>
		<div style="visibility: hidden"><textarea id="invisible"></textarea></div>
		<textarea id="aria" aria-hidden="true"></textarea>
		<textarea id="hidden-attr" hidden></textarea>
		<div id="editable" contenteditable="true"><p id="inside">x</p></div>
		<div id="not-editable" contenteditable="false"></div>
		<div id="plain-div"></div>
	</body></html>`)

	tests := []struct {
		id   string
		want bool
	}{
		{"plain", true},
		{"disabled", false},
		{"readonly", false},
		{"text", true},
		{"under-hidden", false},
		{"invisible", false},
		{"aria", false},
		{"hidden-attr", false},
		{"editable", true},
		{"inside", true},
		{"not-editable", false},
		{"plain-div", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			el := doc.Element("#" + tt.id)
			if el == nil {
				t.Fatalf("#%v not found", tt.id)
			}
			state, err := el.State()
			if err != nil {
				t.Fatal(err)
			}
			if got := IsUsable(state); got != tt.want {
				t.Errorf("IsUsable(%+v) = %v, want %v", state, got, tt.want)
			}
		})
	}
}

func TestProbeDocument(t *testing.T) {
	doc := mustStaticDocument(t, `<html><body><main>
		<fieldset>
			<textarea id="composer"></textarea>
			<button type="submit" aria-label="Send message">Send</button>
		</fieldset>
		<textarea id="other" disabled></textarea>
	</main></body></html>`)
	profile := mustProfile(t, ProviderClaude)

	report, err := ProbeDocument(doc, profile)
	if err != nil {
		t.Fatal(err)
	}

	type row struct {
		Kind     string
		Selector string
		Matches  int
		Usable   int
	}
	var got []row
	for _, r := range report.Selectors {
		if r.Err != nil {
			t.Errorf("%v: %v", r.Selector, r.Err)
		}
		got = append(got, row{r.Kind, r.Selector, r.Matches, r.Usable})
	}
	shouldBe := []row{
		{"prompt", "fieldset textarea", 1, 1},
		{"prompt", "textarea", 2, 1},
		{"prompt", `div[contenteditable="true"][role="textbox"]`, 0, 0},
		{"send", `button[type="submit"]`, 1, 1},
		{"send", `button[aria-label*="Send"]`, 1, 1},
		{"send", `button[aria-label*="Kirim"]`, 0, 0},
	}
	if diff := cmp.Diff(shouldBe, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
	if report.Prompt == nil || report.Prompt.Tag != "TEXTAREA" {
		t.Errorf("Prompt = %+v, want the textarea", report.Prompt)
	}
	if report.Send == nil || report.Send.Tag != "BUTTON" {
		t.Errorf("Send = %+v, want the button", report.Send)
	}
}

func TestProbeDocument_InvalidSelector(t *testing.T) {
	doc := mustStaticDocument(t, `<html><body><textarea></textarea></body></html>`)
	profile := mustProfile(t, ProviderClaude)
	profile.PromptSelectors = []string{"textarea[", "textarea"}

	report, err := ProbeDocument(doc, profile)
	if err == nil {
		t.Fatal("expected the resolver to fail on an invalid selector")
	}
	if len(report.Selectors) == 0 || report.Selectors[0].Err == nil {
		t.Errorf("expected the invalid selector row to carry the error: %+v", report.Selectors)
	}
}
