package autofill

import (
	"testing"
)

func elementID(t *testing.T, doc *StaticDocument, selector string) string {
	t.Helper()
	el := doc.Element(selector)
	if el == nil {
		t.Fatalf("%v not found", selector)
	}
	return el.ID()
}

func TestFindPromptInput(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		rank     *RankPolicy
		markup   string
		want     string // selector of the expected element, empty for none
	}{
		{
			name:     "chatgpt prefers the form holding the send button",
			provider: ProviderChatGPT,
			markup: `<html><body>
				<form id="search"><textarea id="prompt-textarea"></textarea></form>
				<form id="chat">
					<div id="composer" class="ProseMirror" contenteditable="true"></div>
					<button data-testid="send-button">Send</button>
				</form>
			</body></html>`,
			want: "#composer",
		},
		{
			name:     "chatgpt skips unusable candidates",
			provider: ProviderChatGPT,
			markup: `<html><body>
				<textarea id="prompt-textarea" style="display:none"></textarea>
				<div id="composer" class="ProseMirror" contenteditable="true"></div>
			</body></html>`,
			want: "#composer",
		},
		{
			name:     "gemini contenteditable inside rich-textarea",
			provider: ProviderGemini,
			markup: `<html><body><main>
				<rich-textarea><div id="editor" class="ql-editor" contenteditable="true" role="textbox"></div></rich-textarea>
			</main></body></html>`,
			want: "#editor",
		},
		{
			name:     "claude textarea in fieldset",
			provider: ProviderClaude,
			markup: `<html><body>
				<textarea id="search" disabled></textarea>
				<fieldset><textarea id="composer"></textarea></fieldset>
			</body></html>`,
			want: "#composer",
		},
		{
			name:     "aistudio picks the bottom-most composer",
			provider: ProviderAIStudio,
			markup: `<html><body>
				<ms-prompt-input><textarea id="top"></textarea></ms-prompt-input>
				<section><p>history</p><p>history</p></section>
				<div id="bottom" contenteditable="true" role="textbox"></div>
			</body></html>`,
			want: "#bottom",
		},
		{
			name:     "first rank keeps selector order",
			provider: ProviderAIStudio,
			rank:     func() *RankPolicy { r := RankFirst; return &r }(),
			markup: `<html><body>
				<ms-prompt-input><textarea id="top"></textarea></ms-prompt-input>
				<div id="bottom" contenteditable="true" role="textbox"></div>
			</body></html>`,
			want: "#top",
		},
		{
			name:     "nothing rendered yet",
			provider: ProviderGemini,
			markup:   `<html><body><main><div class="spinner"></div></main></body></html>`,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustStaticDocument(t, tt.markup)
			profile := mustProfile(t, tt.provider)
			if tt.rank != nil {
				profile.Rank = *tt.rank
			}

			got, err := FindPromptInput(doc, profile)
			if err != nil {
				t.Fatalf("FindPromptInput() error: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("FindPromptInput() = %v, want nil", got.ID())
				}
				return
			}
			if got == nil {
				t.Fatalf("FindPromptInput() = nil, want %v", tt.want)
			}
			if want := elementID(t, doc, tt.want); got.ID() != want {
				state, _ := got.State()
				t.Errorf("FindPromptInput() picked a %v, want %v", state.Tag, tt.want)
			}
		})
	}
}

func TestFindSendButton(t *testing.T) {
	markup := `<html><body>
		<form id="other"><button id="other-send" type="submit">Go</button></form>
		<fieldset>
			<textarea id="composer"></textarea>
			<button id="send" type="submit" aria-label="Send message"></button>
		</fieldset>
	</body></html>`

	t.Run("scoped to the composer", func(t *testing.T) {
		doc := mustStaticDocument(t, markup)
		profile := mustProfile(t, ProviderClaude)
		got, err := FindSendButton(doc, profile, doc.Element("#composer"))
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID() != elementID(t, doc, "#send") {
			t.Errorf("FindSendButton() did not return #send")
		}
	})

	t.Run("no context searches the document", func(t *testing.T) {
		doc := mustStaticDocument(t, markup)
		profile := mustProfile(t, ProviderClaude)
		got, err := FindSendButton(doc, profile, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID() != elementID(t, doc, "#other-send") {
			t.Errorf("FindSendButton() did not return #other-send")
		}
	})

	t.Run("disabled button in scope falls back to document", func(t *testing.T) {
		doc := mustStaticDocument(t, markup)
		if err := doc.SetAttr("#send", "disabled", ""); err != nil {
			t.Fatal(err)
		}
		profile := mustProfile(t, ProviderClaude)
		got, err := FindSendButton(doc, profile, doc.Element("#composer"))
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID() != elementID(t, doc, "#other-send") {
			t.Errorf("FindSendButton() did not return #other-send")
		}
	})

	t.Run("only hidden buttons", func(t *testing.T) {
		doc := mustStaticDocument(t, `<html><body>
			<textarea id="composer"></textarea>
			<button type="submit" style="display:none">Send</button>
			<a type="submit" aria-label="Send">Send</a>
		</body></html>`)
		profile := mustProfile(t, ProviderClaude)
		got, err := FindSendButton(doc, profile, doc.Element("#composer"))
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Errorf("FindSendButton() = %v, want nil", got.ID())
		}
	})
}
