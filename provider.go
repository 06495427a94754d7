package autofill

import (
	"net/url"
	"strings"
	"time"
)

// Provider identifies one destination AI chat web application.
type Provider string

const (
	ProviderChatGPT  Provider = "chatgpt"
	ProviderGemini   Provider = "gemini"
	ProviderClaude   Provider = "claude"
	ProviderAIStudio Provider = "aistudio"
)

// RankPolicy decides which prompt candidate wins when several survive the probe.
type RankPolicy int

const (
	RankFirst      RankPolicy = iota // first match in selector order
	RankBottomMost                   // closest to the viewport bottom, where chat composers live
)

// Timings holds the hydration and retry tuning of a provider.
type Timings struct {
	InitialDelay   time.Duration `yaml:"initialDelay"`
	PollInterval   time.Duration `yaml:"pollInterval"`
	MaxPolls       int           `yaml:"maxPolls"`
	VerifyInterval time.Duration `yaml:"verifyInterval"`
	SendDelay      time.Duration `yaml:"sendDelay"`
	SendInterval   time.Duration `yaml:"sendInterval"`
	MaxSends       int           `yaml:"maxSends"`
}

// ProviderProfile describes how to find and drive the composer of one provider.
type ProviderProfile struct {
	Provider Provider
	Name     string
	URL      string   // page opened for a new conversation
	Origins  []string // scheme://host prefixes the automation may run on

	PromptSelectors []string
	SendSelectors   []string

	// PromptScope is the closest() selector around an already located send button
	// searched before the whole document. Empty means document only.
	PromptScope string
	// SendScopes are closest() selectors around the prompt input, tried in order.
	SendScopes []string

	Rank             RankPolicy
	RequireUsable    bool // filter prompt candidates through IsUsable
	VerifyFill       bool // re-read the composer after injection and retry when empty
	KeyupAfterInput  bool
	AttachText       bool // raw text goes into input[type=file] when the page has one
	ObserveMutations bool // DOM mutations re-trigger the pending check
	EnterEvery       int  // press Enter on every Nth unsuccessful send tick, 0 never
	SendImmediately  bool // first send tick runs at once instead of after SendInterval

	Timings Timings
}

// DefaultTitle names attachments of uploads without a title.
const DefaultTitle = "SmartExtract"

var profiles = map[Provider]ProviderProfile{
	ProviderChatGPT: {
		Provider: ProviderChatGPT,
		Name:     "ChatGPT",
		URL:      "https://chatgpt.com/",
		Origins:  []string{"https://chatgpt.com", "https://chat.openai.com"},
		PromptSelectors: []string{
			"#prompt-textarea",
			"textarea#prompt-textarea",
			`[data-testid="composer-input"]`,
			`[data-testid*="composer"] div[contenteditable="true"]`,
			`div.ProseMirror[contenteditable='true']`,
			`div#prompt-textarea[contenteditable="true"]`,
			`div[contenteditable="true"][data-testid*="prompt"]`,
			`div[contenteditable="true"][aria-label*="Message"]`,
		},
		SendSelectors: []string{
			`button[data-testid="send-button"]`,
			`button[data-testid*="send"]`,
			`button[aria-label*="send"]`,
			`button[type="submit"]`,
			`button[aria-label*="Send"]`,
			`button[aria-label*="Kirim"]`,
		},
		PromptScope:     "form",
		SendScopes:      []string{"form"},
		Rank:            RankFirst,
		RequireUsable:   true,
		AttachText:      true,
		EnterEvery:      1,
		SendImmediately: true,
		Timings: Timings{
			InitialDelay:   900 * time.Millisecond,
			PollInterval:   400 * time.Millisecond,
			MaxPolls:       25,
			VerifyInterval: 300 * time.Millisecond,
			SendDelay:      600 * time.Millisecond,
			SendInterval:   300 * time.Millisecond,
			MaxSends:       15,
		},
	},
	ProviderGemini: {
		Provider: ProviderGemini,
		Name:     "Gemini",
		URL:      "https://gemini.google.com/app",
		Origins:  []string{"https://gemini.google.com"},
		PromptSelectors: []string{
			`rich-textarea div[contenteditable="true"]`,
			`div.ql-editor[contenteditable="true"]`,
			`div[contenteditable="true"][role="textbox"]`,
			`div[contenteditable="true"][aria-label*="prompt"]`,
			"textarea",
		},
		SendSelectors: []string{
			`button[aria-label*="Send"]`,
			`button[aria-label*="Kirim"]`,
			`button[data-test-id*="send"]`,
			`button[type="submit"]`,
		},
		PromptScope:     "form, main, body",
		SendScopes:      []string{"form", "main"},
		Rank:            RankFirst,
		RequireUsable:   true,
		SendImmediately: true,
		Timings: Timings{
			InitialDelay:   1000 * time.Millisecond,
			PollInterval:   400 * time.Millisecond,
			MaxPolls:       30,
			VerifyInterval: 300 * time.Millisecond,
			SendDelay:      700 * time.Millisecond,
			SendInterval:   300 * time.Millisecond,
			MaxSends:       18,
		},
	},
	ProviderClaude: {
		Provider: ProviderClaude,
		Name:     "Claude",
		URL:      "https://claude.ai/new",
		Origins:  []string{"https://claude.ai"},
		PromptSelectors: []string{
			"fieldset textarea",
			"textarea",
			`div[contenteditable="true"][role="textbox"]`,
		},
		SendSelectors: []string{
			`button[type="submit"]`,
			`button[aria-label*="Send"]`,
			`button[aria-label*="Kirim"]`,
		},
		SendScopes:    []string{"fieldset", "form"},
		Rank:          RankFirst,
		RequireUsable: true,
		Timings: Timings{
			InitialDelay:   900 * time.Millisecond,
			PollInterval:   400 * time.Millisecond,
			MaxPolls:       25,
			VerifyInterval: 300 * time.Millisecond,
			SendDelay:      600 * time.Millisecond,
			SendInterval:   300 * time.Millisecond,
			MaxSends:       15,
		},
	},
	ProviderAIStudio: {
		Provider: ProviderAIStudio,
		Name:     "Google AI Studio",
		URL:      "https://aistudio.google.com/prompts/new_chat",
		Origins:  []string{"https://aistudio.google.com"},
		PromptSelectors: []string{
			"ms-prompt-input textarea",
			"ms-autosize-textarea textarea",
			`textarea[aria-label*="prompt"]`,
			`textarea[aria-label*="Type"]`,
			`textarea[placeholder*="Enter"]`,
			`textarea[placeholder*="prompt"]`,
			`div[contenteditable="true"][role="textbox"]`,
			`div[contenteditable="true"][aria-label*="prompt"]`,
			"textarea",
		},
		SendSelectors: []string{
			`button[aria-label*="Run"]`,
			`button[aria-label*="Send"]`,
			`button[type="submit"]`,
			`button[data-testid*="send"]`,
			`button[mattooltip*="Run"]`,
		},
		SendScopes:       []string{"form", "ms-prompt-input", "main"},
		Rank:             RankBottomMost,
		RequireUsable:    true,
		VerifyFill:       true,
		KeyupAfterInput:  true,
		ObserveMutations: true,
		EnterEvery:       3,
		Timings: Timings{
			// new_chat and ?project= pages hydrate slowly
			InitialDelay:   1400 * time.Millisecond,
			PollInterval:   400 * time.Millisecond,
			MaxPolls:       45,
			VerifyInterval: 300 * time.Millisecond,
			SendDelay:      700 * time.Millisecond,
			SendInterval:   350 * time.Millisecond,
			MaxSends:       22,
		},
	},
}

// Providers returns every known provider in a stable order.
func Providers() []Provider {
	return []Provider{ProviderChatGPT, ProviderGemini, ProviderClaude, ProviderAIStudio}
}

// ParseProvider converts a name into a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := profiles[p]; !ok {
		return "", UnknownProviderError{Name: name}
	}
	return p, nil
}

// Profile returns a copy of the built-in profile of the provider.
func Profile(p Provider) (ProviderProfile, error) {
	profile, ok := profiles[p]
	if !ok {
		return ProviderProfile{}, UnknownProviderError{Name: string(p)}
	}
	profile.Origins = append([]string(nil), profile.Origins...)
	profile.PromptSelectors = append([]string(nil), profile.PromptSelectors...)
	profile.SendSelectors = append([]string(nil), profile.SendSelectors...)
	profile.SendScopes = append([]string(nil), profile.SendScopes...)
	return profile, nil
}

// MatchesURL reports whether the automation of this profile may run on pageURL.
func (profile ProviderProfile) MatchesURL(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return false
	}
	origin := strings.ToLower(u.Scheme + "://" + u.Host)
	for _, o := range profile.Origins {
		if strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
			return true
		}
	}
	return false
}

// ProviderForURL finds the provider whose origins match pageURL.
func ProviderForURL(pageURL string) (Provider, bool) {
	for _, p := range Providers() {
		if profiles[p].MatchesURL(pageURL) {
			return p, true
		}
	}
	return "", false
}

// SanitizeURL accepts only absolute http(s) URLs and returns them normalized.
func SanitizeURL(rawURL string) (string, bool) {
	value := strings.TrimSpace(rawURL)
	if value == "" {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
