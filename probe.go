package autofill

// IsVisible reports whether the element is rendered with a non-empty box
// and is not hidden from layout or from assistive technology.
func IsVisible(state ElementState) bool {
	if state.Width <= 0 || state.Height <= 0 {
		return false
	}
	if state.Display == "none" || state.Visibility == "hidden" {
		return false
	}
	return state.AriaHidden != "true"
}

// IsUsable reports whether text can be typed into the element right now.
func IsUsable(state ElementState) bool {
	if !IsVisible(state) {
		return false
	}
	if state.IsNativeInput() {
		return !state.Disabled && !state.ReadOnly
	}
	return state.ContentEditable
}

// isClickable is the send button predicate.
func isClickable(state ElementState) bool {
	return state.Tag == "BUTTON" && IsVisible(state) && !state.Disabled
}

// SelectorReport counts what one selector of a profile matches on a page.
type SelectorReport struct {
	Kind     string // "prompt" or "send"
	Selector string
	Matches  int
	Usable   int // usable composers, or clickable buttons
	Err      error
}

// ProbeReport is a dry run of the resolver against a page.
type ProbeReport struct {
	Provider  Provider
	Selectors []SelectorReport
	Prompt    *ElementState // winning composer, nil when none
	Send      *ElementState // send button next to it, nil when none
}

// ProbeDocument runs the selectors of profile against doc without touching
// the page.
func ProbeDocument(doc Document, profile ProviderProfile) (ProbeReport, error) {
	report := ProbeReport{Provider: profile.Provider}
	count := func(kind, selector string, ok func(ElementState) bool) {
		row := SelectorReport{Kind: kind, Selector: selector}
		elements, err := doc.QueryAll(selector)
		if err != nil {
			row.Err = err
			report.Selectors = append(report.Selectors, row)
			return
		}
		row.Matches = len(elements)
		for _, el := range elements {
			state, err := el.State()
			if err != nil {
				row.Err = err
				continue
			}
			if ok(state) {
				row.Usable++
			}
		}
		report.Selectors = append(report.Selectors, row)
	}
	for _, selector := range profile.PromptSelectors {
		count("prompt", selector, IsUsable)
	}
	for _, selector := range profile.SendSelectors {
		count("send", selector, isClickable)
	}

	input, err := FindPromptInput(doc, profile)
	if err != nil {
		return report, err
	}
	if input != nil {
		state, err := input.State()
		if err != nil {
			return report, err
		}
		report.Prompt = &state
	}
	button, err := FindSendButton(doc, profile, input)
	if err != nil {
		return report, err
	}
	if button != nil {
		state, err := button.State()
		if err != nil {
			return report, err
		}
		report.Send = &state
	}
	return report, nil
}
