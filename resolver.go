package autofill

import (
	"fmt"
	"sort"
)

type candidate struct {
	element Element
	state   ElementState
}

// FindPromptInput locates the composer of the provider. It returns nil, nil
// when nothing usable is on the page yet.
func FindPromptInput(doc Document, profile ProviderProfile) (Element, error) {
	var candidates []candidate
	seen := map[string]bool{}

	collect := func(elements []Element) error {
		for _, el := range elements {
			if seen[el.ID()] {
				continue
			}
			seen[el.ID()] = true
			state, err := el.State()
			if err != nil {
				return err
			}
			if profile.RequireUsable && !IsUsable(state) {
				continue
			}
			candidates = append(candidates, candidate{el, state})
		}
		return nil
	}

	if profile.PromptScope != "" {
		scope, err := promptScope(doc, profile)
		if err != nil {
			return nil, err
		}
		if scope != nil {
			for _, selector := range profile.PromptSelectors {
				elements, err := scope.QueryAll(selector)
				if err != nil {
					return nil, fmt.Errorf("%v: %w", selector, err)
				}
				if err := collect(elements); err != nil {
					return nil, err
				}
				if len(candidates) > 0 && profile.Rank == RankFirst {
					return candidates[0].element, nil
				}
			}
		}
	}

	for _, selector := range profile.PromptSelectors {
		elements, err := doc.QueryAll(selector)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", selector, err)
		}
		if err := collect(elements); err != nil {
			return nil, err
		}
		if len(candidates) > 0 && profile.Rank == RankFirst {
			return candidates[0].element, nil
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}
	if profile.Rank == RankBottomMost {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].state.Bottom > candidates[j].state.Bottom
		})
	}
	return candidates[0].element, nil
}

// promptScope is the container around the first send button, if any.
func promptScope(doc Document, profile ProviderProfile) (Element, error) {
	for _, selector := range profile.SendSelectors {
		buttons, err := doc.QueryAll(selector)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", selector, err)
		}
		for _, button := range buttons {
			state, err := button.State()
			if err != nil {
				return nil, err
			}
			if state.Tag != "BUTTON" {
				continue
			}
			return button.Closest(profile.PromptScope)
		}
	}
	return nil, nil
}

// FindSendButton returns the first visible, enabled send button, searching
// the containers of context before the whole document. context may be nil.
func FindSendButton(doc Document, profile ProviderProfile, context Element) (Element, error) {
	if context != nil {
		for _, scopeSelector := range profile.SendScopes {
			scope, err := context.Closest(scopeSelector)
			if err != nil {
				return nil, err
			}
			if scope == nil {
				continue
			}
			button, err := firstClickable(scope, profile.SendSelectors)
			if err != nil || button != nil {
				return button, err
			}
		}
	}
	return firstClickable(doc, profile.SendSelectors)
}

type queryable interface {
	QueryAll(selector string) ([]Element, error)
}

func firstClickable(root queryable, selectors []string) (Element, error) {
	for _, selector := range selectors {
		elements, err := root.QueryAll(selector)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", selector, err)
		}
		for _, el := range elements {
			state, err := el.State()
			if err != nil {
				return nil, err
			}
			if isClickable(state) {
				return el, nil
			}
		}
	}
	return nil, nil
}
