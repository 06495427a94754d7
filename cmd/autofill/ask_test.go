package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/koizuka/autofill"
)

func TestReadContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "article.md")
	if err := os.WriteFile(file, append([]byte{0xEF, 0xBB, 0xBF}, "from file"...), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		stdin    string
		file     string
		args     []string
		shouldBe string
		wantErr  bool
	}{
		{name: "file wins over args", stdin: "from stdin", file: file, args: []string{"from", "args"}, shouldBe: "from file"},
		{name: "dash reads stdin", stdin: "from stdin", file: "-", args: []string{"ignored"}, shouldBe: "from stdin"},
		{name: "args joined", stdin: "from stdin", args: []string{"from", "args"}, shouldBe: "from args"},
		{name: "stdin last", stdin: "\xEF\xBB\xBFfrom stdin", shouldBe: "from stdin"},
		{name: "missing file", file: filepath.Join(dir, "none.md"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readContent(strings.NewReader(tt.stdin), tt.file, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readContent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.shouldBe, got); diff != "" {
				t.Errorf("(-shouldBe +got)\n%v", diff)
			}
		})
	}
}

func TestWaitDispatched(t *testing.T) {
	filled := &autofill.SessionReport{Provider: autofill.ProviderClaude, Outcome: autofill.OutcomeFilled}
	notFound := &autofill.SessionReport{Provider: autofill.ProviderClaude, Outcome: autofill.OutcomeInputNotFound}
	clicked := &autofill.SendReport{Provider: autofill.ProviderClaude, Outcome: autofill.SendClicked, Attempts: 1}
	exhausted := &autofill.SendReport{Provider: autofill.ProviderClaude, Outcome: autofill.SendExhausted, Attempts: 15}

	tests := []struct {
		name      string
		results   []pageResult
		cancel    bool
		closeTab  bool
		wantErr   string
		remaining int
	}{
		{name: "filled then clicked", results: []pageResult{{session: filled}, {send: clicked}}},
		{name: "session failure ends the wait before any send", results: []pageResult{{session: notFound}, {send: clicked}}, wantErr: "prompt not filled: input-not-found", remaining: 1},
		{name: "send exhausted", results: []pageResult{{session: filled}, {send: exhausted}}, wantErr: "send exhausted after 15 attempt(s)"},
		{name: "interrupted", cancel: true, wantErr: context.Canceled.Error()},
		{name: "browser closed", closeTab: true, wantErr: "browser closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan pageResult, len(tt.results))
			for _, r := range tt.results {
				results <- r
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			tabCtx, closeTab := context.WithCancel(context.Background())
			defer closeTab()
			if tt.cancel {
				cancel()
			}
			if tt.closeTab {
				closeTab()
			}

			err := waitDispatched(ctx, tabCtx, results)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("waitDispatched() error = %v", err)
				}
			} else if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("waitDispatched() error = %v, want %q", err, tt.wantErr)
			}
			if len(results) != tt.remaining {
				t.Errorf("%d results left unread, want %d", len(results), tt.remaining)
			}
		})
	}
}

func TestDeliver(t *testing.T) {
	upload := autofill.PendingUpload{Provider: autofill.ProviderChatGPT, Prompt: "ringkas ini"}
	var copied []string
	copyToClipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	t.Cleanup(func() { copyToClipboard = defaultCopyToClipboard })
	t.Cleanup(func() { cfg = autofill.DefaultConfig() })

	t.Run("stored", func(t *testing.T) {
		copied = nil
		cfg = autofill.DefaultConfig()
		cfg.Store.Path = filepath.Join(t.TempDir(), "autofill.db")

		store, err := deliver(context.Background(), upload)
		if err != nil || store == nil {
			t.Fatalf("deliver() = %v, %v", store, err)
		}
		defer store.Close()
		got, err := autofill.LoadPendingUpload(context.Background(), store)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || *got != upload {
			t.Errorf("stored %v, want %v", got, upload)
		}
		if len(copied) != 0 {
			t.Errorf("clipboard used although the store worked: %q", copied)
		}
	})

	// a regular file where the store directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("clipboard fallback", func(t *testing.T) {
		copied = nil
		cfg = autofill.DefaultConfig()
		cfg.Store.Path = filepath.Join(blocker, "autofill.db")

		store, err := deliver(context.Background(), upload)
		if err != nil || store != nil {
			t.Fatalf("deliver() = %v, %v", store, err)
		}
		if diff := cmp.Diff([]string{"ringkas ini"}, copied); diff != "" {
			t.Errorf("(-shouldBe +got)\n%v", diff)
		}
	})

	t.Run("clipboard unavailable", func(t *testing.T) {
		cfg = autofill.DefaultConfig()
		cfg.Store.Path = filepath.Join(blocker, "autofill.db")
		copyToClipboard = func(string) error { return errors.New("no xclip") }

		if _, err := deliver(context.Background(), upload); err == nil {
			t.Error("deliver() succeeded with neither store nor clipboard")
		}
	})
}
