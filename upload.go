package autofill

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PendingUploadKey is the store key of the pending upload record.
const PendingUploadKey = "pendingAIUpload"

// PendingUpload is the record handed from the collaborator to the automation core.
type PendingUpload struct {
	Provider Provider `json:"provider"`
	Prompt   string   `json:"prompt,omitempty"`
	Text     string   `json:"text,omitempty"` // raw extracted text, attached as a file where supported
	Title    string   `json:"title,omitempty"`
}

// DecodePendingUpload parses a stored record.
func DecodePendingUpload(data []byte) (*PendingUpload, error) {
	var upload PendingUpload
	if err := json.Unmarshal(data, &upload); err != nil {
		return nil, fmt.Errorf("pending upload: %w", err)
	}
	return &upload, nil
}

// LoadPendingUpload returns the stored record, or nil when there is none.
func LoadPendingUpload(ctx context.Context, store Store) (*PendingUpload, error) {
	data, ok, err := store.Get(ctx, PendingUploadKey)
	if err != nil || !ok {
		return nil, err
	}
	return DecodePendingUpload(data)
}

// SavePendingUpload writes the record, replacing any previous one.
func SavePendingUpload(ctx context.Context, store Store, upload PendingUpload) error {
	data, err := json.Marshal(upload)
	if err != nil {
		return err
	}
	return store.Set(ctx, PendingUploadKey, data)
}

// ClearPendingUpload removes the record.
func ClearPendingUpload(ctx context.Context, store Store) error {
	return store.Remove(ctx, PendingUploadKey)
}

// Payload is what a session puts into the page.
type Payload struct {
	Visible string // text for the composer; empty means no injection
	File    *File  // attachment, nil when none
}

// Empty reports whether there is nothing to put into the page.
func (payload Payload) Empty() bool {
	return payload.Visible == "" && payload.File == nil
}

// ComposePayload decides what goes where. canAttach tells whether the page
// exposes a file input and the profile attaches raw text.
func (upload PendingUpload) ComposePayload(attachText, canAttach bool) Payload {
	if !attachText || upload.Text == "" {
		visible := upload.Prompt
		if visible == "" {
			visible = upload.Text
		}
		return Payload{Visible: visible}
	}

	if canAttach {
		file := TextFile(upload.Text, upload.Title)
		return Payload{Visible: upload.Prompt, File: &file}
	}

	if upload.Prompt == "" {
		return Payload{Visible: upload.Text}
	}
	return Payload{Visible: strings.TrimSpace(upload.Prompt + "\n\n---\n" + upload.Text)}
}

var unsafeFilenameChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// AttachmentName derives the .txt filename of an attachment from a title.
func AttachmentName(title string) string {
	if title == "" {
		title = DefaultTitle
	}
	return unsafeFilenameChars.ReplaceAllString(title, "_") + ".txt"
}

// TextFile wraps raw text into a plain text attachment.
func TextFile(text, title string) File {
	return File{Name: AttachmentName(title), MimeType: "text/plain", Content: text}
}

// BuildUpload prepares the record for profile from an instruction and the
// content it applies to. With attach set, providers that take attachments
// also receive the raw content as a file.
func BuildUpload(profile ProviderProfile, instruction, content string, meta SourceMeta, attach bool) PendingUpload {
	upload := PendingUpload{
		Provider: profile.Provider,
		Prompt:   BuildPromptWithContext(instruction, content, meta),
		Title:    meta.Title,
	}
	if attach && profile.AttachText {
		upload.Text = content
	}
	return upload
}
