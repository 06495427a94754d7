package autofill

import (
	"bytes"
	"net/url"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func shiftJIS(t *testing.T, s string) []byte {
	t.Helper()
	b, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestLoadStaticDocument_Charset(t *testing.T) {
	const title = "下書き"
	tests := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{
			name:        "utf-8",
			body:        []byte("<html><head><title>" + title + "</title></head></html>"),
			contentType: "text/html; charset=utf-8",
		},
		{
			name: "bom",
			body: append([]byte{0xEF, 0xBB, 0xBF}, []byte("<html><head><title>"+title+"</title></head></html>")...),
		},
		{
			name:        "content type",
			body:        shiftJIS(t, "<html><head><title>"+title+"</title></head></html>"),
			contentType: "text/html; charset=Shift_JIS",
		},
		{
			name: "meta charset",
			body: shiftJIS(t, `<html><head><meta charset="shift_jis"><title>`+title+`</title></head></html>`),
		},
		{
			name: "meta http-equiv",
			body: shiftJIS(t, `<html><head><meta http-equiv="Content-Type" content="text/html; charset=Shift_JIS"><title>`+title+`</title></head></html>`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := LoadStaticDocument(bytes.NewReader(tt.body), tt.contentType, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := doc.Find("title").Text(); got != title {
				t.Errorf("title = %q, want %q", got, title)
			}
		})
	}
}

func TestLoadStaticDocument_BaseURL(t *testing.T) {
	u, _ := url.Parse("https://gemini.google.com/app")
	doc, err := LoadStaticDocument(bytes.NewReader([]byte("<html></html>")), "", u)
	if err != nil {
		t.Fatal(err)
	}
	if doc.BaseUrl != u {
		t.Errorf("BaseUrl = %v, want %v", doc.BaseUrl, u)
	}
}

func TestCharsetFromContentType(t *testing.T) {
	tests := map[string]string{
		"text/html; charset=EUC-JP":    "EUC-JP",
		`text/html; charset="utf-8"`:   "utf-8",
		"text/html":                    "",
		"":                             "",
		"text/html;CHARSET=iso-8859-1": "iso-8859-1",
	}
	for contentType, want := range tests {
		if got := charsetFromContentType(contentType); got != want {
			t.Errorf("charsetFromContentType(%q) = %q, want %q", contentType, got, want)
		}
	}
}
