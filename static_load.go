package autofill

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dimchansky/utfbom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// charsetEncoding parses charset string and returns encoding.Encoding.
// UTF-8 and unknown labels return nil.
func charsetEncoding(charset string) encoding.Encoding {
	label := strings.ToLower(strings.TrimSpace(charset))
	if label == "" || label == "utf-8" || label == "utf8" {
		return nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil
	}
	return enc
}

// convertEncodingToUtf8 converts body(given encoding) to UTF-8.
func convertEncodingToUtf8(body []byte, enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return body, nil
	}
	b, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, err
	}
	return b, nil
}

var charsetPattern = regexp.MustCompile(`(?i)\bcharset=["']?([\w-]+)`)

func charsetFromContentType(contentType string) string {
	m := charsetPattern.FindStringSubmatch(contentType)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// metaCharset finds the charset a page declares in its head.
func metaCharset(doc *goquery.Document) string {
	if charset, ok := doc.Find("head meta[charset]").Attr("charset"); ok {
		return charset
	}
	if content, ok := doc.Find("head meta[http-equiv]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("http-equiv")
		return strings.EqualFold(v, "Content-Type")
	}).Attr("content"); ok {
		return charsetFromContentType(content)
	}
	return ""
}

// LoadStaticDocument reads a saved page. The charset comes from contentType,
// else from the page's meta tags; a leading BOM is dropped.
func LoadStaticDocument(r io.Reader, contentType string, pageURL *url.URL) (*StaticDocument, error) {
	body, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, err
	}

	enc := charsetEncoding(charsetFromContentType(contentType))
	if enc == nil {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		enc = charsetEncoding(metaCharset(doc))
		if enc == nil {
			doc.Url = pageURL
			return newStaticDocument(doc), nil
		}
	}

	body, err = convertEncodingToUtf8(body, enc)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc.Url = pageURL
	return newStaticDocument(doc), nil
}
