// Package sanitize cleans message HTML bodies before they are returned by the REST API.
package sanitize

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var policy = bluemonday.UGCPolicy().
	AllowElements("center").
	AllowAttrs("style").Matching(regexp.MustCompile(".*")).Globally()

// HTML removes scripts, event handlers and unsafe CSS declarations from body.  Inline style
// attributes are filtered declaration by declaration, so harmless styling survives.
func HTML(body string) (string, error) {
	buf := &bytes.Buffer{}
	if err := filterStyleAttrs(buf, strings.NewReader(body)); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// filterStyleAttrs copies the token stream from r to w, rewriting every start tag so that its
// style attribute holds only allowed declarations.
func filterStyleAttrs(w io.Writer, r io.Reader) error {
	bw := bufio.NewWriter(w)
	z := html.NewTokenizer(r)
	tag := make([]byte, 0, 256)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return bw.Flush()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				if _, err := bw.Write(z.Raw()); err != nil {
					return err
				}
				continue
			}
			tag = append(tag[:0], '<')
			tag = append(tag, name...)
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				tag = appendAttr(tag, key, string(val))
			}
			if tt == html.SelfClosingTagToken {
				tag = append(tag, '/')
			}
			if _, err := bw.Write(append(tag, '>')); err != nil {
				return err
			}

		default:
			if _, err := bw.Write(z.Raw()); err != nil {
				return err
			}
		}
	}
}

// appendAttr writes key="val" to tag, dropping style attributes left empty after filtering.
func appendAttr(tag, key []byte, val string) []byte {
	if strings.EqualFold(string(key), "style") {
		val = CSS(val)
		if val == "" {
			return tag
		}
	}
	tag = append(tag, ' ')
	tag = append(tag, key...)
	tag = append(tag, '=', '"')
	tag = append(tag, html.EscapeString(val)...)
	return append(tag, '"')
}
