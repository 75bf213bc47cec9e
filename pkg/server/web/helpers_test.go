package web

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextToHTML(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"html", "html"},
		{"<html>", "&lt;html&gt;"},
		{"line\nbreak", "line<br/>\nbreak"},
		{"line\r\nbreak", "line<br/>\nbreak"},
		{"line\rbreak", "line<br/>\nbreak"},
		{
			"http://google.com/",
			`<a href="http://google.com/" target="_blank">http://google.com/</a>`,
		},
		{
			"http://a.com/?q=a&n=v",
			`<a href="http://a.com/?q=a&n=v" target="_blank">http://a.com/?q=a&amp;n=v</a>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, TextToHTML(tc.input))
		})
	}
}

func TestRenderJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, RenderJSON(w, map[string]int{"count": 3}))

	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count": 3}`, w.Body.String())
}
