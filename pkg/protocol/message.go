package protocol

import (
	"strings"
)

// CRLF terminates lines in the reconstructed body and raw text.
const CRLF = "\r\n"

// Header is an ordered collection of header values.  A name may carry several values, kept in
// the order received.  Lookups ignore case; Keys reports each name as first received.
type Header struct {
	keys   []string
	values map[string][]string
}

// Add appends value to the values for name, preserving any existing values.
func (h *Header) Add(name, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	k := strings.ToLower(name)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, name)
	}
	h.values[k] = append(h.values[k], value)
}

// Get returns the first value for name, or "" if none.
func (h Header) Get(name string) string {
	if vs := h.values[strings.ToLower(name)]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns all values for name, in the order received.
func (h Header) Values(name string) []string {
	vs := h.values[strings.ToLower(name)]
	if vs == nil {
		return nil
	}
	return append([]string(nil), vs...)
}

// Keys returns the header names in the order first received.
func (h Header) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Len returns the number of distinct header names.
func (h Header) Len() int {
	return len(h.keys)
}

// Message is a message reconstructed from the DATA phase of a session.
type Message struct {
	Header        Header
	Body          string // Body lines joined by CRLF.
	BodyLineCount int
	Raw           string // Header lines, blank separator and body lines as transmitted.
}

// IsMultipart reports whether the Content-Type header declares a multipart message.
func (m *Message) IsMultipart() bool {
	for _, v := range m.Header.Values("Content-Type") {
		if strings.Contains(strings.ToLower(v), "multipart") {
			return true
		}
	}
	return false
}

// String renders the headers, a blank line, then the body.
func (m *Message) String() string {
	b := &strings.Builder{}
	for _, name := range m.Header.Keys() {
		for _, v := range m.Header.Values(name) {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	b.WriteString(m.Body)
	b.WriteByte('\n')
	return b.String()
}
