// Package model defines the JSON documents of the REST API.
package model

import (
	"net/mail"
	"time"
)

// JSONMessageHeaderV1 contains the basic header data for a message.
type JSONMessageHeaderV1 struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	Date        time.Time `json:"date"`
	PosixMillis int64     `json:"posix-millis"`
	Size        int64     `json:"size"`
}

// JSONMessageV1 contains the same data as the header plus the envelope, body and MIME structure.
type JSONMessageV1 struct {
	ID          string                     `json:"id"`
	From        string                     `json:"from"`
	To          []string                   `json:"to"`
	Recipients  []string                   `json:"recipients"`
	Subject     string                     `json:"subject"`
	Date        time.Time                  `json:"date"`
	PosixMillis int64                      `json:"posix-millis"`
	Size        int64                      `json:"size"`
	Header      mail.Header                `json:"header"`
	Body        *JSONMessageBodyV1         `json:"body"`
	Attachments []*JSONMessageAttachmentV1 `json:"attachments"`
	Parts       []*JSONMessagePartV1       `json:"parts"`
	Errors      []string                   `json:"errors"`
}

// JSONMessageBodyV1 contains the text and sanitized HTML versions of the message body.  TextHTML
// is the text body rendered as HTML.
type JSONMessageBodyV1 struct {
	Text     string `json:"text"`
	HTML     string `json:"html"`
	TextHTML string `json:"text-html"`
}

// JSONMessageAttachmentV1 describes an attachment without its content.
type JSONMessageAttachmentV1 struct {
	FileName    string `json:"filename"`
	ContentType string `json:"content-type"`
	Size        int    `json:"size"`
	MD5         string `json:"md5"`
}

// JSONMessagePartV1 describes one node of the MIME part tree.
type JSONMessagePartV1 struct {
	Depth       int    `json:"depth"`
	ContentType string `json:"content-type"`
	Disposition string `json:"disposition,omitempty"`
	FileName    string `json:"filename,omitempty"`
	Size        int    `json:"size"`
}

// JSONMonitorEventV1 is sent to monitor WebSocket clients.
type JSONMonitorEventV1 struct {
	// Event variant: `message-deleted`, `message-stored`.
	Variant string               `json:"variant"`
	Header  *JSONMessageHeaderV1 `json:"header"`
}
