// Package event defines the values passed to extension event listeners.
package event

import (
	"net/mail"
	"time"
)

// InboundMessage contains the envelope and header data for a message that has completed the DATA
// phase but has not yet been stored.
type InboundMessage struct {
	From       mail.Address
	To         []mail.Address
	Recipients []string // Envelope recipients from RCPT TO, read only.
	Subject    string
	Size       int64 // Read only.
}

// MessageMetadata contains the basic header data for a stored message.
type MessageMetadata struct {
	ID      string
	From    *mail.Address
	To      []*mail.Address
	Date    time.Time
	Subject string
	Size    int64
}
