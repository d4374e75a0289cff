package mail

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	FromName  string
	To        []string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32

	// ListUnsubscribe is the raw List-Unsubscribe header value, empty
	// when the message carries no list headers.
	ListUnsubscribe string

	// ListUnsubscribePost is true when the sender advertises RFC 8058
	// one-click unsubscribe via List-Unsubscribe-Post.
	ListUnsubscribePost bool
}

// ParsedMessage holds the full parsed content of an email message.
type ParsedMessage struct {
	Envelope    Envelope
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment holds metadata about a message attachment.
type Attachment struct {
	Filename string
	Size     int64
	MIMEType string
}
