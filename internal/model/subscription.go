package model

import "time"

// UnsubscribeMethod describes how a subscription can be cancelled.
const (
	UnsubscribeMethodOneClick = "one_click"
	UnsubscribeMethodMailto   = "mailto"
)

// Subscription is a mailing-list sender discovered from message headers.
// One row exists per sender address; the unsubscribe dispatcher resolves
// the matching row by the item's sender.
type Subscription struct {
	// ID is the unique identifier for this subscription record.
	ID string `json:"id"`

	// Sender is the list's From address.
	Sender string `json:"sender"`

	// UnsubscribeURL is the https URL from the List-Unsubscribe header.
	UnsubscribeURL string `json:"unsubscribe_url"`

	// UnsubscribeMailto is the mailto target, when no URL is present.
	UnsubscribeMailto string `json:"unsubscribe_mailto"`

	// OneClick reports whether List-Unsubscribe-Post: List-Unsubscribe=One-Click
	// was advertised, allowing an unattended POST.
	OneClick bool `json:"one_click"`

	// Unsubscribed is set once an unsubscribe has completed.
	Unsubscribed bool `json:"unsubscribed"`

	// CreatedAt is when the subscription was first seen.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
