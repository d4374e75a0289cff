package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/hqv/mailsweep/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// source. It is returned by source clients when the server rejects the
// configured credentials.
type AuthError struct {
	SourceType model.SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FetchResult holds the items returned from a source fetch, along with
// any mailing-list subscriptions discovered in their headers.
type FetchResult struct {
	Items         []model.Item
	Subscriptions []model.Subscription
}

// ItemDetail extends an Item with the rendered message body and
// metadata available when viewing a single message in detail.
type ItemDetail struct {
	model.Item

	// RenderedBody is the message body formatted for terminal display.
	RenderedBody string

	// Metadata holds arbitrary key-value pairs from the source
	// (e.g., recipients, flags, attachment listing).
	Metadata map[string]string
}

// Source defines the contract that every mail integration must implement.
type Source interface {
	// Type returns the source type identifier.
	Type() model.SourceType

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchItems retrieves recent messages from the source, up to limit.
	FetchItems(ctx context.Context, limit int) (*FetchResult, error)

	// GetItemDetail retrieves the full message for a single item.
	GetItemDetail(ctx context.Context, sourceItemID string) (*ItemDetail, error)

	// ApplyTriage applies a categorization to a message in the backing
	// mailbox: done archives it, reply_needed flags it for follow-up.
	ApplyTriage(ctx context.Context, sourceItemID string, action model.TriageAction) error
}
