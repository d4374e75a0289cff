package mail

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source"
)

// Adapter implements source.Source for IMAP mailboxes.
type Adapter struct {
	client   *IMAPClient
	sourceID string
	username string
}

// NewAdapter creates a new IMAP source adapter.
func NewAdapter(
	host, port string,
	username, password string,
	mailbox string,
	useTLS bool,
	sourceID string,
) *Adapter {
	return &Adapter{
		client:   NewIMAPClient(host, port, username, password, mailbox, useTLS),
		sourceID: sourceID,
		username: username,
	}
}

// Type returns the source type identifier for IMAP.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeIMAP
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting the mailbox. Returns the username on
// success.
func (a *Adapter) ValidateConnection(
	ctx context.Context,
) (string, error) {
	client, err := a.client.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating mail connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(a.client.mailbox, nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting %s: %w", a.client.mailbox, err)
	}

	return a.username, nil
}

// FetchItems retrieves recent messages from the mailbox and maps them
// to triage items, collecting any subscriptions discovered in
// List-Unsubscribe headers along the way.
func (a *Adapter) FetchItems(
	ctx context.Context,
	limit int,
) (*source.FetchResult, error) {
	if limit < 1 {
		limit = 100
	}

	envelopes, err := a.client.FetchEnvelopes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching mail items: %w", err)
	}

	result := &source.FetchResult{
		Items: make([]model.Item, 0, len(envelopes)),
	}
	seenSenders := make(map[string]bool)

	for _, env := range envelopes {
		result.Items = append(result.Items, a.envelopeToItem(env))

		if env.ListUnsubscribe == "" || seenSenders[env.From] {
			continue
		}
		seenSenders[env.From] = true

		targets := ParseListUnsubscribe(env.ListUnsubscribe)
		if targets.URL == "" && targets.Mailto == "" {
			continue
		}
		result.Subscriptions = append(result.Subscriptions, model.Subscription{
			Sender:            env.From,
			UnsubscribeURL:    targets.URL,
			UnsubscribeMailto: targets.Mailto,
			OneClick:          env.ListUnsubscribePost && targets.URL != "",
		})
	}

	return result, nil
}

// GetItemDetail retrieves the full message body for a given UID and
// returns it as an ItemDetail.
func (a *Adapter) GetItemDetail(
	ctx context.Context,
	sourceItemID string,
) (*source.ItemDetail, error) {
	uid, err := parseUID(sourceItemID)
	if err != nil {
		return nil, err
	}

	parsed, err := a.client.FetchMessage(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf(
			"fetching mail detail %s: %w", sourceItemID, err,
		)
	}

	item := a.envelopeToItem(parsed.Envelope)

	// Prefer plain text body; fall back to stripped HTML
	renderedBody := parsed.TextBody
	if renderedBody == "" && parsed.HTMLBody != "" {
		renderedBody = stripHTML(parsed.HTMLBody)
	}

	metadata := make(map[string]string)
	if parsed.Envelope.MessageID != "" {
		metadata["Message-ID"] = parsed.Envelope.MessageID
	}
	if len(parsed.Envelope.To) > 0 {
		metadata["To"] = strings.Join(parsed.Envelope.To, ", ")
	}
	if len(parsed.Envelope.Flags) > 0 {
		metadata["Flags"] = strings.Join(parsed.Envelope.Flags, ", ")
	}
	if parsed.Envelope.ListUnsubscribe != "" {
		metadata["List-Unsubscribe"] = parsed.Envelope.ListUnsubscribe
	}

	// List attachments in metadata
	if len(parsed.Attachments) > 0 {
		var parts []string
		for _, att := range parsed.Attachments {
			parts = append(parts, fmt.Sprintf(
				"%s (%s, %s)",
				att.Filename, att.MIMEType, formatSize(att.Size),
			))
		}
		metadata["Attachments"] = strings.Join(parts, "; ")
	}

	return &source.ItemDetail{
		Item:         item,
		RenderedBody: renderedBody,
		Metadata:     metadata,
	}, nil
}

// ApplyTriage applies a categorization to the message in the mailbox.
// Done (including the unsubscribe-then-done path) marks the message
// seen and archives it; reply_needed flags it for follow-up.
func (a *Adapter) ApplyTriage(
	ctx context.Context,
	sourceItemID string,
	action model.TriageAction,
) error {
	uid, err := parseUID(sourceItemID)
	if err != nil {
		return err
	}

	switch action {
	case model.ActionDone:
		if err := a.client.SetFlags(
			ctx, uid, []imap.Flag{imap.FlagSeen}, true,
		); err != nil {
			return fmt.Errorf("marking %s seen: %w", sourceItemID, err)
		}
		return a.client.MoveToArchive(ctx, uid)

	case model.ActionReplyNeeded:
		return a.client.SetFlags(
			ctx, uid, []imap.Flag{imap.FlagFlagged}, true,
		)

	default:
		return fmt.Errorf(
			"unsupported triage action %q for mail %s", action, sourceItemID,
		)
	}
}

// envelopeToItem converts an Envelope to a model.Item.
func (a *Adapter) envelopeToItem(env Envelope) model.Item {
	// Sanitize MessageID for use in item ID
	itemID := "mail-" + sanitizeID(env.MessageID)
	if env.MessageID == "" {
		itemID = fmt.Sprintf("mail-uid-%d", env.UID)
	}

	sourceItemID := strconv.FormatUint(uint64(env.UID), 10)

	return model.Item{
		ID:           itemID,
		SourceType:   model.SourceTypeIMAP,
		SourceItemID: sourceItemID,
		SourceID:     a.sourceID,
		Subject:      env.Subject,
		Sender:       env.From,
		SenderName:   env.FromName,
		IsBulkSender: env.ListUnsubscribe != "",
		ReceivedAt:   env.Date,
		FetchedAt:    time.Now(),
	}
}

// parseUID converts a string source item ID to a uint32 UID.
func parseUID(sourceItemID string) (uint32, error) {
	uid, err := strconv.ParseUint(sourceItemID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf(
			"invalid mail UID %q: %w", sourceItemID, err,
		)
	}
	return uint32(uid), nil
}

// sanitizeID removes or replaces characters that are not safe for use
// in an item ID.
var idUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeID(s string) string {
	return idUnsafeChars.ReplaceAllString(s, "_")
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}

// formatSize formats a byte size into a human-readable string.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
