package feeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/samber/lo"
)

const (
	// WebHost is where post and profile links point to
	WebHost = "https://bsky.app"

	// TitleMaxLength is the number of characters kept from a post's first line
	TitleMaxLength = 60

	// PlaceholderTitle is used for posts without text, e.g. image-only posts
	PlaceholderTitle = "Post"

	ellipsis = "..."
)

// Entry is a single feed entry derived from a post
type Entry struct {
	Title       string
	ID          string
	Link        string
	Description string
	Content     string
	AuthorName  string
	// AuthorLink is not rendered, RSS 2.0 <author> only holds a name or email
	AuthorLink  string
	Date        time.Time
}

// MapEntry derives a feed entry from an author feed item. Missing fields
// never fail the mapping, they fall back to empty values and the placeholder title.
func MapEntry(item *bsky.FeedDefs_FeedViewPost) Entry {
	if item == nil || item.Post == nil {
		return Entry{Title: PlaceholderTitle}
	}
	post := item.Post

	var did, handle, displayName string
	if post.Author != nil {
		did = post.Author.Did
		handle = post.Author.Handle
		displayName = lo.FromPtr(post.Author.DisplayName)
	}

	text, createdAt := postRecord(post)

	return Entry{
		Title:       Title(text),
		ID:          post.Uri,
		Link:        PostLink(did, RecordKey(post.Uri)),
		Description: text,
		Content:     text,
		AuthorName:  lo.CoalesceOrEmpty(displayName, handle),
		AuthorLink:  ProfileLink(did),
		Date:        ParseCreatedAt(createdAt),
	}
}

// postRecord returns text and creation timestamp of the post record,
// or empty strings if the record is missing or not an app.bsky.feed.post
func postRecord(post *bsky.FeedDefs_PostView) (string, string) {
	if post.Record == nil {
		return "", ""
	}
	record, ok := post.Record.Val.(*bsky.FeedPost)
	if !ok || record == nil {
		return "", ""
	}
	return record.Text, record.CreatedAt
}

// Title returns the first line of text, cut to TitleMaxLength characters
func Title(text string) string {
	firstLine, _, _ := strings.Cut(text, "\n")
	if firstLine == "" {
		return PlaceholderTitle
	}

	runes := []rune(firstLine)
	if len(runes) > TitleMaxLength {
		return string(runes[:TitleMaxLength]) + ellipsis
	}
	return firstLine
}

// RecordKey returns the record key of an AT-URI, i.e. its last path segment
func RecordKey(uri string) string {
	if parsed, err := syntax.ParseATURI(uri); err == nil {
		if rkey := parsed.RecordKey().String(); rkey != "" {
			return rkey
		}
	}
	return uri[strings.LastIndex(uri, "/")+1:]
}

func PostLink(did, rkey string) string {
	return fmt.Sprintf("%s/profile/%s/post/%s", WebHost, did, rkey)
}

func ProfileLink(did string) string {
	return fmt.Sprintf("%s/profile/%s", WebHost, did)
}

// ParseCreatedAt parses a record timestamp. Records are written by clients
// and not always valid AT Protocol datetimes, so parsing is lenient and
// unparseable values yield the zero time.
func ParseCreatedAt(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if dt, err := syntax.ParseDatetimeLenient(raw); err == nil {
		return dt.Time()
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return time.Time{}
}
