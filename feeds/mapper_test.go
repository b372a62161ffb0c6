package feeds_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"bskyrss/feeds"

	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	long := strings.Repeat("a", 75)
	exact := strings.Repeat("b", 60)
	norwegian := strings.Repeat("æøå", 25)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "empty text",
			text:     "",
			expected: "Post",
		},
		{
			name:     "short single line",
			text:     "Hello Bluesky",
			expected: "Hello Bluesky",
		},
		{
			name:     "first line only",
			text:     "Headline\nand a body that goes on",
			expected: "Headline",
		},
		{
			name:     "leading newline",
			text:     "\nsecond line",
			expected: "Post",
		},
		{
			name:     "exactly sixty characters",
			text:     exact,
			expected: exact,
		},
		{
			name:     "longer than sixty characters",
			text:     long,
			expected: strings.Repeat("a", 60) + "...",
		},
		{
			name:     "multibyte characters are counted as characters",
			text:     norwegian,
			expected: string([]rune(norwegian)[:60]) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, feeds.Title(tt.text))
		})
	}
}

func TestTitleLength(t *testing.T) {
	title := feeds.Title(strings.Repeat("x", 200))
	assert.Len(t, []rune(title), 63)
	assert.True(t, strings.HasSuffix(title, "..."))
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "3kabc", feeds.RecordKey("at://did:plc:alice123/app.bsky.feed.post/3kabc"))
	assert.Equal(t, "tail", feeds.RecordKey("not an at uri/tail"))
	assert.Equal(t, "", feeds.RecordKey(""))
}

func TestParseCreatedAt(t *testing.T) {
	assert.Equal(t,
		time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC),
		feeds.ParseCreatedAt("2024-11-02T10:00:00.000Z").UTC(),
	)
	assert.Equal(t,
		time.Date(2024, 11, 2, 8, 0, 0, 0, time.UTC),
		feeds.ParseCreatedAt("2024-11-02T10:00:00+02:00").UTC(),
	)
	assert.True(t, feeds.ParseCreatedAt("").IsZero())
	assert.True(t, feeds.ParseCreatedAt("yesterday").IsZero())
}

// feedItem decodes an author feed item the way the client does, so the
// record goes through the lexicon type registry
func feedItem(t *testing.T, author map[string]interface{}, rkey string, record map[string]interface{}) *bsky.FeedDefs_FeedViewPost {
	t.Helper()

	post := map[string]interface{}{
		"uri":       "at://" + author["did"].(string) + "/app.bsky.feed.post/" + rkey,
		"cid":       "bafyreib2rxk3rh6kzwq",
		"author":    author,
		"indexedAt": "2024-11-02T10:00:01.000Z",
	}
	if record != nil {
		post["record"] = record
	}

	data, err := json.Marshal(map[string]interface{}{"post": post})
	require.NoError(t, err)

	var item bsky.FeedDefs_FeedViewPost
	require.NoError(t, json.Unmarshal(data, &item))
	return &item
}

func postRecord(text, createdAt string) map[string]interface{} {
	return map[string]interface{}{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": createdAt,
	}
}

func TestMapEntry(t *testing.T) {
	author := map[string]interface{}{
		"did":         "did:plc:alice123",
		"handle":      "alice.bsky.social",
		"displayName": "Alice",
	}
	item := feedItem(t, author, "3kabc", postRecord("Line one\nLine two", "2024-11-02T10:00:00.000Z"))

	entry := feeds.MapEntry(item)

	assert.Equal(t, feeds.Entry{
		Title:       "Line one",
		ID:          "at://did:plc:alice123/app.bsky.feed.post/3kabc",
		Link:        "https://bsky.app/profile/did:plc:alice123/post/3kabc",
		Description: "Line one\nLine two",
		Content:     "Line one\nLine two",
		AuthorName:  "Alice",
		AuthorLink:  "https://bsky.app/profile/did:plc:alice123",
		Date:        entry.Date,
	}, entry)
	assert.Equal(t, time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC), entry.Date.UTC())
}

func TestMapEntryDefaults(t *testing.T) {
	bob := map[string]interface{}{
		"did":    "did:plc:bob",
		"handle": "bob.bsky.social",
	}

	t.Run("author without display name uses handle", func(t *testing.T) {
		item := feedItem(t, bob, "3kxyz", postRecord("hi", "2024-11-02T10:00:00.000Z"))
		assert.Equal(t, "bob.bsky.social", feeds.MapEntry(item).AuthorName)

		blank := map[string]interface{}{"did": "did:plc:bob", "handle": "bob.bsky.social", "displayName": ""}
		item = feedItem(t, blank, "3kxyz", postRecord("hi", "2024-11-02T10:00:00.000Z"))
		assert.Equal(t, "bob.bsky.social", feeds.MapEntry(item).AuthorName)
	})

	t.Run("missing record", func(t *testing.T) {
		entry := feeds.MapEntry(feedItem(t, bob, "3kxyz", nil))
		assert.Equal(t, "Post", entry.Title)
		assert.Empty(t, entry.Description)
		assert.Empty(t, entry.Content)
		assert.True(t, entry.Date.IsZero())
		assert.Equal(t, "https://bsky.app/profile/did:plc:bob/post/3kxyz", entry.Link)
	})

	t.Run("record of another type", func(t *testing.T) {
		entry := feeds.MapEntry(feedItem(t, bob, "3kxyz", map[string]interface{}{
			"$type":     "app.bsky.feed.like",
			"createdAt": "2024-11-02T10:00:00.000Z",
			"subject": map[string]interface{}{
				"uri": "at://did:plc:alice123/app.bsky.feed.post/3kabc",
				"cid": "bafyreib2rxk3rh6kzwq",
			},
		}))
		assert.Equal(t, "Post", entry.Title)
		assert.Empty(t, entry.Description)
	})

	t.Run("missing post", func(t *testing.T) {
		assert.Equal(t, feeds.Entry{Title: "Post"}, feeds.MapEntry(&bsky.FeedDefs_FeedViewPost{}))
		assert.Equal(t, feeds.Entry{Title: "Post"}, feeds.MapEntry(nil))
	})
}
