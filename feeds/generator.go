package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/bluesky-social/indigo/api/bsky"
	gorilla "github.com/gorilla/feeds"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	// Language is declared on every channel regardless of the posts' language
	Language = "ja"

	// GeneratorTag identifies the source platform in the channel
	GeneratorTag = WebHost
)

// Generator builds RSS documents for Bluesky actors.
// It keeps no state between calls and is safe for concurrent use.
type Generator struct {
	source Source
	now    func() time.Time
}

func NewGenerator(source Source) *Generator {
	return &Generator{
		source: source,
		now:    time.Now,
	}
}

// WithClock returns a copy of the generator using now as the generation time
func (g *Generator) WithClock(now func() time.Time) *Generator {
	return &Generator{source: g.source, now: now}
}

// Generate fetches the profile and author feed of actor and renders them as RSS 2.0.
// Either upstream call failing aborts generation, no partial feed is returned.
func (g *Generator) Generate(ctx context.Context, actor string) (string, error) {
	channel, err := g.Channel(ctx, actor)
	if err != nil {
		return "", err
	}

	rss, err := gorilla.ToXML(channel)
	if err != nil {
		return "", fmt.Errorf("failed to serialize feed: %w", err)
	}
	return rss, nil
}

// Channel fetches upstream data for actor and returns the RSS channel before serialization
func (g *Generator) Channel(ctx context.Context, actor string) (*gorilla.RssFeed, error) {
	profile, err := g.source.GetProfile(ctx, actor)
	if err != nil {
		return nil, &UpstreamError{Stage: StageProfile, Err: err}
	}
	if profile == nil || profile.Did == "" {
		return nil, ErrEmptyProfile
	}

	// The DID is stable across handle changes, so the feed is fetched with it
	authorFeed, err := g.source.GetAuthorFeed(ctx, profile.Did)
	if err != nil {
		return nil, &UpstreamError{Stage: StageFeed, Err: err}
	}
	if authorFeed == nil || authorFeed.Feed == nil {
		return nil, ErrEmptyFeed
	}

	feed := newFeed(profile, g.now())
	for _, item := range authorFeed.Feed {
		feed.Add(toItem(MapEntry(item)))
	}

	log.WithFields(log.Fields{
		"actor": actor,
		"did":   profile.Did,
		"items": len(feed.Items),
	}).Debug("Generated feed")

	channel := (&gorilla.Rss{Feed: feed}).RssFeed()
	channel.Language = Language
	channel.Generator = GeneratorTag

	return channel, nil
}

func newFeed(profile *bsky.ActorDefs_ProfileViewDetailed, now time.Time) *gorilla.Feed {
	name := lo.CoalesceOrEmpty(lo.FromPtr(profile.DisplayName), profile.Handle)
	title := fmt.Sprintf("Posts by %s (@%s)", name, profile.Handle)
	link := ProfileLink(profile.Did)

	feed := &gorilla.Feed{
		Title:       title,
		Description: lo.FromPtr(profile.Description),
		Id:          link,
		Link:        &gorilla.Link{Href: link},
		Updated:     now,
	}

	if avatar := lo.FromPtr(profile.Avatar); avatar != "" {
		feed.Image = &gorilla.Image{
			Url:   avatar,
			Title: title,
			Link:  link,
		}
	}

	return feed
}

func toItem(entry Entry) *gorilla.Item {
	return &gorilla.Item{
		Title:       entry.Title,
		Id:          entry.ID,
		Link:        &gorilla.Link{Href: entry.Link},
		Description: entry.Description,
		Content:     entry.Content,
		Author:      &gorilla.Author{Name: entry.AuthorName},
		Created:     entry.Date,
	}
}
