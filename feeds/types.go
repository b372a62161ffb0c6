// Package feeds turns a Bluesky profile and its author feed into an RSS 2.0 document
package feeds

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluesky-social/indigo/api/bsky"
)

// Source is the read side of the AppView the generator depends on.
// *bluesky.Client implements it.
type Source interface {
	GetProfile(ctx context.Context, actor string) (*bsky.ActorDefs_ProfileViewDetailed, error)
	GetAuthorFeed(ctx context.Context, actor string) (*bsky.FeedGetAuthorFeed_Output, error)
}

var (
	ErrEmptyProfile = errors.New("profile is empty")
	ErrEmptyFeed    = errors.New("feed is empty")
)

const (
	StageProfile = "profile"
	StageFeed    = "feed"
)

// UpstreamError is returned when one of the two AppView calls fails
type UpstreamError struct {
	// Stage is StageProfile or StageFeed
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
