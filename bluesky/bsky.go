package bluesky

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/xrpc"
	log "github.com/sirupsen/logrus"
)

// DefaultAppViewHost is the public, unauthenticated Bluesky AppView
const DefaultAppViewHost = "https://public.api.bsky.app"

const (
	// AuthorFeedLimit is the size of the single author feed page we request
	AuthorFeedLimit = 50

	// FilterPostsWithReplies includes the author's replies next to their posts
	FilterPostsWithReplies = "posts_with_replies"

	methodGetProfile    = "app.bsky.actor.getProfile"
	methodGetAuthorFeed = "app.bsky.feed.getAuthorFeed"
)

type ClientConfig struct {
	// Host is the base URL of the AppView, e.g. https://public.api.bsky.app
	Host string

	// UserAgent sent with every request. Indigo's default is used when empty.
	UserAgent string

	// HTTPClient used for requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client is a read-only client for the Bluesky AppView.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	xrpc *xrpc.Client
}

func NewClient(config ClientConfig) *Client {
	host := config.Host
	if host == "" {
		host = DefaultAppViewHost
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	xrpcClient := &xrpc.Client{
		Host:   host,
		Client: httpClient,
	}
	if config.UserAgent != "" {
		ua := config.UserAgent
		xrpcClient.UserAgent = &ua
	}

	return &Client{xrpc: xrpcClient}
}

// Host returns the AppView base URL the client talks to
func (c *Client) Host() string {
	return c.xrpc.Host
}

// GetProfile fetches the detailed profile of an actor (handle or DID).
func (c *Client) GetProfile(ctx context.Context, actor string) (*bsky.ActorDefs_ProfileViewDetailed, error) {
	start := time.Now()

	profile, err := bsky.ActorGetProfile(ctx, c.xrpc, actor)
	observe(methodGetProfile, start, err)
	if err != nil {
		return nil, newAPIError(methodGetProfile, err)
	}

	return profile, nil
}

// GetAuthorFeed fetches the latest page of posts and replies written by actor.
// Only the first AuthorFeedLimit items are requested, there is no pagination.
func (c *Client) GetAuthorFeed(ctx context.Context, actor string) (*bsky.FeedGetAuthorFeed_Output, error) {
	start := time.Now()

	params := map[string]interface{}{
		"actor":  actor,
		"filter": FilterPostsWithReplies,
		"limit":  AuthorFeedLimit,
	}

	var out bsky.FeedGetAuthorFeed_Output
	err := c.xrpc.Do(ctx, xrpc.Query, "", methodGetAuthorFeed, params, nil, &out)
	observe(methodGetAuthorFeed, start, err)
	if err != nil {
		return nil, newAPIError(methodGetAuthorFeed, err)
	}

	return &out, nil
}

// APIError describes a failed XRPC call. Message carries the upstream
// error payload message when the AppView returned one.
type APIError struct {
	Method     string
	StatusCode int
	Name       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(method string, err error) *APIError {
	apiErr := &APIError{
		Method:  method,
		Message: err.Error(),
		Err:     err,
	}

	var xrpcErr *xrpc.Error
	if errors.As(err, &xrpcErr) {
		apiErr.StatusCode = xrpcErr.StatusCode
	}

	// The error payload, {"error": "...", "message": "..."}
	var payload *xrpc.XRPCError
	if errors.As(err, &payload) {
		apiErr.Name = payload.ErrStr
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.ErrStr != "":
			apiErr.Message = payload.ErrStr
		}
	}

	log.WithFields(log.Fields{
		"method": method,
		"status": apiErr.StatusCode,
		"error":  apiErr.Name,
	}).Warnf("Upstream call failed: %s", apiErr.Message)

	return apiErr
}
