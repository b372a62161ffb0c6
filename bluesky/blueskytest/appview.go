// Package blueskytest provides a fake AppView speaking the XRPC read
// methods used by the bluesky client, for use in tests.
package blueskytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

type Post struct {
	Rkey      string
	Text      string
	CreatedAt string
}

type Actor struct {
	Did         string
	Handle      string
	DisplayName string
	Description string
	Avatar      string
	Posts       []Post

	// FeedError makes getAuthorFeed answer with an error payload carrying this message
	FeedError string
}

// AppView is an httptest server answering app.bsky.actor.getProfile and
// app.bsky.feed.getAuthorFeed for a fixed set of actors.
type AppView struct {
	*httptest.Server

	mu        sync.Mutex
	actors    map[string]*Actor
	calls     []string
	feedQuery url.Values
}

func NewAppView(actors ...Actor) *AppView {
	av := &AppView{actors: make(map[string]*Actor)}
	for i := range actors {
		actor := &actors[i]
		av.actors[actor.Did] = actor
		av.actors[actor.Handle] = actor
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/app.bsky.actor.getProfile", av.getProfile)
	mux.HandleFunc("/xrpc/app.bsky.feed.getAuthorFeed", av.getAuthorFeed)
	av.Server = httptest.NewServer(mux)

	return av
}

// Calls returns the XRPC methods called so far, in order
func (av *AppView) Calls() []string {
	av.mu.Lock()
	defer av.mu.Unlock()
	return append([]string(nil), av.calls...)
}

// FeedQuery returns the query parameters of the last getAuthorFeed call
func (av *AppView) FeedQuery() url.Values {
	av.mu.Lock()
	defer av.mu.Unlock()
	return av.feedQuery
}

func (av *AppView) lookup(method string, r *http.Request) (*Actor, bool) {
	av.mu.Lock()
	defer av.mu.Unlock()
	av.calls = append(av.calls, method)
	if method == "app.bsky.feed.getAuthorFeed" {
		av.feedQuery = r.URL.Query()
	}
	actor, ok := av.actors[r.URL.Query().Get("actor")]
	return actor, ok
}

func (av *AppView) getProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := av.lookup("app.bsky.actor.getProfile", r)
	if !ok {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Profile not found")
		return
	}

	profile := map[string]interface{}{
		"did":    actor.Did,
		"handle": actor.Handle,
	}
	if actor.DisplayName != "" {
		profile["displayName"] = actor.DisplayName
	}
	if actor.Description != "" {
		profile["description"] = actor.Description
	}
	if actor.Avatar != "" {
		profile["avatar"] = actor.Avatar
	}

	writeJSON(w, http.StatusOK, profile)
}

func (av *AppView) getAuthorFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := av.lookup("app.bsky.feed.getAuthorFeed", r)
	if !ok {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Profile not found")
		return
	}
	if actor.FeedError != "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", actor.FeedError)
		return
	}

	author := map[string]interface{}{
		"did":    actor.Did,
		"handle": actor.Handle,
	}
	if actor.DisplayName != "" {
		author["displayName"] = actor.DisplayName
	}

	feed := make([]interface{}, 0, len(actor.Posts))
	for _, post := range actor.Posts {
		feed = append(feed, map[string]interface{}{
			"post": map[string]interface{}{
				"uri":       PostURI(actor.Did, post.Rkey),
				"cid":       "bafyreib2rxk3rh6kzwq",
				"author":    author,
				"indexedAt": post.CreatedAt,
				"record": map[string]interface{}{
					"$type":     "app.bsky.feed.post",
					"text":      post.Text,
					"createdAt": post.CreatedAt,
				},
			},
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"feed": feed})
}

// PostURI builds the AT-URI of a post record
func PostURI(did, rkey string) string {
	return fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, map[string]string{
		"error":   name,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
