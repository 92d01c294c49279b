package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreatePostEndpoint tests post creation over HTTP
func TestCreatePostEndpoint(t *testing.T) {
	server := setupTestServer(t)

	root, err := server.Content.CreateChannel("locus", "")
	require.NoError(t, err)

	w := performJSON(t, server.CreatePost, http.MethodPost, "/api/posts",
		gin.H{"title": "hello", "channel_origin": root.ID}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "hello", data["title"])
	assert.Equal(t, root.ID, data["channel_origin"])
}

// TestCreatePostEndpoint_MissingOrigin tests payload validation
func TestCreatePostEndpoint_MissingOrigin(t *testing.T) {
	server := setupTestServer(t)

	w := performJSON(t, server.CreatePost, http.MethodPost, "/api/posts",
		gin.H{"title": "hello"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestCreatePostEndpoint_UnknownChannel tests the not-found mapping
func TestCreatePostEndpoint_UnknownChannel(t *testing.T) {
	server := setupTestServer(t)

	w := performJSON(t, server.CreatePost, http.MethodPost, "/api/posts",
		gin.H{"title": "hello", "channel_origin": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestInteractionEndpoints tests the add and remove interaction routes
func TestInteractionEndpoints(t *testing.T) {
	server := setupTestServer(t)

	root, err := server.Content.CreateChannel("locus", "")
	require.NoError(t, err)
	post, err := server.Content.CreatePost("hello", "", root.ID)
	require.NoError(t, err)
	params := gin.Params{{Key: "id", Value: post.ID}}

	w := performJSON(t, server.AddPositive, http.MethodPost, "/api/posts/"+post.ID+"/positive", nil, params)
	require.Equal(t, http.StatusOK, w.Code)
	w = performJSON(t, server.AddStar, http.MethodPost, "/api/posts/"+post.ID+"/stars", nil, params)
	require.Equal(t, http.StatusOK, w.Code)
	w = performJSON(t, server.AddBook, http.MethodPost, "/api/posts/"+post.ID+"/books", nil, params)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := server.Content.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Positive.Day, "stars and books feed positive")
	assert.Equal(t, int64(1), got.Stars.Day)
	assert.Equal(t, int64(1), got.Books.Day)

	w = performJSON(t, server.RemovePositive, http.MethodDelete, "/api/posts/"+post.ID+"/positive",
		gin.H{"interacted_at": time.Now().Add(-time.Hour).UnixMilli()}, params)
	require.Equal(t, http.StatusOK, w.Code)

	got, err = server.Content.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Positive.Day)
}

// TestRemoveInteraction_MissingTimestamp tests removal payload validation
func TestRemoveInteraction_MissingTimestamp(t *testing.T) {
	server := setupTestServer(t)

	root, err := server.Content.CreateChannel("locus", "")
	require.NoError(t, err)
	post, err := server.Content.CreatePost("hello", "", root.ID)
	require.NoError(t, err)

	w := performJSON(t, server.RemovePositive, http.MethodDelete, "/api/posts/"+post.ID+"/positive",
		gin.H{}, gin.Params{{Key: "id", Value: post.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
