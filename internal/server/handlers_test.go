package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inertus/internal/cache"
	"inertus/internal/crisis"
	"inertus/internal/models"
	"inertus/internal/repository"
	"inertus/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		expect Pagination
	}{
		{"", Pagination{Limit: 50, Offset: 0}},
		{"?limit=10&offset=20", Pagination{Limit: 10, Offset: 20}},
		{"?limit=1000", Pagination{Limit: 100, Offset: 0}},
		{"?limit=-5&offset=-1", Pagination{Limit: 50, Offset: 0}},
		{"?limit=abc", Pagination{Limit: 50, Offset: 0}},
	}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(parsePagination(c))
	})

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var got Pagination
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("with redis", func(t *testing.T) {
		s, _ := newTestServer(t, true)
		resp := doJSON(t, s, http.MethodGet, "/health/ready", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		decode(t, resp, &out)
		assert.Equal(t, "healthy", out.Status)
		assert.Equal(t, map[string]string{"database": "healthy", "redis": "healthy"}, out.Checks)
	})

	t.Run("redis is optional", func(t *testing.T) {
		s, _ := newTestServer(t, false)
		resp := doJSON(t, s, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Checks map[string]string `json:"checks"`
		}
		decode(t, resp, &out)
		assert.Equal(t, "unavailable", out.Checks["redis"])
	})

	t.Run("redis down fails readiness", func(t *testing.T) {
		s, mr := newTestServer(t, true)
		mr.SetError("ERR server down")
		resp := doJSON(t, s, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("liveness", func(t *testing.T) {
		s, _ := newTestServer(t, false)
		resp := doJSON(t, s, http.MethodGet, "/health/live", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestPostsAndComments(t *testing.T) {
	s, _ := newTestServer(t, true)
	author, authorToken := signup(t, s, "author")
	_, readerToken := signup(t, s, "reader")

	resp := doJSON(t, s, http.MethodPost, "/create_post", authorToken, map[string]string{
		"title": "First week", "content": "It has been hard but good.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post models.Post
	decode(t, resp, &post)
	assert.Equal(t, author.ID, post.UserID)

	t.Run("creating requires auth", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/create_post", "", map[string]string{
			"title": "x", "content": "y",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("empty comment is rejected and not stored", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID), readerToken,
			map[string]string{"content": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var count int64
		require.NoError(t, s.db.Model(&models.Comment{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("comment on missing post", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/post/9999/comment", readerToken,
			map[string]string{"content": "hello"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid post id", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodGet, "/post/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("comment notifies the author", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID), readerToken,
			map[string]string{"content": "Proud of you"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, s, http.MethodGet, fmt.Sprintf("/post/%d", post.ID), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got models.Post
		decode(t, resp, &got)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "Proud of you", got.Comments[0].Content)

		resp = doJSON(t, s, http.MethodGet, "/notifications", authorToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list []models.Notification
		decode(t, resp, &list)
		require.Len(t, list, 1)
		assert.Equal(t, models.NotificationComment, list[0].Type)
		assert.Contains(t, list[0].Content, "reader commented on your post")
	})

	t.Run("comments listing", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodGet, fmt.Sprintf("/post/%d/comments", post.ID), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var comments []models.Comment
		decode(t, resp, &comments)
		require.Len(t, comments, 1)
		assert.Equal(t, "reader", comments[0].User.Username)

		resp = doJSON(t, s, http.MethodGet, "/post/9999/comments", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("listing is public", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodGet, "/?limit=5", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var posts []models.Post
		decode(t, resp, &posts)
		require.Len(t, posts, 1)
		assert.Equal(t, "author", posts[0].User.Username)
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestEmailOnlyVisibleToOwner(t *testing.T) {
	s, _ := newTestServer(t, true)
	alice, aliceToken := signup(t, s, "alice")
	_, bobToken := signup(t, s, "bob")

	resp := doJSON(t, s, http.MethodPost, "/create_post", aliceToken, map[string]string{
		"title": "Hello", "content": "First post",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post models.Post
	decode(t, resp, &post)
	resp = doJSON(t, s, http.MethodPost, fmt.Sprintf("/post/%d/comment", post.ID), bobToken,
		map[string]string{"content": "Welcome"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, path := range []string{
		"/",
		fmt.Sprintf("/post/%d", post.ID),
		fmt.Sprintf("/post/%d/comments", post.ID),
		"/profile/alice",
	} {
		resp := doJSON(t, s, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body := readBody(t, resp)
		assert.NotContains(t, body, `"email"`, path)
		assert.NotContains(t, body, "@example.com", path)
	}

	resp = doJSON(t, s, http.MethodGet, "/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.Account
	decode(t, resp, &me)
	assert.Equal(t, alice.ID, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)

	resp = doJSON(t, s, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, s, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"email":"alice@example.com"`)
}

func TestProfiles(t *testing.T) {
	s, _ := newTestServer(t, true)
	_, token := signup(t, s, "alice")

	resp := doJSON(t, s, http.MethodGet, "/profile/edit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, s, http.MethodPost, "/profile/edit", token, map[string]string{
		"bio": "Gardener", "interests": "mindfulness",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/profile/alice", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view service.ProfileView
	decode(t, resp, &view)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "Gardener", view.Profile.Bio)
	assert.Equal(t, "alice", view.User.Username)

	resp = doJSON(t, s, http.MethodPost, "/profile/edit", token, map[string]string{
		"bio": strings.Repeat("a", 2001),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/profile/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResources(t *testing.T) {
	s, _ := newTestServer(t, true)
	_, token := signup(t, s, "alice")

	resp := doJSON(t, s, http.MethodPost, "/resources/add", token, map[string]string{
		"title": "Breathing exercises", "description": "Box breathing", "url": "https://example.com/breathe",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/resources", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Resource
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Breathing exercises", list[0].Title)
}

func TestGroups(t *testing.T) {
	s, _ := newTestServer(t, true)
	creator, creatorToken := signup(t, s, "creator")
	_, memberToken := signup(t, s, "member")

	resp := doJSON(t, s, http.MethodPost, "/groups/create", creatorToken, map[string]string{
		"name": "Anxiety circle", "description": "Weekly check-ins",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var group models.SupportGroup
	decode(t, resp, &group)
	assert.Equal(t, creator.ID, group.CreatorID)

	path := fmt.Sprintf("/groups/%d/join", group.ID)

	resp = doJSON(t, s, http.MethodPost, path, memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first service.JoinResult
	decode(t, resp, &first)
	assert.True(t, first.Joined)

	resp = doJSON(t, s, http.MethodGet, path, memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second service.JoinResult
	decode(t, resp, &second)
	assert.False(t, second.Joined)

	var members int64
	require.NoError(t, s.db.Model(&models.GroupMembership{}).Where("group_id = ?", group.ID).Count(&members).Error)
	assert.EqualValues(t, 1, members)

	resp = doJSON(t, s, http.MethodGet, "/notifications", creatorToken, nil)
	var list []models.Notification
	decode(t, resp, &list)
	require.Len(t, list, 1, "only the first join notifies")
	assert.Equal(t, models.NotificationGroupJoin, list[0].Type)

	resp = doJSON(t, s, http.MethodPost, "/groups/424242/join", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/groups", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups []models.SupportGroup
	decode(t, resp, &groups)
	require.Len(t, groups, 1)
	assert.EqualValues(t, 1, groups[0].MemberCount)
}

func TestMessages(t *testing.T) {
	s, _ := newTestServer(t, true)
	alice, aliceToken := signup(t, s, "alice")
	bob, bobToken := signup(t, s, "bob")

	resp := doJSON(t, s, http.MethodGet, fmt.Sprintf("/messages/send/%d", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var form struct {
		Receiver models.UserSummary `json:"receiver"`
	}
	decode(t, resp, &form)
	assert.Equal(t, "bob", form.Receiver.Username)

	resp = doJSON(t, s, http.MethodPost, fmt.Sprintf("/messages/send/%d", bob.ID), aliceToken,
		map[string]string{"content": "Thinking of you"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, s, http.MethodPost, "/messages/send/9999", aliceToken,
		map[string]string{"content": "Hello?"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, s, http.MethodGet, "/messages", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inbox service.Inbox
	decode(t, resp, &inbox)
	assert.Empty(t, inbox.Sent)
	require.Len(t, inbox.Received, 1)
	assert.Equal(t, alice.ID, inbox.Received[0].SenderID)

	resp = doJSON(t, s, http.MethodGet, "/notifications", bobToken, nil)
	var list []models.Notification
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "New message from alice", list[0].Content)
	assert.Equal(t, models.NotificationMessage, list[0].Type)
}

func TestPsychAI(t *testing.T) {
	s, mr := newTestServer(t, true)
	alice, token := signup(t, s, "alice")

	t.Run("crisis message gets the safety response", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/psychai/message", token,
			map[string]string{"message": "I want to die"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var reply service.PsychAIReply
		decode(t, resp, &reply)
		assert.True(t, reply.Success)
		assert.True(t, reply.IsCrisis)
		assert.Equal(t, crisis.Default().SafetyMessage(), reply.Response)
		assert.NotEmpty(t, reply.Timestamp)
	})

	t.Run("ordinary message falls back without a model", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/psychai/message", token,
			map[string]string{"message": "I had a long day at work"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var reply service.PsychAIReply
		decode(t, resp, &reply)
		assert.True(t, reply.Success)
		assert.False(t, reply.IsCrisis)
		assert.NotEmpty(t, reply.Response)
	})

	t.Run("empty message", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodPost, "/psychai/message", token,
			map[string]string{"message": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var out map[string]interface{}
		decode(t, resp, &out)
		assert.Equal(t, false, out["success"])
	})

	t.Run("history", func(t *testing.T) {
		resp := doJSON(t, s, http.MethodGet, "/psychai/history", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var history []repository.ChatEntry
		decode(t, resp, &history)
		require.Len(t, history, 4)
		assert.Equal(t, "I want to die", history[0].Content)
		assert.True(t, history[1].IsCrisis)
		assert.True(t, mr.Exists(cache.PsychAIHistoryKey(alice.ID)))
	})
}
