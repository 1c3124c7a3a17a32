package repository

import (
	"context"
	"testing"

	"inertus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "h"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestPostRepository_GetWithComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")

	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)

	post := &models.Post{Title: "Hello", Content: "First", UserID: author.ID}
	require.NoError(t, posts.Create(ctx, post))
	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "one", UserID: reader.ID, PostID: post.ID}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "two", UserID: author.ID, PostID: post.ID}))

	got, err := posts.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "author", got.User.Username)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "two", got.Comments[0].Content)
	assert.Equal(t, "author", got.Comments[0].User.Username)
	assert.Equal(t, "one", got.Comments[1].Content)

	_, err = posts.GetWithComments(ctx, 999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestCommentRepository_ListByPost(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	author := createUser(t, db, "author")

	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	first := &models.Post{Title: "a", Content: "a", UserID: author.ID}
	other := &models.Post{Title: "b", Content: "b", UserID: author.ID}
	require.NoError(t, posts.Create(ctx, first))
	require.NoError(t, posts.Create(ctx, other))

	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "older", UserID: author.ID, PostID: first.ID}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "newer", UserID: author.ID, PostID: first.ID}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "elsewhere", UserID: author.ID, PostID: other.ID}))

	got, err := comments.ListByPost(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Content)
	assert.Equal(t, "older", got[1].Content)
	require.NotNil(t, got[0].User)
	assert.Equal(t, "author", got[0].User.Username)

	none, err := comments.ListByPost(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepository_ListNewestFirstWithPagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "poster")
	repo := NewPostRepository(db)

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &models.Post{Title: title, Content: title, UserID: u.ID}))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].Title, all[1].Title, all[2].Title})

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Title)

	mine, err := repo.ListByUser(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestResourceRepository_List(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "sharer")
	repo := NewResourceRepository(db)

	require.NoError(t, repo.Create(ctx, &models.Resource{Title: "old", URL: "https://a.example", UserID: u.ID}))
	require.NoError(t, repo.Create(ctx, &models.Resource{Title: "new", URL: "https://b.example", UserID: u.ID}))

	list, err := repo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Title)
	assert.Equal(t, "sharer", list[0].User.Username)
}

func TestProfileRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "profiled")
	repo := NewProfileRepository(db)

	p, err := repo.GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	first := &models.UserProfile{UserID: u.ID, Bio: "hi", Interests: "reading"}
	require.NoError(t, repo.Upsert(ctx, first))
	second := &models.UserProfile{UserID: u.ID, Bio: "updated", AvatarURL: "https://img.example/a.png"}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	var count int64
	require.NoError(t, db.Model(&models.UserProfile{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	p, err = repo.GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", p.Bio)
	assert.Equal(t, "", p.Interests)
	assert.Equal(t, "https://img.example/a.png", p.AvatarURL)
}
