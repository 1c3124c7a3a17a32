package service

import (
	"context"
	"fmt"
	"strings"

	"inertus/internal/models"
	"inertus/internal/repository"
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	notifier    NotificationSender
}

type CreatePostInput struct {
	UserID  uint
	Title   string
	Content string
}

type CreateCommentInput struct {
	UserID   uint
	Username string
	PostID   uint
	Content  string
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	notifier NotificationSender,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		notifier:    notifier,
	}
}

// CreatePost stores the post as submitted; title and content are not validated.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetWithComments(ctx, id)
}

// ListComments returns the comments on an existing post, newest first.
func (s *PostService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

// AddComment stores a non-empty comment on an existing post and notifies the post author
// unless they wrote the comment.
func (s *PostService) AddComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  post.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		notify(ctx, s.notifier, post.UserID,
			fmt.Sprintf("%s commented on your post %q", displayName(in.Username), post.Title),
			models.NotificationComment)
	}
	return comment, nil
}

func displayName(username string) string {
	if username == "" {
		return "Someone"
	}
	return username
}
