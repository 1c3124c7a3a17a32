package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inertus/internal/models"
	"inertus/internal/repository"
	"inertus/internal/validation"
)

// recentPostsOnProfile is how many posts a profile page shows.
const recentPostsOnProfile = 20

type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID    uint
	Bio       string
	Interests string
	AvatarURL string
}

// ProfileView is a user together with their optional profile and latest posts.
type ProfileView struct {
	User    *models.User        `json:"user"`
	Profile *models.UserProfile `json:"profile"`
	Posts   []models.Post       `json:"posts"`
}

func NewUserService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	postRepo repository.PostRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		postRepo:    postRepo,
	}
}

// Register creates a user after validating the input and checking that neither the
// username nor the email is taken.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}
	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	user := &models.User{Username: in.Username, Email: in.Email}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user matching the credentials. Unknown users and wrong
// passwords produce the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	return user, nil
}

// GetUserByID returns the user with id, or a not-found error.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*ProfileView, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByUser(ctx, user.ID, recentPostsOnProfile)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Profile: profile, Posts: posts}, nil
}

// GetOwnProfile returns the caller's profile, or an empty unsaved one.
func (s *UserService) GetOwnProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.UserProfile{UserID: userID}
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.UserProfile, error) {
	const maxBioLen = 2000

	if utf8.RuneCountInString(in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 2000 characters)")
	}

	profile := &models.UserProfile{
		UserID:    in.UserID,
		Bio:       in.Bio,
		Interests: in.Interests,
		AvatarURL: in.AvatarURL,
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
