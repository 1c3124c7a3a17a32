// Package seed fills a database with demo community data. It is intended for
// development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"

	"inertus/internal/middleware"
	"inertus/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options sizes a seeding run.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	Groups          int
	Resources       int
	MessagesPerUser int
	Seed            int64
}

// DefaultOptions is a small but well-connected community.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    3,
		CommentsPerPost: 2,
		Groups:          5,
		Resources:       10,
		MessagesPerUser: 2,
	}
}

// Result counts what a run created.
type Result struct {
	Users       int
	Posts       int
	Comments    int
	Groups      int
	Memberships int
	Resources   int
	Messages    int
}

var groupTopics = []string{
	"Anxiety", "Grief", "Burnout", "Sleep", "Loneliness", "New Parents", "Recovery", "Students",
}

// Seeder creates demo records with gofakeit.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	rng   *rand.Rand
}

// NewSeeder binds a seeder to db. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Seeder{
		db:    db,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ClearAll deletes every seeded table, children first.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.OutboxEvent{},
		&models.Notification{},
		&models.Message{},
		&models.GroupMembership{},
		&models.SupportGroup{},
		&models.Resource{},
		&models.Comment{},
		&models.Post{},
		&models.UserProfile{},
		&models.User{},
	}
	for _, t := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	middleware.Logger.Info("seed: cleared database")
	return nil
}

// Run creates a community sized by opts.
func (s *Seeder) Run(opts Options) (*Result, error) {
	res := &Result{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users, err := s.users(tx, opts.Users)
		if err != nil {
			return err
		}
		res.Users = len(users)
		if len(users) == 0 {
			return nil
		}

		if res.Posts, res.Comments, err = s.posts(tx, users, opts.PostsPerUser, opts.CommentsPerPost); err != nil {
			return err
		}
		if res.Groups, res.Memberships, err = s.groups(tx, users, opts.Groups); err != nil {
			return err
		}
		if res.Resources, err = s.resources(tx, users, opts.Resources); err != nil {
			return err
		}
		if res.Messages, err = s.messages(tx, users, opts.MessagesPerUser); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.Info("seed: done",
		zap.Int("users", res.Users),
		zap.Int("posts", res.Posts),
		zap.Int("groups", res.Groups),
		zap.Int("messages", res.Messages))
	return res, nil
}

func (s *Seeder) users(tx *gorm.DB, n int) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}

	// bcrypt is slow; every seeded user shares one hash.
	var proto models.User
	if err := proto.SetPassword(DefaultPassword); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	seen := make(map[string]bool, n)
	for len(users) < n {
		name := strings.ToLower(s.faker.Username())
		name = strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
				return r
			}
			return -1
		}, name)
		if len(name) < 3 || seen[name] {
			name = fmt.Sprintf("member%d", len(users)+1)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		users = append(users, models.User{
			Username:     name,
			Email:        name + "@example.com",
			PasswordHash: proto.PasswordHash,
		})
	}
	if err := tx.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, models.UserProfile{
			UserID:    u.ID,
			Bio:       s.faker.Sentence(12),
			Interests: strings.Join([]string{s.faker.Hobby(), s.faker.Hobby()}, ", "),
			AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", u.Username),
		})
	}
	if err := tx.Create(&profiles).Error; err != nil {
		return nil, fmt.Errorf("seed profiles: %w", err)
	}
	return users, nil
}

func (s *Seeder) pick(users []models.User) models.User {
	return users[s.rng.Intn(len(users))]
}

func (s *Seeder) posts(tx *gorm.DB, users []models.User, perUser, commentsPerPost int) (int, int, error) {
	posts := make([]models.Post, 0, len(users)*perUser)
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			posts = append(posts, models.Post{
				Title:   s.faker.Sentence(5),
				Content: s.faker.Paragraph(1, 3, 12, "\n"),
				UserID:  u.ID,
			})
		}
	}
	if len(posts) == 0 {
		return 0, 0, nil
	}
	if err := tx.CreateInBatches(&posts, 100).Error; err != nil {
		return 0, 0, fmt.Errorf("seed posts: %w", err)
	}

	comments := make([]models.Comment, 0, len(posts)*commentsPerPost)
	for _, p := range posts {
		for i := 0; i < commentsPerPost; i++ {
			comments = append(comments, models.Comment{
				Content: s.faker.Sentence(10),
				UserID:  s.pick(users).ID,
				PostID:  p.ID,
			})
		}
	}
	if len(comments) > 0 {
		if err := tx.CreateInBatches(&comments, 100).Error; err != nil {
			return 0, 0, fmt.Errorf("seed comments: %w", err)
		}
	}
	return len(posts), len(comments), nil
}

func (s *Seeder) groups(tx *gorm.DB, users []models.User, n int) (int, int, error) {
	if n <= 0 {
		return 0, 0, nil
	}
	groups := make([]models.SupportGroup, 0, n)
	for i := 0; i < n; i++ {
		topic := groupTopics[i%len(groupTopics)]
		groups = append(groups, models.SupportGroup{
			Name:        fmt.Sprintf("%s Circle %d", topic, i+1),
			Description: s.faker.Sentence(15),
			CreatorID:   s.pick(users).ID,
		})
	}
	if err := tx.Create(&groups).Error; err != nil {
		return 0, 0, fmt.Errorf("seed groups: %w", err)
	}

	var memberships []models.GroupMembership
	for _, g := range groups {
		for _, idx := range s.rng.Perm(len(users))[:1+s.rng.Intn(len(users))] {
			memberships = append(memberships, models.GroupMembership{GroupID: g.ID, UserID: users[idx].ID})
		}
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&memberships, 100).Error; err != nil {
		return 0, 0, fmt.Errorf("seed memberships: %w", err)
	}
	return len(groups), len(memberships), nil
}

func (s *Seeder) resources(tx *gorm.DB, users []models.User, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	resources := make([]models.Resource, 0, n)
	for i := 0; i < n; i++ {
		resources = append(resources, models.Resource{
			Title:       s.faker.BookTitle(),
			Description: s.faker.Sentence(12),
			URL:         s.faker.URL(),
			UserID:      s.pick(users).ID,
		})
	}
	if err := tx.Create(&resources).Error; err != nil {
		return 0, fmt.Errorf("seed resources: %w", err)
	}
	return len(resources), nil
}

func (s *Seeder) messages(tx *gorm.DB, users []models.User, perUser int) (int, error) {
	if len(users) < 2 || perUser <= 0 {
		return 0, nil
	}
	msgs := make([]models.Message, 0, len(users)*perUser)
	for i, u := range users {
		for j := 0; j < perUser; j++ {
			// any other user
			to := users[(i+1+s.rng.Intn(len(users)-1))%len(users)]
			msgs = append(msgs, models.Message{
				Content:    s.faker.Sentence(8),
				SenderID:   u.ID,
				ReceiverID: to.ID,
			})
		}
	}
	if err := tx.CreateInBatches(&msgs, 100).Error; err != nil {
		return 0, fmt.Errorf("seed messages: %w", err)
	}
	return len(msgs), nil
}
