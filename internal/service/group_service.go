package service

import (
	"context"
	"fmt"

	"inertus/internal/models"
	"inertus/internal/repository"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	notifier  NotificationSender
}

type CreateGroupInput struct {
	CreatorID   uint
	Name        string
	Description string
}

// JoinResult reports the group joined and whether a new membership was created.
type JoinResult struct {
	Group  *models.SupportGroup `json:"group"`
	Joined bool                 `json:"joined"`
}

func NewGroupService(groupRepo repository.GroupRepository, notifier NotificationSender) *GroupService {
	return &GroupService{groupRepo: groupRepo, notifier: notifier}
}

// CreateGroup stores the group. The creator is not enrolled as a member.
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.SupportGroup, error) {
	group := &models.SupportGroup{
		Name:        in.Name,
		Description: in.Description,
		CreatorID:   in.CreatorID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// JoinGroup adds the membership if absent. Joining twice is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, groupID, userID uint, username string) (*JoinResult, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	joined, err := s.groupRepo.AddMember(ctx, group.ID, userID)
	if err != nil {
		return nil, err
	}
	if joined {
		group.MemberCount++
		if group.CreatorID != userID {
			notify(ctx, s.notifier, group.CreatorID,
				fmt.Sprintf("%s joined your group %q", displayName(username), group.Name),
				models.NotificationGroupJoin)
		}
	}
	return &JoinResult{Group: group, Joined: joined}, nil
}

func (s *GroupService) ListGroups(ctx context.Context, limit, offset int) ([]models.SupportGroup, error) {
	return s.groupRepo.List(ctx, limit, offset)
}
