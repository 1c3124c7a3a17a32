package repository

import (
	"context"

	"inertus/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository stores support groups and their memberships.
type GroupRepository interface {
	Create(ctx context.Context, group *models.SupportGroup) error
	GetByID(ctx context.Context, id uint) (*models.SupportGroup, error)
	List(ctx context.Context, limit, offset int) ([]models.SupportGroup, error)
	AddMember(ctx context.Context, groupID, userID uint) (bool, error)
	CountMembers(ctx context.Context, groupID uint) (int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

const memberCountSelect = "support_groups.*, (SELECT COUNT(*) FROM group_memberships " +
	"WHERE group_memberships.group_id = support_groups.id) AS member_count"

func (r *groupRepository) Create(ctx context.Context, group *models.SupportGroup) error {
	return wrapInternal(r.db.WithContext(ctx).Create(group).Error)
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.SupportGroup, error) {
	var group models.SupportGroup
	err := r.db.WithContext(ctx).Model(&models.SupportGroup{}).
		Select(memberCountSelect).
		First(&group, id).Error
	if err != nil {
		return nil, lookupError(err, "Group", id)
	}
	return &group, nil
}

// List returns groups newest first with their member counts.
func (r *groupRepository) List(ctx context.Context, limit, offset int) ([]models.SupportGroup, error) {
	var groups []models.SupportGroup
	q := r.db.WithContext(ctx).Model(&models.SupportGroup{}).
		Select(memberCountSelect).
		Preload("Creator").
		Order(newestFirst("support_groups"))
	if err := paginate(q, limit, offset).Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// AddMember inserts the membership unless it exists. It reports whether a row was added.
func (r *groupRepository) AddMember(ctx context.Context, groupID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupMembership{GroupID: groupID, UserID: userID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *groupRepository) CountMembers(ctx context.Context, groupID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.GroupMembership{}).Where("group_id = ?", groupID).Count(&n).Error
	return n, wrapInternal(err)
}
