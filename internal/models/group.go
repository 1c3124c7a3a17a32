package models

import "time"

// SupportGroup is a named community group. The creator is not enrolled automatically.
type SupportGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	MemberCount int64 `gorm:"->;-:migration" json:"member_count"`
}

// GroupMembership maps users to groups; the composite key allows one row per pair.
type GroupMembership struct {
	GroupID  uint          `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	Group    *SupportGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	UserID   uint          `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User     *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinedAt time.Time     `gorm:"autoCreateTime" json:"joined_at"`
}
