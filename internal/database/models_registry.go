package database

import "inertus/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserProfile{},
		&models.Post{},
		&models.Comment{},
		&models.Resource{},
		&models.SupportGroup{},
		&models.GroupMembership{},
		&models.Message{},
		&models.Notification{},
		&models.OutboxEvent{},
	}
}
