package models

import "time"

type ActivityLog struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	EventID    string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"`
	Action     string         `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(64);not null" json:"entity_type"`
	EntityID   uint64         `gorm:"not null;index" json:"entity_id"`
	ActorID    *uint64        `json:"actor_id"`
	Details    map[string]any `gorm:"type:text;serializer:json" json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}
