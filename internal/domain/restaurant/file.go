package restaurant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ScopePermanent = "permanent"
	ScopeTemporary = "temporary"
)

// File is metadata for an uploaded document; the bytes live in blob storage at StoragePath.
type File struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_restaurant_file_scope,priority:1" json:"restaurant_id"`
	ConversationID *uuid.UUID `gorm:"type:uuid;index" json:"conversation_id,omitempty"`
	StorageScope   string     `gorm:"column:storage_scope;not null;index:idx_restaurant_file_scope,priority:2" json:"storage_scope"`
	FileName       string     `gorm:"column:file_name;not null" json:"file_name"`
	MimeType       string     `gorm:"column:mime_type;not null;default:''" json:"mime_type"`
	StoragePath    string     `gorm:"column:storage_path;not null" json:"storage_path"`
	SizeBytes      int64      `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	CreatedAt      time.Time  `gorm:"not null;index" json:"created_at"`
}

func (File) TableName() string { return "restaurant_file" }

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
