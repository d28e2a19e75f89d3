package models

import "time"

// HistoryRecord is a finished generation as persisted in the database and the
// recent-history cache.
type HistoryRecord struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:varchar(128);index:idx_history_user_created,priority:1;not null"`
	Type       ImageType `json:"type" gorm:"type:varchar(20);index;not null"`
	Base64     string    `json:"base64,omitempty" gorm:"type:text;not null"`
	ImageURL   string    `json:"image_url,omitempty"`
	StorageKey string    `json:"-"`
	Format     string    `json:"format,omitempty" gorm:"type:varchar(10)"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Title      string    `json:"title,omitempty"`
	Content    string    `json:"content,omitempty" gorm:"type:text"`
	Style      string    `json:"style,omitempty"`
	Colour     string    `json:"colour,omitempty"`
	Timestamp  time.Time `json:"timestamp" gorm:"index:idx_history_user_created,priority:2;not null"`
}

func NewHistoryRecord(img *GeneratedImage) *HistoryRecord {
	return &HistoryRecord{
		ID:        img.ID,
		UserID:    img.UserID,
		Type:      img.Type,
		Base64:    img.Base64,
		Title:     img.Fields.Title,
		Content:   img.Fields.Content,
		Style:     img.Fields.Style,
		Colour:    img.Fields.Colour,
		Timestamp: img.Timestamp,
	}
}
