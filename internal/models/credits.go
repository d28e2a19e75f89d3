package models

import "time"

type UserCredits struct {
	UserID    string    `json:"user_id" gorm:"type:varchar(128);primaryKey"`
	Balance   int       `json:"balance" gorm:"not null;check:balance >= 0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GrantCreditsRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int    `json:"amount" binding:"required,min=1"`
}

type CreditsResponse struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}

type DashboardStats struct {
	Users              int64                  `json:"users"`
	Generations        int64                  `json:"generations"`
	GenerationsByType  map[ImageType]int64    `json:"generations_by_type"`
	OutstandingCredits int64                  `json:"outstanding_credits"`
	Queue              map[string]interface{} `json:"queue,omitempty"`
	Cache              map[string]interface{} `json:"cache,omitempty"`
}
