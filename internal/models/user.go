package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is the seller objective captured during onboarding. It is accepted on
// recommendation requests but not yet consumed by the scoring math.
type Goal string

const (
	GoalDropship   Goal = "dropship"
	GoalBrand      Goal = "brand"
	GoalStartSmall Goal = "start_small"
)

func (g Goal) Valid() bool {
	switch g {
	case GoalDropship, GoalBrand, GoalStartSmall:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Name      string    `json:"name" gorm:"not null"`
	NicheID   *string   `json:"niche_id" gorm:"type:uuid"`
	Goal      *Goal     `json:"goal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
