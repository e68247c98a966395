package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Genre values accepted on the profile.
const (
	GenreHomme        = "homme"
	GenreFemme        = "femme"
	GenreAutre        = "autre"
	GenrePreferNotSay = "prefer_not_say"
)

// User is the account model. Password holds a bcrypt hash and never leaves the server.
type User struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	FullName  string    `gorm:"size:100" json:"full_name"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Genre     string    `gorm:"size:20" json:"genre"`
	Pays      string    `gorm:"size:100" json:"pays"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Author is the public projection of a user embedded in other resources.
// It maps onto the users table and is never written through.
type Author struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Avatar   string    `json:"avatar"`
}

func (Author) TableName() string {
	return "users"
}
