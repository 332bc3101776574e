package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	CreatedAt    time.Time `json:"created_at"`
}

type Post struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Subtitle    string     `json:"subTitle"`
	Body        string     `gorm:"type:text" json:"description"` // serialized HTML from the editor
	Category    Category   `gorm:"not null;index" json:"category"`
	ImageURL    string     `json:"imageURL"`
	Author      string     `json:"author"`
	IsPublished bool       `gorm:"default:false;index" json:"isPublished"`
	OwnerID     string     `gorm:"not null;index;size:36" json:"userId"` // immutable after creation
	CreatedAt   time.Time  `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"not null;index;size:36" json:"blogId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	UserID    string    `gorm:"not null;size:36" json:"userId"`
	UserEmail string    `json:"userEmail"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

// PostRead is one counted read of a published post. Repeat reads by the
// same visitor inside the throttle window are not stored.
type PostRead struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    string    `gorm:"not null;index;size:36" json:"blogId"`
	VisitorID string    `gorm:"not null;index;size:64" json:"-"`
	IP        string    `json:"-"`
	Language  *string   `json:"language,omitempty"`
	Browser   *string   `json:"browser,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

// Collection names used by the change feed.
const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	ReadsCollection    = "post_reads"
)

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Identity is the signed-in user as the rest of the application sees it.
type Identity struct {
	ID    string `json:"uid"`
	Email string `json:"email"`
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.ID != ""
}
