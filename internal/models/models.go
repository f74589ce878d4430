package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	Name         string    `gorm:"not null"                  json:"name"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         Role      `gorm:"type:text;not null"        json:"role"`
	CreatedAt    time.Time `gorm:"not null"                  json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TokenHash string    `gorm:"uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;index;not null" json:"ownerId"`
	StoredName   string    `gorm:"not null"                 json:"storedName"`
	OriginalName string    `gorm:"not null"                 json:"originalName"`
	SizeBytes    int64     `gorm:"not null"                 json:"sizeBytes"`
	MimeType     string    `gorm:"not null"                 json:"mimeType"`
	StoragePath  string    `gorm:"not null"                 json:"storagePath"`
	Checksum     string    `gorm:"not null;default:''"      json:"checksum"`
	UploadedAt   time.Time `gorm:"index;not null"           json:"uploadedAt"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (Document) TableName() string {
	return "documents"
}

// DocumentView is a document annotated with its owner's display fields.
type DocumentView struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"ownerId"`
	OwnerName    string    `json:"ownerName"`
	OwnerEmail   string    `json:"ownerEmail"`
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName"`
	SizeBytes    int64     `json:"sizeBytes"`
	MimeType     string    `json:"mimeType"`
	StoragePath  string    `json:"storagePath"`
	Checksum     string    `json:"checksum"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func NewDocumentView(d *Document, owner *User) DocumentView {
	v := DocumentView{
		ID:           d.ID,
		OwnerID:      d.OwnerID,
		StoredName:   d.StoredName,
		OriginalName: d.OriginalName,
		SizeBytes:    d.SizeBytes,
		MimeType:     d.MimeType,
		StoragePath:  d.StoragePath,
		Checksum:     d.Checksum,
		UploadedAt:   d.UploadedAt,
	}
	if owner != nil {
		v.OwnerName = owner.Name
		v.OwnerEmail = owner.Email
	}
	return v
}
