package models

import (
	"github.com/atency/backend/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	BaseModel
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex:uk_users_username"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	FullName     string `gorm:"type:varchar(100);not null"`
	Role         string `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain user
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		FullName:     m.FullName,
		Role:         identity.Role(m.Role),
	}
}

// UserModelFromDomain creates a persistence model from a domain user
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         string(u.Role),
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
