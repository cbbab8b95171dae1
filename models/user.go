package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"golang.org/x/crypto/bcrypt"
)

// AdminRole grants the global administrator override.
const AdminRole = "admin"

// User is the minimal account record backing the authentication entry
// point. Profile data lives with the rest of the marketplace.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email" sql:"index"`

	EncryptedPassword string `json:"-"`

	Role string `json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return tableName("users")
}

// IsAdmin reports whether the user carries the global admin role.
func (u *User) IsAdmin() bool {
	return u.Role == AdminRole
}

// Authenticate checks the given password against the stored hash.
func (u *User) Authenticate(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.EncryptedPassword), []byte(password)) == nil
}

// SetPassword hashes and stores the given password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.EncryptedPassword = string(hash)
	return nil
}

// FindUserByEmail loads a user by email address.
func FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	user := &User{}
	if result := db.Where("email = ?", email).First(user); result.Error != nil {
		if result.RecordNotFound() {
			return nil, NotFoundError("user")
		}
		return nil, result.Error
	}
	return user, nil
}
