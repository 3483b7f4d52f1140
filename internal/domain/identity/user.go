package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atency/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// BcryptCost is the work factor used for new password hashes
const BcryptCost = 12

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 5
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
	maxFullNameLength = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is a registered account. Username is immutable once created.
type User struct {
	shared.BaseEntity
	Username     string
	PasswordHash string
	FullName     string
	Role         Role
}

// NewUser validates input and creates a user with a bcrypt password hash.
func NewUser(username, password, fullName string, role Role, now time.Time) (*User, error) {
	username = NormalizeUsername(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	fullName = NormalizeFullName(fullName)
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewBadRequestError("Invalid role")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, shared.NewInternalError("Failed to hash password", err)
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(now),
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
	}, nil
}

// VerifyPassword verifies if the provided password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user holds the ADMIN role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HashPassword hashes a plaintext password with BcryptCost
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NormalizeUsername trims and lower-cases a username. Lookups use the same form.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeFullName applies NFC normalization, collapses inner whitespace and
// title-cases each word.
func NormalizeFullName(fullName string) string {
	fields := strings.Fields(norm.NFC.String(fullName))
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}

func ValidateUsername(username string) error {
	if username == "" {
		return shared.NewBadRequestError("Username cannot be empty")
	}
	if len(username) < minUsernameLength {
		return shared.NewBadRequestError("Username must be at least 3 characters")
	}
	if len(username) > maxUsernameLength {
		return shared.NewBadRequestError("Username cannot exceed 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewBadRequestError("Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewBadRequestError("Password must be at least 5 characters")
	}
	if len(password) > maxPasswordLength {
		return shared.NewBadRequestError("Password cannot exceed 72 bytes")
	}
	return nil
}

func validateFullName(fullName string) error {
	if fullName == "" {
		return shared.NewBadRequestError("Full name cannot be empty")
	}
	if utf8.RuneCountInString(fullName) > maxFullNameLength {
		return shared.NewBadRequestError("Full name cannot exceed 100 characters")
	}
	return nil
}
