package persistence

import (
	"errors"
	"strings"

	"github.com/atency/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// isUniqueViolation recognizes duplicate key failures. TranslateError maps
// them to gorm.ErrDuplicatedKey; the message checks cover connections opened
// without translation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry")
}

// translateWriteError converts a unique violation into a CONFLICT DomainError.
func translateWriteError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return shared.NewConflictError(conflictMessage).WithCause(err)
	}
	return err
}
