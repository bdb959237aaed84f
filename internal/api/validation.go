package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxTranslateIDs caps a single translate request.
const MaxTranslateIDs = 100

var sourceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateSourceID checks the shape of a source id path segment.
func ValidateSourceID(id string) error {
	if !sourceIDPattern.MatchString(id) {
		return ValidationError{Field: "source", Message: "must be a lowercase source id"}
	}
	return nil
}

// ValidateTranslateRequest trims ids, rejects anything that is not a UUID,
// drops duplicates and enforces the size cap. Ids are rewritten to canonical
// lowercase form.
func ValidateTranslateRequest(req *TranslateRequest) error {
	if len(req.IDs) == 0 {
		return ValidationError{Field: "ids", Message: "at least one id is required"}
	}

	seen := make(map[string]bool, len(req.IDs))
	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return ValidationError{Field: "ids", Message: "ids must not be empty"}
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return ValidationError{Field: "ids", Message: fmt.Sprintf("%q is not a valid id", id)}
		}
		id = parsed.String()
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) > MaxTranslateIDs {
		return ValidationError{Field: "ids", Message: fmt.Sprintf("at most %d ids per request", MaxTranslateIDs)}
	}
	req.IDs = ids
	return nil
}
