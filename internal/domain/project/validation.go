package project

import "strings"

// Answer labels accepted for the tri-state permissions questions.
const (
	AnswerUnknown = "unknown"
	AnswerNo      = "no"
	AnswerYes     = "yes"
)

// ValidateCreateInput validates fields required to create a project.
func ValidateCreateInput(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(description) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ValidateInventoryInput validates fields required for an inventory entry.
func ValidateInventoryInput(name, path string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(path) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ParseAnswer converts an answer label to a tri-state value. Unknown and the
// empty string map to nil.
func ParseAnswer(label string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", AnswerUnknown:
		return nil, nil
	case AnswerNo:
		v := false
		return &v, nil
	case AnswerYes:
		v := true
		return &v, nil
	default:
		return nil, ErrInvalidAnswer
	}
}

// AnswerLabel is the inverse of ParseAnswer.
func AnswerLabel(v *bool) string {
	switch {
	case v == nil:
		return AnswerUnknown
	case *v:
		return AnswerYes
	default:
		return AnswerNo
	}
}

// ParseRepository validates a repository choice. The empty string unsets it.
// Matching is case-insensitive; the canonical spelling is returned.
func ParseRepository(choice string) (*string, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return nil, nil
	}
	for _, name := range Repositories {
		if strings.EqualFold(name, choice) {
			canonical := name
			return &canonical, nil
		}
	}
	return nil, ErrInvalidRepository
}
