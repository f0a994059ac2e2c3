package task

import (
	"strings"
	"unicode/utf8"
)

// Validator checks client-supplied content before the core runs. It
// returns whether the draft is acceptable and, if not, a message per
// offending field.
type Validator interface {
	Validate(d Draft) (bool, map[string]string)
}

// Content length limits enforced by ContentValidator.
const (
	MaxTextLen   = 300
	MaxNameLen   = 100
	MaxAvatarLen = 2048
)

// ContentValidator is the default Validator.
type ContentValidator struct{}

// Validate implements Validator.
func (ContentValidator) Validate(d Draft) (bool, map[string]string) {
	errs := map[string]string{}
	text := strings.TrimSpace(d.Text)
	switch {
	case text == "":
		errs["text"] = "Text field is required"
	case utf8.RuneCountInString(text) > MaxTextLen:
		errs["text"] = "Text must not exceed 300 characters"
	}
	if utf8.RuneCountInString(d.Name) > MaxNameLen {
		errs["name"] = "Name must not exceed 100 characters"
	}
	if len(d.Avatar) > MaxAvatarLen {
		errs["avatar"] = "Avatar URL is too long"
	}
	return len(errs) == 0, errs
}
