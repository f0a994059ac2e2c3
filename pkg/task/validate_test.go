package task

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentValidator(t *testing.T) {
	tests := []struct {
		name   string
		draft  Draft
		ok     bool
		fields []string
	}{
		{"short text", Draft{Text: "hello"}, true, nil},
		{"empty text", Draft{}, false, []string{"text"}},
		{"blank text", Draft{Text: "   \n"}, false, []string{"text"}},
		{"text at limit", Draft{Text: strings.Repeat("é", MaxTextLen)}, true, nil},
		{"text too long", Draft{Text: strings.Repeat("a", MaxTextLen+1)}, false, []string{"text"}},
		{"name too long", Draft{Text: "x", Name: strings.Repeat("n", MaxNameLen+1)}, false, []string{"name"}},
		{"avatar too long", Draft{Text: "x", Avatar: strings.Repeat("a", MaxAvatarLen+1)}, false, []string{"avatar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, errs := ContentValidator{}.Validate(tt.draft)
			assert.Equal(t, tt.ok, ok)
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"text": "Text field is required", "avatar": "bad"}}
	assert.Equal(t, "invalid input: avatar: bad; text: Text field is required", err.Error())
}
