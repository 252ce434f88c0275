package resource

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field bounds, counted in characters after trimming.
const (
	minTitleLength   = 5
	maxTitleLength   = 200
	minContentLength = 5
	maxContentLength = 10000
)

// Normalize trims surrounding whitespace from the text fields.
func (in *Input) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
}

// Validate checks required fields and lengths. Call Normalize first.
func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required,
			validation.RuneLength(minTitleLength, maxTitleLength),
		),
		validation.Field(&in.Content,
			validation.Required,
			validation.RuneLength(minContentLength, maxContentLength),
		),
	)
}
