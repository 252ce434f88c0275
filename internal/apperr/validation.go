package apperr

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FromValidation converts ozzo validation errors into a ValidationFailed
// error with one violation per field, sorted by field name. It returns nil
// for a nil err and StorageFailure for anything that is not a field error.
func FromValidation(err error) *Error {
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		violations := make([]Violation, 0, len(fields))
		for field, ferr := range fields {
			violations = append(violations, Violation{Field: field, Message: ferr.Error()})
		}
		sort.Slice(violations, func(i, j int) bool {
			return violations[i].Field < violations[j].Field
		})
		return Validation(violations)
	}

	var single validation.Error
	if errors.As(err, &single) {
		return Validation([]Violation{{Message: single.Error()}})
	}

	return Storage(err)
}
