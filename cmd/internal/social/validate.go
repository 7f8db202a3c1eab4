package social

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"gqlsocial/cmd/identity"
)

// AddPostInput is the caller-supplied part of a new post.
type AddPostInput struct {
	Title string `validate:"required"`
	Body  string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// presence runs struct tag checks and maps failures to ErrInvalidInput.
func presence(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: strings.ToLower(verrs[0].Field()) + " is required"}
	}
	return identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: err.Error()}
}
