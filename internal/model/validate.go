package model

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
}

type publishable struct {
	Title   string `validate:"notblank"`
	Content string `validate:"notblank"`
}

// ValidateForPublish checks that a post has a non-blank title and content.
func ValidateForPublish(in PostInput) error {
	err := validate.Struct(publishable{Title: in.Title, Content: in.Content})
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return errors.Errorf("field %s failed rule %s", vErrs[0].Field(), vErrs[0].Tag())
	}
	return err
}
