package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

type appValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func (v *appValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// translate renders a field error with the english messages.
func (v *appValidator) translate(fe validator.FieldError) string {
	return fe.Translate(v.trans)
}

func newAppValidator() *appValidator {
	validate := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &appValidator{validate: validate, trans: trans}
}
