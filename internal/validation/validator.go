// Package validation wraps a shared go-playground validator with the
// application's custom rules: tag colors and usernames.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	tagColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// IsTagColor reports whether s is a #RRGGBB or #RGB hex color.
func IsTagColor(s string) bool {
	return tagColorPattern.MatchString(s)
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return IsTagColor(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		register(validate)
	})
	return validate
}

// RegisterGin installs the custom rules on gin's binding validator so that
// `binding:"tagcolor"` works in request structs.
func RegisterGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

// Struct validates s and returns a single readable error, or nil.
func Struct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	return errors.New(Describe(err))
}

// Describe renders validator errors as "field: message" pairs.
func Describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Field(), translate(fe)))
	}
	return strings.Join(messages, "; ")
}

var messageTemplates = map[string]string{
	"required": "обязательное поле",
	"email":    "введите правильный адрес электронной почты",
	"tagcolor": "цвет должен быть в формате #RRGGBB или #RGB",
	"username": "допустимы только буквы, цифры и символы @/./+/-/_",
}

func translate(fe validator.FieldError) string {
	if msg, ok := messageTemplates[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min", "gte":
		return "не меньше " + fe.Param()
	case "max", "lte":
		return "не больше " + fe.Param()
	}
	return "не прошло проверку " + fe.Tag()
}
