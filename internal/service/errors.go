package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuthorization
	KindUnauthenticated
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Error is a domain error with a stable code and a user-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrEmptyTagSet           = newError(KindValidation, "empty_tag_set", "Нужно выбрать хотя бы один тег")
	ErrUnknownTag            = newError(KindValidation, "unknown_tag", "Тег не найден")
	ErrEmptyIngredientSet    = newError(KindValidation, "empty_ingredient_set", "Нужен хотя бы один ингредиент")
	ErrDuplicateIngredient   = newError(KindValidation, "duplicate_ingredient", "Ингредиенты не должны повторяться")
	ErrNonPositiveAmount     = newError(KindValidation, "non_positive_amount", "Количество ингредиента должно быть больше нуля")
	ErrUnknownIngredient     = newError(KindValidation, "unknown_ingredient", "Ингредиент не найден")
	ErrCookingTimeOutOfRange = newError(KindValidation, "cooking_time_out_of_range", "Время приготовления должно быть от 1 до 300 минут")
	ErrInvalidColor          = newError(KindValidation, "invalid_color", "Цвет должен быть в формате #RRGGBB или #RGB")
	ErrInvalidImage          = newError(KindValidation, "invalid_image", "Некорректное изображение")
	ErrInvalidInput          = newError(KindValidation, "invalid_input", "Некорректные данные")
	ErrWrongPassword         = newError(KindValidation, "wrong_password", "Неверный текущий пароль")

	ErrAlreadyExists    = newError(KindConflict, "already_exists", "Уже добавлено")
	ErrSelfSubscription = newError(KindValidation, "self_subscription", "Нельзя подписаться на самого себя")
	ErrEmailTaken       = newError(KindConflict, "email_taken", "Пользователь с таким email уже существует")
	ErrUsernameTaken    = newError(KindConflict, "username_taken", "Пользователь с таким именем уже существует")

	ErrNotFound = newError(KindNotFound, "not_found", "Не найдено")

	ErrForbidden = newError(KindAuthorization, "forbidden", "Недостаточно прав")

	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid_credentials", "Неверный email или пароль")
	ErrUnauthenticated    = newError(KindUnauthenticated, "unauthenticated", "Учетные данные не были предоставлены")

	ErrIntegrity = newError(KindIntegrity, "integrity", "Нарушена целостность данных")
)

type detailedError struct {
	base *Error
	msg  string
}

func (d *detailedError) Error() string { return d.msg }
func (d *detailedError) Unwrap() error { return d.base }

// Detail replaces the user-facing message of base while keeping errors.Is(err, base).
func Detail(base *Error, format string, args ...interface{}) error {
	return &detailedError{base: base, msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of the first domain error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError returns the first domain error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

// translateStorageError turns storage failures into the nearest domain error.
// onDuplicate is returned for unique violations.
func translateStorageError(err error, onDuplicate error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return onDuplicate
	case errors.Is(err, gorm.ErrCheckConstraintViolated), isCheckViolation(err):
		return checkViolation(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), isForeignKeyViolation(err):
		return ErrNotFound
	}
	return err
}

func checkViolation(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "chk_subscriptions_no_self"):
		return ErrSelfSubscription
	case strings.Contains(msg, "chk_recipes_cooking_time"):
		return ErrCookingTimeOutOfRange
	case strings.Contains(msg, "chk_ingredient_lines_amount"):
		return ErrNonPositiveAmount
	}
	return ErrIntegrity
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

func isCheckViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "check constraint") || strings.Contains(msg, "sqlstate 23514")
}

func isForeignKeyViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "sqlstate 23503")
}
