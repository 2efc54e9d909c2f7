package core

import (
	"errors"
	"log/slog"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"bluewaters/internal/types"
)

// Validator wraps go-playground/validator for request parameter structs.
// Field names in errors come from the `query` tag so they match what the
// client sent.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v, logger: logger}
}

// BindQuery copies string query parameters into the fields of dst (a pointer
// to a struct) named by their `query` tag, then validates dst.
func (v *Validator) BindQuery(values url.Values, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "BindQuery requires a pointer to a struct", nil)
	}
	elem := rv.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Type().Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("query"), ",")
		if name == "" || name == "-" || field.Type.Kind() != reflect.String {
			continue
		}
		elem.Field(i).SetString(values.Get(name))
	}
	return v.ValidateStruct(dst)
}

// ValidateStruct validates s and converts the first failure into a 400
// AppError naming the offending field.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			fe.Field()+" query parameter is required",
			err,
			map[string]any{"field": fe.Field()},
		)
	default:
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidQuery,
			fe.Field()+" failed "+fe.Tag()+" validation",
			err,
			map[string]any{"field": fe.Field(), "rule": fe.Tag()},
		)
	}
}
