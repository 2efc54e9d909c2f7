package core

import (
	"log/slog"
	"net/url"
	"testing"

	"bluewaters/internal/types"
)

type advisoryQuery struct {
	Query string `query:"query" validate:"required"`
}

type boundedQuery struct {
	Query  string `query:"query" validate:"required,max=10"`
	Format string `query:"format" validate:"omitempty,oneof=json text"`
	Ignore int    `query:"ignore"`
}

func TestBindQuery_Success(t *testing.T) {
	v := NewValidator(slog.Default())
	var q advisoryQuery

	if err := v.BindQuery(url.Values{"query": {"Is the nitrate level safe?"}}, &q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Query != "Is the nitrate level safe?" {
		t.Errorf("unexpected bound value %q", q.Query)
	}
}

func TestBindQuery_MissingRequired(t *testing.T) {
	v := NewValidator(slog.Default())

	for name, values := range map[string]url.Values{
		"absent": {},
		"empty":  {"query": {""}},
	} {
		t.Run(name, func(t *testing.T) {
			var q advisoryQuery
			err := v.BindQuery(values, &q)

			appErr, ok := types.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != types.ErrCodeValidationMissingField {
				t.Errorf("unexpected code %q", appErr.Code)
			}
			if appErr.Message != "query query parameter is required" {
				t.Errorf("unexpected message %q", appErr.Message)
			}
			if appErr.Details["field"] != "query" {
				t.Errorf("expected field detail, got %v", appErr.Details)
			}
			if appErr.HTTPStatus() != 400 {
				t.Errorf("expected 400, got %d", appErr.HTTPStatus())
			}
		})
	}
}

func TestBindQuery_RuleFailure(t *testing.T) {
	v := NewValidator(slog.Default())

	tests := []struct {
		name     string
		values   url.Values
		wantRule string
		field    string
	}{
		{"too long", url.Values{"query": {"far too long for this"}}, "max", "query"},
		{"bad enum", url.Values{"query": {"ok"}, "format": {"xml"}}, "oneof", "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q boundedQuery
			err := v.BindQuery(tt.values, &q)

			appErr, ok := types.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != types.ErrCodeValidationInvalidQuery {
				t.Errorf("unexpected code %q", appErr.Code)
			}
			if appErr.Details["rule"] != tt.wantRule || appErr.Details["field"] != tt.field {
				t.Errorf("unexpected details %v", appErr.Details)
			}
		})
	}
}

func TestBindQuery_NonPointer(t *testing.T) {
	v := NewValidator(nil)
	err := v.BindQuery(url.Values{}, advisoryQuery{})
	if !types.IsCode(err, types.ErrCodeInternalUnexpected) {
		t.Errorf("expected internal error for non-pointer, got %v", err)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	v := NewValidator(slog.Default())
	err := v.ValidateStruct("not a struct")
	if !types.IsCode(err, types.ErrCodeInternalUnexpected) {
		t.Errorf("expected internal error, got %v", err)
	}
}
