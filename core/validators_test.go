package core_test

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type handleForm struct {
	Username string `json:"username" validate:"required,username"`
}

type pwdForm struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}

func firstFieldError(t *testing.T, err error) validator.FieldError {
	t.Helper()
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		t.Fatalf("expected validator.ValidationErrors, got %v", err)
	}
	return fieldErrs[0]
}

func TestInitValidators_usernameTag(t *testing.T) {
	validate, translator := newValidator()

	tests := []struct {
		name     string
		username string
		wantMsg  string // empty means valid
	}{
		{name: "valid handle", username: "jdoe_99"},
		{name: "uppercase rejected", username: "JDoe", wantMsg: "only lowercase letters, digits and underscores are allowed"},
		{name: "space rejected", username: "j doe", wantMsg: "only lowercase letters, digits and underscores are allowed"},
		{name: "punctuation rejected", username: "j.doe", wantMsg: "only lowercase letters, digits and underscores are allowed"},
		{name: "missing", username: "", wantMsg: "this field is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(handleForm{Username: tt.username})
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("Struct() failed: %v", err)
				}
				return
			}
			fe := firstFieldError(t, err)
			if fe.Field() != "username" {
				t.Errorf("Field() = %q, want %q", fe.Field(), "username")
			}
			if got := fe.Translate(translator); got != tt.wantMsg {
				t.Errorf("Translate() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestInitValidators_passwordMismatch(t *testing.T) {
	validate, translator := newValidator()

	err := validate.Struct(pwdForm{Password: "LordOfTheRings", PasswordConfirm: "LordOfTheRingz"})
	fe := firstFieldError(t, err)
	if fe.Field() != "password_confirm" {
		t.Errorf("Field() = %q, want %q", fe.Field(), "password_confirm")
	}
	if got, want := fe.Translate(translator), "passwords do not match"; got != want {
		t.Errorf("Translate() = %q, want %q", got, want)
	}

	if err = validate.Struct(pwdForm{Password: "LordOfTheRings", PasswordConfirm: "LordOfTheRings"}); err != nil {
		t.Errorf("Struct() failed: %v", err)
	}
}