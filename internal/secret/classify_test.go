package secret

import "testing"

func loginForm() FormContext {
	return FormContext{ID: "login-form", Classes: []string{"auth-form"}}
}

func TestClassifyPasswordInLoginForm(t *testing.T) {
	got := Classify(loginForm(), InputNode{Type: "password", Name: "password"})
	if !got.IsSecret || got.SecretKind != "password" || got.ParameterName != "password" {
		t.Fatalf("Classify() = %+v", got)
	}
}

func TestClassifyOutsideAuthFormIsNotSecret(t *testing.T) {
	got := Classify(FormContext{ID: "newsletter-form"}, InputNode{Type: "password", Name: "password"})
	if got.IsSecret {
		t.Fatalf("Classify() = %+v, want not-secret outside auth form gate", got)
	}
}

func TestClassifyGatesOnPasswordInputEvenWithoutKeywords(t *testing.T) {
	form := FormContext{ID: "f1", HasPasswordInput: true}
	got := Classify(form, InputNode{Type: "email", Name: "user_email"})
	if !got.IsSecret || got.SecretKind != "email" {
		t.Fatalf("Classify() = %+v", got)
	}
}

func TestClassifyConfirmSuffix(t *testing.T) {
	got := Classify(loginForm(), InputNode{Type: "password", Name: "password_confirm"})
	if got.ParameterName != "password_confirm" {
		t.Fatalf("ParameterName = %q, want password_confirm", got.ParameterName)
	}
}

func TestClassifyNewSuffix(t *testing.T) {
	got := Classify(loginForm(), InputNode{Type: "password", Name: "new_password"})
	if got.ParameterName != "password_new" {
		t.Fatalf("ParameterName = %q, want password_new", got.ParameterName)
	}
}

func TestClassifyOTPRequiresMaxLengthRange(t *testing.T) {
	form := FormContext{ID: "verify-account-form"}
	tooLong := Classify(form, InputNode{Name: "verification_code", MaxLength: 20})
	if tooLong.IsSecret {
		t.Fatalf("Classify() = %+v, want not-secret when maxLength outside [4,8]", tooLong)
	}
	inRange := Classify(form, InputNode{Name: "verification_code", MaxLength: 6})
	if !inRange.IsSecret || inRange.SecretKind != "otp" {
		t.Fatalf("Classify() = %+v, want otp", inRange)
	}
}

func TestClassifyTokenKeyword(t *testing.T) {
	form := FormContext{ID: "api-login-form", HasPasswordInput: true}
	got := Classify(form, InputNode{Name: "apikey"})
	if !got.IsSecret || got.SecretKind != "token" {
		t.Fatalf("Classify() = %+v, want token", got)
	}
}

func TestClassifyNonMatchingFieldIsNotSecret(t *testing.T) {
	got := Classify(loginForm(), InputNode{Type: "text", Name: "remember_me"})
	if got.IsSecret {
		t.Fatalf("Classify() = %+v, want not-secret", got)
	}
}
