package secret

import "strings"

// kindKeywords are tried in spec.md §4.2 priority order: password, email,
// phone, otp, token. Each table entry mirrors the teacher's builtinPatterns
// table shape (name + match data) but matches keyword membership across a
// node's descriptive fields rather than regexing free text.
var passwordKeywords = []string{
	"password", "passwd", "pwd",
	"contrasena", "clave", "mot-de-passe", "passwort", "senha",
}

var emailKeywords = []string{"email", "mail", "correo", "courriel"}

var phoneKeywords = []string{"phone", "mobile", "tel", "telefono", "telephone", "telefon"}

var otpKeywords = []string{
	"otp", "verification", "verify-code", "verifycode", "auth-code", "authcode",
	"one-time", "codigo", "code",
}

var tokenKeywords = []string{"token", "apikey", "api_key", "api-key", "secret", "access_key", "accesskey"}

var confirmModifiers = []string{"confirm", "repeat", "verify"}
var newModifiers = []string{"new"}
var oldModifiers = []string{"old", "current"}

// Classify decides whether input is a secret and, if so, what parameter
// name it binds to (spec.md §4.2).
func Classify(form FormContext, input InputNode) Classification {
	if !isAuthForm(form) {
		return Classification{IsSecret: false}
	}

	descriptors := strings.Join([]string{input.Name, input.ID, input.Placeholder, input.AriaLabel, input.Autocomplete}, " ")

	kind, ok := detectKind(input, descriptors)
	if !ok {
		return Classification{IsSecret: false}
	}

	return Classification{
		IsSecret:      true,
		SecretKind:    kind,
		ParameterName: kind + modifierSuffix(input.Name, input.ID),
	}
}

func detectKind(input InputNode, descriptors string) (string, bool) {
	if input.Type == "password" || containsAny(descriptors, passwordKeywords) {
		return "password", true
	}
	if input.Type == "email" || containsAny(descriptors, emailKeywords) {
		return "email", true
	}
	if input.Type == "tel" || containsAny(descriptors, phoneKeywords) {
		return "phone", true
	}
	if containsAny(descriptors, otpKeywords) && input.MaxLength >= 4 && input.MaxLength <= 8 {
		return "otp", true
	}
	if containsAny(descriptors, tokenKeywords) {
		return "token", true
	}
	return "", false
}

// modifierSuffix appends _confirm/_new/_old when name/id carries the
// corresponding modifier (spec.md §4.2 "Parameter naming").
func modifierSuffix(name, id string) string {
	descriptor := strings.ToLower(name + " " + id)
	switch {
	case containsAny(descriptor, confirmModifiers):
		return "_confirm"
	case containsAny(descriptor, newModifiers):
		return "_new"
	case containsAny(descriptor, oldModifiers):
		return "_old"
	}
	return ""
}
