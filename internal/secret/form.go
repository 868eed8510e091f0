// Package secret implements the secret classifier (spec.md §4.2, C2):
// decide whether a recorded input value is a secret and, if so, what
// parameter name it binds to. Generalized from the teacher's
// internal/redaction/redaction.go table-driven pattern matcher — there a
// table of regexes redacts literal text after the fact; here a table of
// keyword sets classifies a live input node before its value is ever
// written to a scenario.
package secret

import "strings"

// FormContext describes the nearest enclosing form of the input being
// classified, gathered by the recorder at capture time.
type FormContext struct {
	ID        string
	Action    string
	Classes   []string
	AriaLabel string
	Title     string
	// HasPasswordInput is true when the form contains at least one
	// input of type password, which alone gates classification even
	// absent any keyword match (spec.md §4.2 "Gate").
	HasPasswordInput bool
}

// InputNode describes the input being classified.
type InputNode struct {
	Type        string // HTML input type attribute, lowercased
	Name        string
	ID          string
	Placeholder string
	AriaLabel   string
	Autocomplete string
	MaxLength   int // 0 means unset
}

// Classification is the classifier's verdict.
type Classification struct {
	IsSecret      bool
	SecretKind    string
	ParameterName string
}

// authKeywords gate whether a form is an authentication form. Multilingual
// terms supplement the teacher's English-only redaction vocabulary per
// spec.md §4.2 ("the supported language set").
var authKeywords = []string{
	// English
	"login", "log-in", "signin", "sign-in", "signup", "sign-up",
	"register", "registration", "forgot", "reset", "recover", "recovery",
	"verify", "verification", "confirm", "confirmation", "auth",
	// Spanish
	"iniciar-sesion", "iniciarsesion", "registrar", "olvide", "restablecer", "verificar",
	// French
	"connexion", "inscription", "oublie", "reinitialiser", "verifier",
	// German
	"anmelden", "registrieren", "vergessen", "zurucksetzen", "bestatigen",
	// Portuguese
	"entrar", "cadastro", "esqueci", "redefinir", "confirmar",
}

// isAuthForm reports whether form is an authentication form: any of its
// id/action/classes/aria-label/title contains an auth keyword, or it
// contains a password-type input (spec.md §4.2 "Gate").
func isAuthForm(form FormContext) bool {
	if form.HasPasswordInput {
		return true
	}
	haystacks := make([]string, 0, len(form.Classes)+4)
	haystacks = append(haystacks, form.ID, form.Action, form.AriaLabel, form.Title)
	haystacks = append(haystacks, form.Classes...)

	for _, h := range haystacks {
		normalized := strings.ToLower(h)
		for _, kw := range authKeywords {
			if strings.Contains(normalized, kw) {
				return true
			}
		}
	}
	return false
}

func containsAny(haystack string, keywords []string) bool {
	h := strings.ToLower(haystack)
	for _, kw := range keywords {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}
