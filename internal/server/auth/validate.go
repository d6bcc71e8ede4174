package auth

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/localbizsite/localbiz/internal/common"
)

// Validation failure codes reported per field.
const (
	CodeRequired     = "required"
	CodeInvalidEmail = "invalid_email"
	CodeWeakPassword = "weak_password"
	CodeInvalidName  = "invalid_name"
	CodeInvalidValue = "invalid_value"
)

const (
	MinPasswordLength = 8
	MinNameLength     = 2

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// PasswordSymbols is the punctuation set a password must draw at least one
// character from.
const PasswordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

var namePattern = regexp.MustCompile(`^[\p{L}\s]+$`)

// FieldError describes one failed rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError collects every failed rule of a request in a fixed order.
// It matches common.ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return common.ErrValidation.Error()
	}
	return e.Fields[0].Message
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// Add appends a field failure.
func (e *ValidationError) Add(field, code, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: message})
}

// Err returns e when it holds failures and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email (already normalized) is a bare
// addr-spec with a dotted domain.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// PasswordWeaknesses lists the strength rules password breaks, in the order
// length, uppercase, lowercase, digit, symbol. Empty means strong enough and
// short enough to hash.
func PasswordWeaknesses(password string) []string {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}

	var out []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		out = append(out, "password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordBytes {
		out = append(out, "password must be at most 72 bytes long")
	}
	if !upper {
		out = append(out, "password must contain an uppercase letter")
	}
	if !lower {
		out = append(out, "password must contain a lowercase letter")
	}
	if !digit {
		out = append(out, "password must contain a digit")
	}
	if !symbol {
		out = append(out, "password must contain a symbol")
	}
	return out
}

// NormalizeName trims name and checks length and alphabet. ok is false when
// the name breaks either rule.
func NormalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return name, false
	}
	return name, namePattern.MatchString(name)
}

// Registration is a validated and normalized sign-up request.
type Registration struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// ValidateRegistration normalizes in and reports every failed rule.
func ValidateRegistration(in Registration) (Registration, error) {
	verr := &ValidationError{}

	name, ok := NormalizeName(in.Name)
	switch {
	case name == "":
		verr.Add("name", CodeRequired, "name is required")
	case !ok:
		verr.Add("name", CodeInvalidName, "name must be at least 2 characters and contain only letters and spaces")
	}

	email := NormalizeEmail(in.Email)
	switch {
	case email == "":
		verr.Add("email", CodeRequired, "email is required")
	case !ValidEmail(email):
		verr.Add("email", CodeInvalidEmail, "email is not a valid address")
	}

	if in.Password == "" {
		verr.Add("password", CodeRequired, "password is required")
	} else {
		for _, msg := range PasswordWeaknesses(in.Password) {
			verr.Add("password", CodeWeakPassword, msg)
		}
	}

	if err := verr.Err(); err != nil {
		return Registration{}, err
	}
	return Registration{Name: name, Email: email, Password: in.Password, Phone: strings.TrimSpace(in.Phone)}, nil
}

// ValidateLogin checks login input. Password strength is not re-checked.
func ValidateLogin(email, password string) (string, error) {
	verr := &ValidationError{}

	email = NormalizeEmail(email)
	switch {
	case email == "":
		verr.Add("email", CodeRequired, "email is required")
	case !ValidEmail(email):
		verr.Add("email", CodeInvalidEmail, "email is not a valid address")
	}
	if password == "" {
		verr.Add("password", CodeRequired, "password is required")
	}

	if err := verr.Err(); err != nil {
		return "", err
	}
	return email, nil
}
