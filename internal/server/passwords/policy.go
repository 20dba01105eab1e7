// Package passwords enforces the password strength policy, prevents recent
// reuse for privileged accounts and bounds concurrent hashing work.
package passwords

import (
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	MinLength = 8
	MaxLength = 80
)

// Rule codes reported in common.ValidationError.
const (
	RuleTooShort      = "too_short"
	RuleTooLong       = "too_long"
	RuleMissingDigit  = "missing_digit"
	RuleMissingUpper  = "missing_upper"
	RuleMissingLower  = "missing_lower"
	RuleMissingSymbol = "missing_symbol"
)

// Violations lists every policy rule password breaks, in a stable order.
// Length is counted in characters, not bytes.
func Violations(password string) []string {
	var out []string

	n := utf8.RuneCountInString(password)
	if n < MinLength {
		out = append(out, RuleTooShort)
	}
	if n > MaxLength {
		out = append(out, RuleTooLong)
	}

	var digit, upper, lower, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}

	if !digit {
		out = append(out, RuleMissingDigit)
	}
	if !upper {
		out = append(out, RuleMissingUpper)
	}
	if !lower {
		out = append(out, RuleMissingLower)
	}
	if !symbol {
		out = append(out, RuleMissingSymbol)
	}
	return out
}

// Validate returns a *common.ValidationError on field when password breaks
// the policy.
func Validate(field, password string) error {
	rules := Violations(password)
	if len(rules) == 0 {
		return nil
	}
	v := common.NewValidationError()
	v.Add(field, rules...)
	return v
}
