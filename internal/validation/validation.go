package validation

import "strings"

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if len(value) < n {
		v[field] = "too_short"
	}
}

func HasUppercase(field, value string, v Violations) {
	for _, r := range value {
		if r >= 'A' && r <= 'Z' {
			return
		}
	}
	v[field] = "needs_uppercase"
}

// SignupPolicy checks the signup form: username non-empty, password non-empty,
// at least 8 characters and containing at least one uppercase ASCII letter.
func SignupPolicy(username, password string) Violations {
	v := Violations{}
	Required("username", username, v)
	Required("password", password, v)
	if _, bad := v["password"]; !bad {
		MinLen("password", password, 8, v)
	}
	if _, bad := v["password"]; !bad {
		HasUppercase("password", password, v)
	}
	return v
}
