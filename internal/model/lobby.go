package model

import "strings"

// SessionCode is the human-shareable join code of a session
type SessionCode string

// NormalizeCode upper-cases and trims a code typed by a person
func NormalizeCode(code string) SessionCode {
	return SessionCode(strings.ToUpper(strings.TrimSpace(code)))
}
