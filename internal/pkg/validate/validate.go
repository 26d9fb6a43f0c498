package validate

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxRunes counts characters, not bytes, so accented titles are measured the
// way users type them.
func MaxRunes(value string, limit int) bool {
	return utf8.RuneCountInString(value) <= limit
}

// Email accepts a bare addr-spec ("name@host.tld"); display names are refused.
func Email(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	at := strings.LastIndexByte(value, '@')
	return at > 0 && strings.Contains(value[at+1:], ".")
}
