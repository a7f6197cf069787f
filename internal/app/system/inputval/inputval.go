// Package inputval holds small, dependency-free checks for user input.
package inputval

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/dalemusser/splereg/internal/domain/models"
)

// IsValidEmail reports whether s is a bare address (no display name)
// with well-formed dot placement in both parts.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidType reports whether t is an assignable membership type.
// The empty string (pending) is valid.
func IsValidType(t string) bool {
	for _, v := range models.Types {
		if t == v {
			return true
		}
	}
	return false
}

// IsValidCategory reports whether c is one of the offered categories.
func IsValidCategory(c string) bool {
	for _, v := range models.Categories {
		if c == v {
			return true
		}
	}
	return false
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
