package redact

import "strings"

// Email маскирует локальную часть адреса для логов.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Login маскирует идентификатор входа (username или email).
func Login(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	if r := []rune(s); len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}
