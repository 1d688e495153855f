// Package validation содержит функции валидации входных данных.
package validation

import "regexp"

var (
	targetURLRe   = regexp.MustCompile(`^https?://(www\.)?(instagram\.com|facebook\.com|youtube\.com|twitter\.com|tiktok\.com)(/.*)?$`)
	usernameRefRe = regexp.MustCompile(`^@[a-zA-Z0-9_.]+$`)

	phoneRe = regexp.MustCompile(`^(010|011|012|015)\d{8}$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	loginRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`\d`)
)

// IsValidTargetLink проверяет, что цель заказа — ссылка на поддерживаемую
// платформу либо @username.
func IsValidTargetLink(link string) bool {
	if link == "" {
		return false
	}
	return targetURLRe.MatchString(link) || usernameRefRe.MatchString(link)
}

// IsValidPhoneNumber проверяет номер египетского мобильного кошелька.
func IsValidPhoneNumber(phone string) bool {
	return phoneRe.MatchString(phone)
}

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidLogin проверяет имя пользователя: 3-50 символов, латиница, цифры
// и подчёркивание.
func IsValidLogin(login string) bool {
	if len(login) < 3 || len(login) > 50 {
		return false
	}
	return loginRe.MatchString(login)
}

// IsValidPassword проверяет сложность пароля: не короче 8 символов,
// содержит заглавную и строчную буквы и цифру.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	return upperRe.MatchString(password) &&
		lowerRe.MatchString(password) &&
		digitRe.MatchString(password)
}
