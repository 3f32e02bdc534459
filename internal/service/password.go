package service

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword хэширует пароль с помощью bcrypt.
// Стоимость задаётся конфигурацией (bcrypt_cost); соль генерируется
// внутри алгоритма, поэтому два вызова с одним паролем дают разные хэши.
// Единственная ошибка уровня бизнес-логики — пустой пароль.
func (s *Service) hashPassword(password string) (string, error) {
	const op = "service.password.hashPassword"

	if password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
// Несовпадение — это false, а не ошибка.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.password.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
