package lifecycle

import (
	"database/sql"
	"errors"
)

// Классы ошибок движка. API-слой транслирует их в HTTP-статусы,
// сам движок при любой из них откатывает транзакцию целиком.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state for transition")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// asNotFound переводит отсутствие строки в ErrNotFound,
// остальные ошибки хранилища пропускает как есть.
func asNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
