package db

import (
	"errors"

	"github.com/lib/pq"
)

// ErrStaleState возвращается, когда условный UPDATE не затронул ни одной
// строки: строка не в ожидаемом статусе (неверный переход либо проигранная
// гонка за тот же переход).
var ErrStaleState = errors.New("row is not in the expected state")

// IsUniqueViolation проверяет нарушение уникального ограничения Postgres (23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
