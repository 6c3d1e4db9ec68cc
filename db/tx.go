package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"archmarket/models"
)

// runTx выполняет fn внутри одной транзакции. Любая ошибка откатывает
// транзакцию целиком, частично применённых переходов не бывает.
func (s *Storage) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// execExpectRow выполняет условный UPDATE и возвращает ErrStaleState,
// если не было затронуто ни одной строки.
func execExpectRow(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleState
	}
	return nil
}

// AcceptBid атомарно принимает ставку: проект open -> in_progress,
// ставка pending -> accepted, остальные pending-ставки проекта -> rejected,
// плюс запись о начавшемся взаимодействии в project_completions.
// Условие status='open' на проекте гарантирует, что из двух конкурирующих
// принятий зафиксируется только первое, второе получит ErrStaleState.
// Возвращает ставки, которые были автоматически отклонены.
func (s *Storage) AcceptBid(ctx context.Context, bidID, projectID, architectID, customerID int) ([]models.BidRef, error) {
	var rejected []models.BidRef
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		err := execExpectRow(ctx, tx, `
            UPDATE projects SET status='in_progress', updated_at=NOW()
            WHERE id=$1 AND status='open'`, projectID)
		if err != nil {
			return err
		}

		err = execExpectRow(ctx, tx, `
            UPDATE bids SET status='accepted', updated_at=NOW()
            WHERE id=$1 AND status='pending'`, bidID)
		if err != nil {
			return err
		}

		query := `
            UPDATE bids SET status='rejected', updated_at=NOW()
            WHERE project_id=$1 AND id<>$2 AND status='pending'
            RETURNING id, architect_id`
		if err := tx.SelectContext(ctx, &rejected, query, projectID, bidID); err != nil {
			return err
		}

		query = `
            INSERT INTO project_completions
                (project_id, architect_id, customer_id, completion_status)
            VALUES ($1, $2, $3, 'in_progress')
            ON CONFLICT (project_id, architect_id, customer_id)
            DO UPDATE SET completion_status='in_progress', updated_at=NOW()`
		_, err = tx.ExecContext(ctx, query, projectID, architectID, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// RejectBid переводит ставку pending -> rejected.
func (s *Storage) RejectBid(ctx context.Context, bidID int) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		return execExpectRow(ctx, tx, `
            UPDATE bids SET status='rejected', updated_at=NOW()
            WHERE id=$1 AND status='pending'`, bidID)
	})
}

// WithdrawBid переводит ставку pending -> withdrawn.
func (s *Storage) WithdrawBid(ctx context.Context, bidID int) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		return execExpectRow(ctx, tx, `
            UPDATE bids SET status='withdrawn', updated_at=NOW()
            WHERE id=$1 AND status='pending'`, bidID)
	})
}

// ReopenProject атомарно отменяет текущее взаимодействие: проект
// in_progress -> open, принятые ставки -> rejected, активная запись о
// завершении помечается cancelled. Ранее отклонённые ставки не
// восстанавливаются — архитекторам нужно подавать новые.
// Возвращает отклонённые принятые ставки.
func (s *Storage) ReopenProject(ctx context.Context, projectID int) ([]models.BidRef, error) {
	var rejected []models.BidRef
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		err := execExpectRow(ctx, tx, `
            UPDATE projects SET status='open', updated_at=NOW()
            WHERE id=$1 AND status='in_progress'`, projectID)
		if err != nil {
			return err
		}

		query := `
            UPDATE bids SET status='rejected', updated_at=NOW()
            WHERE project_id=$1 AND status='accepted'
            RETURNING id, architect_id`
		if err := tx.SelectContext(ctx, &rejected, query, projectID); err != nil {
			return err
		}

		query = `
            UPDATE project_completions
            SET completion_status='cancelled', updated_at=NOW()
            WHERE project_id=$1 AND completion_status='in_progress'`
		_, err = tx.ExecContext(ctx, query, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// CompleteProject атомарно фиксирует завершение взаимодействия: upsert
// записи о завершении по ключу (project_id, architect_id, customer_id)
// и перевод проекта в completed. Повторный вызов обновляет ту же запись.
func (s *Storage) CompleteProject(ctx context.Context, projectID, architectID, customerID int, notes string) (int, error) {
	var id int
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO project_completions
                (project_id, architect_id, customer_id, completion_status,
                 completion_date, rating_requested, notes)
            VALUES ($1, $2, $3, 'completed', NOW(), TRUE, $4)
            ON CONFLICT (project_id, architect_id, customer_id)
            DO UPDATE SET
                completion_status='completed',
                completion_date=NOW(),
                rating_requested=TRUE,
                notes=EXCLUDED.notes,
                updated_at=NOW()
            RETURNING id`
		err := tx.QueryRowContext(ctx, query, projectID, architectID, customerID, notes).Scan(&id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
            UPDATE projects SET status='completed', updated_at=NOW()
            WHERE id=$1`, projectID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SaveRating атомарно сохраняет оценку: upsert по ключу
// (project_id, customer_id) — повторная отправка перезаписывает поля,
// затем в соответствующей записи о завершении выставляется
// rating_submitted. Последняя запись выигрывает, ошибок гонки нет.
func (s *Storage) SaveRating(ctx context.Context, r *models.Rating) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO ratings
                (project_id, customer_id, architect_id, rating,
                 communication_rating, design_quality_rating, timeliness_rating,
                 value_rating, review, would_recommend)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            ON CONFLICT (project_id, customer_id)
            DO UPDATE SET
                architect_id=EXCLUDED.architect_id,
                rating=EXCLUDED.rating,
                communication_rating=EXCLUDED.communication_rating,
                design_quality_rating=EXCLUDED.design_quality_rating,
                timeliness_rating=EXCLUDED.timeliness_rating,
                value_rating=EXCLUDED.value_rating,
                review=EXCLUDED.review,
                would_recommend=EXCLUDED.would_recommend,
                updated_at=NOW()
            RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			r.ProjectID, r.CustomerID, r.ArchitectID, r.Rating,
			r.CommunicationRating, r.DesignQualityRating, r.TimelinessRating,
			r.ValueRating, r.Review, r.WouldRecommend).
			Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
            UPDATE project_completions
            SET rating_submitted=TRUE, updated_at=NOW()
            WHERE project_id=$1 AND customer_id=$2`, r.ProjectID, r.CustomerID)
		return err
	})
}
