package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"archmarket/models"
)

// VisibleProjects применяет ролевое правило видимости и возвращает
// проекты с агрегатами. Дополнительные фильтры — простые конъюнктивные
// предикаты, применяются после ролевого правила, внутри запросов Store.
// Пустой результат — пустой срез, не ошибка.
func (e *Engine) VisibleProjects(ctx context.Context, actor Actor, f models.ProjectFilter) ([]models.ProjectSummary, error) {
	switch actor.Role {
	case models.RoleCustomer:
		return e.store.ListProjectsForCustomer(ctx, actor.ID, actor.Email, f)
	case models.RoleArchitect:
		return e.store.ListProjectsForArchitect(ctx, actor.ID, f)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}
}

// ProjectBids: заказчик-владелец видит все ставки проекта, архитектор —
// только собственную.
func (e *Engine) ProjectBids(ctx context.Context, actor Actor, projectID int) ([]models.Bid, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, asNotFound(err)
	}

	switch actor.Role {
	case models.RoleCustomer:
		if !ownsProject(project, actor) {
			return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
		}
		return e.store.ListBidsForProject(ctx, projectID)
	case models.RoleArchitect:
		bid, err := e.store.GetBidForArchitect(ctx, projectID, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return []models.Bid{}, nil
			}
			return nil, err
		}
		return []models.Bid{*bid}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}
}
