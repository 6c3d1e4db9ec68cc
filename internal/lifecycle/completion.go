package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"archmarket/internal/notify"
	"archmarket/models"
)

// MarkCompleted фиксирует завершение взаимодействия. Вызывать может
// владелец-заказчик либо архитектор принятой ставки; недостающие id
// выводятся из проекта и принятой ставки. Повторный вызов обновляет
// ту же запись (upsert), дублей не создаётся.
func (e *Engine) MarkCompleted(ctx context.Context, projectID int, actor Actor, notes string) (*models.ProjectCompletion, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, asNotFound(err)
	}

	accepted, err := e.store.GetAcceptedBid(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: project has no accepted bid", ErrInvalidState)
		}
		return nil, err
	}

	var recipient int
	switch actor.Role {
	case models.RoleCustomer:
		if !ownsProject(project, actor) {
			return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
		}
		recipient = accepted.ArchitectID
	case models.RoleArchitect:
		if accepted.ArchitectID != actor.ID {
			return nil, fmt.Errorf("%w: caller does not hold the accepted bid", ErrForbidden)
		}
		recipient = project.CustomerID
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}

	if project.Status != models.ProjectInProgress && project.Status != models.ProjectCompleted {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidState, project.Status)
	}

	if _, err := e.store.CompleteProject(ctx, projectID, accepted.ArchitectID, project.CustomerID, notes); err != nil {
		return nil, err
	}
	pc, err := e.store.GetCompletion(ctx, projectID, accepted.ArchitectID, project.CustomerID)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, notify.NewEvent(recipient, notify.ProjectCompleted, projectID))
	return pc, nil
}

// ProjectCompletions — история взаимодействий по проекту, переживающая
// повторные открытия. Владелец-заказчик видит все записи, архитектор —
// только свои.
func (e *Engine) ProjectCompletions(ctx context.Context, actor Actor, projectID int) ([]models.ProjectCompletion, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, asNotFound(err)
	}

	switch actor.Role {
	case models.RoleCustomer:
		if !ownsProject(project, actor) {
			return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
		}
		return e.store.CompletionsForProject(ctx, projectID)
	case models.RoleArchitect:
		pcs, err := e.store.CompletionsForProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		own := []models.ProjectCompletion{}
		for _, pc := range pcs {
			if pc.ArchitectID == actor.ID {
				own = append(own, pc)
			}
		}
		return own, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}
}

type RatingInput struct {
	ProjectID           int
	Rating              int
	CommunicationRating int
	DesignQualityRating int
	TimelinessRating    int
	ValueRating         int
	Review              string
	WouldRecommend      bool
}

// validScore: 0 означает "оценка не выставлена".
func validScore(v int) bool {
	return v >= 0 && v <= 5
}

// SubmitRating сохраняет оценку заказчика по ключу (project_id,
// customer_id). Повторная отправка перезаписывает существующую оценку —
// операция идемпотентна и безопасна для повторов.
func (e *Engine) SubmitRating(ctx context.Context, actor Actor, in RatingInput) (*models.Rating, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if !validScore(in.CommunicationRating) || !validScore(in.DesignQualityRating) ||
		!validScore(in.TimelinessRating) || !validScore(in.ValueRating) {
		return nil, fmt.Errorf("%w: sub-scores must be between 1 and 5", ErrValidation)
	}

	project, err := e.store.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, asNotFound(err)
	}
	if !ownsProject(project, actor) {
		return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
	}

	accepted, err := e.store.GetAcceptedBid(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: project has no accepted bid to rate", ErrInvalidState)
		}
		return nil, err
	}

	rating := &models.Rating{
		ProjectID:           in.ProjectID,
		CustomerID:          project.CustomerID,
		ArchitectID:         accepted.ArchitectID,
		Rating:              in.Rating,
		CommunicationRating: in.CommunicationRating,
		DesignQualityRating: in.DesignQualityRating,
		TimelinessRating:    in.TimelinessRating,
		ValueRating:         in.ValueRating,
		Review:              in.Review,
		WouldRecommend:      in.WouldRecommend,
	}
	if err := e.store.SaveRating(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}
