package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"archmarket/db"
	"archmarket/internal/notify"
	"archmarket/models"
)

// Actor — предаутентифицированный вызывающий. Подлинность проверяет
// внешний слой, движок доверяет этим данным.
type Actor struct {
	ID    int
	Email string
	Role  string
}

// Store — интерфейс хранилища, который нужен движку.
// Реализуется db.Storage; составные методы (AcceptBid, ReopenProject,
// CompleteProject, SaveRating) обязаны выполняться в одной транзакции.
type Store interface {
	GetProject(ctx context.Context, id int) (*models.Project, error)
	GetBid(ctx context.Context, id int) (*models.Bid, error)
	GetBidForArchitect(ctx context.Context, projectID, architectID int) (*models.Bid, error)
	GetAcceptedBid(ctx context.Context, projectID int) (*models.Bid, error)
	CreateBid(ctx context.Context, b *models.Bid) error
	AcceptBid(ctx context.Context, bidID, projectID, architectID, customerID int) ([]models.BidRef, error)
	RejectBid(ctx context.Context, bidID int) error
	WithdrawBid(ctx context.Context, bidID int) error
	ReopenProject(ctx context.Context, projectID int) ([]models.BidRef, error)
	CompleteProject(ctx context.Context, projectID, architectID, customerID int, notes string) (int, error)
	GetCompletion(ctx context.Context, projectID, architectID, customerID int) (*models.ProjectCompletion, error)
	CompletionsForProject(ctx context.Context, projectID int) ([]models.ProjectCompletion, error)
	SaveRating(ctx context.Context, r *models.Rating) error
	GetRating(ctx context.Context, projectID, customerID int) (*models.Rating, error)
	RatingsForArchitect(ctx context.Context, architectID int) ([]models.Rating, error)
	ListProjectsForCustomer(ctx context.Context, customerID int, email string, f models.ProjectFilter) ([]models.ProjectSummary, error)
	ListProjectsForArchitect(ctx context.Context, architectID int, f models.ProjectFilter) ([]models.ProjectSummary, error)
	ListBidsForProject(ctx context.Context, projectID int) ([]models.Bid, error)
}

// Engine реализует жизненный цикл проект/ставка/оценка поверх Store.
type Engine struct {
	store    Store
	notifier notify.Notifier
}

func NewEngine(store Store, notifier notify.Notifier) *Engine {
	return &Engine{store: store, notifier: notifier}
}

// ownsProject: авторитетен customer_id, customer_email оставлен
// как legacy-путь поиска.
func ownsProject(p *models.Project, actor Actor) bool {
	if p.CustomerID == actor.ID {
		return true
	}
	return actor.Email != "" && p.CustomerEmail == actor.Email
}

// emit отправляет событие уведомления после успешного перехода.
// Ошибка доставки логируется и не влияет на результат.
func (e *Engine) emit(ctx context.Context, ev notify.Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, ev); err != nil {
		log.Printf("notify failed: type=%s recipient=%d: %v", ev.Type, ev.RecipientUserID, err)
	}
}

type SubmitBidInput struct {
	ProjectID           int
	BidAmount           int
	EstimatedDuration   string
	ProposalDescription string
	ExperienceNote      string
}

// SubmitBid создает pending-ставку архитектора на открытый проект.
// Повторная ставка того же архитектора на тот же проект — ErrConflict.
func (e *Engine) SubmitBid(ctx context.Context, actor Actor, in SubmitBidInput) (*models.Bid, error) {
	if in.BidAmount <= 0 {
		return nil, fmt.Errorf("%w: bidAmount must be positive", ErrValidation)
	}
	if in.EstimatedDuration == "" {
		return nil, fmt.Errorf("%w: estimatedDuration is required", ErrValidation)
	}
	if in.ProposalDescription == "" {
		return nil, fmt.Errorf("%w: proposalDescription is required", ErrValidation)
	}

	project, err := e.store.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, asNotFound(err)
	}
	if project.Status != models.ProjectOpen {
		return nil, fmt.Errorf("%w: project is not open for bidding", ErrNotFound)
	}

	if _, err := e.store.GetBidForArchitect(ctx, in.ProjectID, actor.ID); err == nil {
		return nil, fmt.Errorf("%w: bid already submitted for this project", ErrConflict)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	bid := &models.Bid{
		ProjectID:           in.ProjectID,
		ArchitectID:         actor.ID,
		BidAmount:           in.BidAmount,
		EstimatedDuration:   in.EstimatedDuration,
		ProposalDescription: in.ProposalDescription,
		ExperienceNote:      in.ExperienceNote,
		Status:              models.BidPending,
	}
	if err := e.store.CreateBid(ctx, bid); err != nil {
		// Гонка двух одновременных ставок одной пары: предварительная
		// проверка её не ловит, уникальный индекс — ловит.
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: bid already submitted for this project", ErrConflict)
		}
		return nil, err
	}

	e.emit(ctx, notify.NewEvent(project.CustomerID, notify.BidSubmitted, bid.ID))
	return bid, nil
}

// DecideBid принимает либо отклоняет ставку. Принятие атомарно переводит
// проект в in_progress и отклоняет остальные pending-ставки; из двух
// конкурирующих принятий фиксируется только первое, второе получает
// ErrInvalidState.
func (e *Engine) DecideBid(ctx context.Context, bidID int, actor Actor, decision string) (*models.Bid, error) {
	if decision != models.BidAccepted && decision != models.BidRejected {
		return nil, fmt.Errorf("%w: decision must be accepted or rejected", ErrValidation)
	}

	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, asNotFound(err)
	}
	project, err := e.store.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, asNotFound(err)
	}
	if !ownsProject(project, actor) {
		return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
	}
	if bid.Status != models.BidPending {
		return nil, fmt.Errorf("%w: bid is already %s", ErrInvalidState, bid.Status)
	}

	if decision == models.BidRejected {
		if err := e.store.RejectBid(ctx, bid.ID); err != nil {
			if errors.Is(err, db.ErrStaleState) {
				return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidState)
			}
			return nil, err
		}
		bid.Status = models.BidRejected
		e.emit(ctx, notify.NewEvent(bid.ArchitectID, notify.BidRejected, bid.ID))
		return bid, nil
	}

	if project.Status != models.ProjectOpen {
		return nil, fmt.Errorf("%w: project is not open", ErrInvalidState)
	}
	rejected, err := e.store.AcceptBid(ctx, bid.ID, project.ID, bid.ArchitectID, project.CustomerID)
	if err != nil {
		if errors.Is(err, db.ErrStaleState) {
			return nil, fmt.Errorf("%w: project is no longer open", ErrInvalidState)
		}
		return nil, err
	}
	bid.Status = models.BidAccepted

	e.emit(ctx, notify.NewEvent(bid.ArchitectID, notify.BidAccepted, bid.ID))
	for _, r := range rejected {
		e.emit(ctx, notify.NewEvent(r.ArchitectID, notify.BidRejected, r.ID))
	}
	return bid, nil
}

// CancelProject возвращает in_progress-проект в open и отклоняет принятую
// ставку, полностью отменяя эффекты принятия. Ставки, отклонённые
// автоматически при принятии, не восстанавливаются.
func (e *Engine) CancelProject(ctx context.Context, projectID int, actor Actor) (*models.Project, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, asNotFound(err)
	}
	if !ownsProject(project, actor) {
		return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
	}
	if project.Status != models.ProjectInProgress {
		return nil, fmt.Errorf("%w: project is not in progress", ErrInvalidState)
	}

	rejected, err := e.store.ReopenProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, db.ErrStaleState) {
			return nil, fmt.Errorf("%w: project is not in progress", ErrInvalidState)
		}
		return nil, err
	}
	project.Status = models.ProjectOpen

	for _, r := range rejected {
		e.emit(ctx, notify.NewEvent(r.ArchitectID, notify.BidRejected, r.ID))
	}
	return project, nil
}

// WithdrawBid — архитектор отзывает собственную pending-ставку.
func (e *Engine) WithdrawBid(ctx context.Context, bidID int, actor Actor) (*models.Bid, error) {
	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, asNotFound(err)
	}
	if bid.ArchitectID != actor.ID {
		return nil, fmt.Errorf("%w: bid is not owned by the caller", ErrForbidden)
	}
	if bid.Status != models.BidPending {
		return nil, fmt.Errorf("%w: bid is already %s", ErrInvalidState, bid.Status)
	}

	if err := e.store.WithdrawBid(ctx, bid.ID); err != nil {
		if errors.Is(err, db.ErrStaleState) {
			return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidState)
		}
		return nil, err
	}
	bid.Status = models.BidWithdrawn
	return bid, nil
}
