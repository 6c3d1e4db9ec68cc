package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"archmarket/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// User (Пользователь)

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (email, name, role)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, u.Email, u.Name, u.Role).
		Scan(&u.ID, &u.CreatedAt)
}

func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE id=$1`
	err := s.db.GetContext(ctx, u, query, id)
	return u, err
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE email=$1`
	err := s.db.GetContext(ctx, u, query, email)
	return u, err
}

// Project (Проект)

func (s *Storage) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
        INSERT INTO projects
            (customer_id, customer_email, title, description, project_type, location,
             area, budget_min, budget_max, timeline, requirements, priority, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		p.CustomerID, p.CustomerEmail, p.Title, p.Description, p.ProjectType, p.Location,
		p.Area, p.BudgetMin, p.BudgetMax, p.Timeline, p.Requirements, p.Priority, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Storage) GetProject(ctx context.Context, id int) (*models.Project, error) {
	p := &models.Project{}
	query := `SELECT * FROM projects WHERE id=$1`
	err := s.db.GetContext(ctx, p, query, id)
	return p, err
}

// Bid (Предложение)

func (s *Storage) CreateBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bids
            (project_id, architect_id, bid_amount, estimated_duration,
             proposal_description, experience_note, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		b.ProjectID, b.ArchitectID, b.BidAmount, b.EstimatedDuration,
		b.ProposalDescription, b.ExperienceNote, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (s *Storage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT * FROM bids WHERE id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, err
}

func (s *Storage) GetBidForArchitect(ctx context.Context, projectID, architectID int) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT * FROM bids WHERE project_id=$1 AND architect_id=$2`
	err := s.db.GetContext(ctx, b, query, projectID, architectID)
	return b, err
}

func (s *Storage) GetAcceptedBid(ctx context.Context, projectID int) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT * FROM bids WHERE project_id=$1 AND status='accepted'`
	err := s.db.GetContext(ctx, b, query, projectID)
	return b, err
}

func (s *Storage) ListBidsForProject(ctx context.Context, projectID int) ([]models.Bid, error) {
	bids := []models.Bid{}
	query := `SELECT * FROM bids WHERE project_id=$1 ORDER BY created_at ASC`
	err := s.db.SelectContext(ctx, &bids, query, projectID)
	return bids, err
}

// Rating (Оценка)

func (s *Storage) GetRating(ctx context.Context, projectID, customerID int) (*models.Rating, error) {
	r := &models.Rating{}
	query := `SELECT * FROM ratings WHERE project_id=$1 AND customer_id=$2`
	err := s.db.GetContext(ctx, r, query, projectID, customerID)
	return r, err
}

func (s *Storage) RatingsForArchitect(ctx context.Context, architectID int) ([]models.Rating, error) {
	ratings := []models.Rating{}
	query := `SELECT * FROM ratings WHERE architect_id=$1 ORDER BY created_at DESC`
	err := s.db.SelectContext(ctx, &ratings, query, architectID)
	return ratings, err
}

// ProjectCompletion (Запись о завершении)

func (s *Storage) GetCompletion(ctx context.Context, projectID, architectID, customerID int) (*models.ProjectCompletion, error) {
	pc := &models.ProjectCompletion{}
	query := `
        SELECT * FROM project_completions
        WHERE project_id=$1 AND architect_id=$2 AND customer_id=$3`
	err := s.db.GetContext(ctx, pc, query, projectID, architectID, customerID)
	return pc, err
}

func (s *Storage) CompletionsForProject(ctx context.Context, projectID int) ([]models.ProjectCompletion, error) {
	pcs := []models.ProjectCompletion{}
	query := `SELECT * FROM project_completions WHERE project_id=$1 ORDER BY created_at ASC`
	err := s.db.SelectContext(ctx, &pcs, query, projectID)
	return pcs, err
}
