package db

import (
	"context"
	"fmt"
	"strings"

	"archmarket/models"
)

const projectSummaryColumns = `
    p.*,
    COUNT(DISTINCT b.id) AS bid_count,
    ab.id AS accepted_bid_id,
    ab.bid_amount AS accepted_bid_amount,
    ab.architect_id AS accepted_architect_id`

// appendProjectFilters добавляет условия из фильтра к WHERE.
// Статус обрабатывается вызывающей стороной: для архитектора он меняет
// само правило видимости, а не просто сужает выборку.
func appendProjectFilters(conds []string, args []interface{}, f models.ProjectFilter) ([]string, []interface{}) {
	if f.ProjectType != "" {
		args = append(args, f.ProjectType)
		conds = append(conds, fmt.Sprintf("p.project_type = $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		conds = append(conds, fmt.Sprintf("p.location ILIKE $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		conds = append(conds, fmt.Sprintf("p.priority = $%d", len(args)))
	}
	if f.CustomerName != "" {
		args = append(args, "%"+f.CustomerName+"%")
		conds = append(conds, fmt.Sprintf("u.name ILIKE $%d", len(args)))
	}
	if f.BudgetMin > 0 {
		args = append(args, f.BudgetMin)
		conds = append(conds, fmt.Sprintf("p.budget_max >= $%d", len(args)))
	}
	if f.BudgetMax > 0 {
		args = append(args, f.BudgetMax)
		conds = append(conds, fmt.Sprintf("p.budget_min <= $%d", len(args)))
	}
	if f.AreaMin > 0 {
		args = append(args, f.AreaMin)
		conds = append(conds, fmt.Sprintf("p.area >= $%d", len(args)))
	}
	if f.AreaMax > 0 {
		args = append(args, f.AreaMax)
		conds = append(conds, fmt.Sprintf("p.area <= $%d", len(args)))
	}
	return conds, args
}

// ListProjectsForCustomer возвращает проекты заказчика (по id либо по
// legacy-полю customer_email) с числом ставок и данными принятой ставки.
// При пустом email сравнение по customer_email не выполняется: колонка
// NOT NULL DEFAULT '', и '' = '' отдал бы чужие проекты.
func (s *Storage) ListProjectsForCustomer(ctx context.Context, customerID int, email string, f models.ProjectFilter) ([]models.ProjectSummary, error) {
	args := []interface{}{customerID}
	conds := []string{"p.customer_id = $1"}
	if email != "" {
		args = append(args, email)
		conds[0] = "(p.customer_id = $1 OR p.customer_email = $2)"
	}

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}
	conds, args = appendProjectFilters(conds, args, f)

	query := `
        SELECT` + projectSummaryColumns + `
        FROM projects p
        JOIN users u ON u.id = p.customer_id
        LEFT JOIN bids b ON b.project_id = p.id
        LEFT JOIN bids ab ON ab.project_id = p.id AND ab.status = 'accepted'
        WHERE ` + strings.Join(conds, " AND ") + `
        GROUP BY p.id, ab.id
        ORDER BY p.created_at DESC`

	projects := []models.ProjectSummary{}
	err := s.db.SelectContext(ctx, &projects, query, args...)
	return projects, err
}

// ListProjectsForArchitect возвращает проекты, видимые архитектору.
// Без фильтра статуса (или со статусом open) — открытые проекты плюс
// проекты с принятой ставкой этого архитектора, чтобы текущая работа не
// пропадала из списка после ухода проекта из open. С явным фильтром
// in_progress/completed — только проекты этого статуса, где принята
// ставка именно этого архитектора.
func (s *Storage) ListProjectsForArchitect(ctx context.Context, architectID int, f models.ProjectFilter) ([]models.ProjectSummary, error) {
	args := []interface{}{architectID}
	var conds []string

	if f.Status == "" || f.Status == models.ProjectOpen {
		conds = append(conds, "(p.status = 'open' OR ab.architect_id = $1)")
	} else {
		args = append(args, f.Status)
		conds = append(conds, "ab.architect_id = $1", fmt.Sprintf("p.status = $%d", len(args)))
	}
	conds, args = appendProjectFilters(conds, args, f)

	query := `
        SELECT` + projectSummaryColumns + `
        FROM projects p
        JOIN users u ON u.id = p.customer_id
        LEFT JOIN bids b ON b.project_id = p.id
        LEFT JOIN bids ab ON ab.project_id = p.id AND ab.status = 'accepted'
        WHERE ` + strings.Join(conds, " AND ") + `
        GROUP BY p.id, ab.id
        ORDER BY p.created_at DESC`

	projects := []models.ProjectSummary{}
	err := s.db.SelectContext(ctx, &projects, query, args...)
	return projects, err
}
