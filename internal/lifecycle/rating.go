package lifecycle

import (
	"context"
	"fmt"

	"archmarket/models"
)

// ArchitectRatings возвращает все оценки архитектора, новые первыми.
func (e *Engine) ArchitectRatings(ctx context.Context, architectID int) ([]models.Rating, error) {
	return e.store.RatingsForArchitect(ctx, architectID)
}

// ProjectRating возвращает оценку по проекту. Доступна только
// владельцу-заказчику, ключ оценки выводится из проекта.
func (e *Engine) ProjectRating(ctx context.Context, projectID int, actor Actor) (*models.Rating, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, asNotFound(err)
	}
	if !ownsProject(project, actor) {
		return nil, fmt.Errorf("%w: project is not owned by the caller", ErrForbidden)
	}
	r, err := e.store.GetRating(ctx, projectID, project.CustomerID)
	if err != nil {
		return nil, asNotFound(err)
	}
	return r, nil
}

// ArchitectSummary — агрегат оценок архитектора, чистая свёртка по строкам.
func (e *Engine) ArchitectSummary(ctx context.Context, architectID int) (*models.RatingSummary, error) {
	ratings, err := e.store.RatingsForArchitect(ctx, architectID)
	if err != nil {
		return nil, err
	}
	return Summarize(architectID, ratings), nil
}

// Summarize сводит оценки в статистику. Отсутствующие дополнительные
// оценки (нулевые) в средние не входят; при нуле строк возвращается
// нулевая статистика без деления на ноль.
func Summarize(architectID int, ratings []models.Rating) *models.RatingSummary {
	s := &models.RatingSummary{
		ArchitectID: architectID,
		StarCounts:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if len(ratings) == 0 {
		return s
	}

	var sumOverall, recommended int
	var comm, design, timely, value subScore
	for _, r := range ratings {
		sumOverall += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			s.StarCounts[r.Rating]++
		}
		if r.WouldRecommend {
			recommended++
		}
		comm.add(r.CommunicationRating)
		design.add(r.DesignQualityRating)
		timely.add(r.TimelinessRating)
		value.add(r.ValueRating)
	}

	total := len(ratings)
	s.TotalRatings = total
	s.AverageRating = float64(sumOverall) / float64(total)
	s.AverageCommunication = comm.average()
	s.AverageDesignQuality = design.average()
	s.AverageTimeliness = timely.average()
	s.AverageValue = value.average()
	s.RecommendPercent = float64(recommended) * 100 / float64(total)
	return s
}

type subScore struct {
	sum   int
	count int
}

func (a *subScore) add(v int) {
	if v > 0 {
		a.sum += v
		a.count++
	}
}

func (a *subScore) average() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}
