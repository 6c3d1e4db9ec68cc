package access

import (
	"archmarket/internal/lifecycle"
	"archmarket/models"
)

// Предикаты авторизации, которыми API-слой отсекает вызовы до движка.
// Движок повторно проверяет владение внутри переходов, ответы совпадают.

func owns(p *models.Project, actor lifecycle.Actor) bool {
	if p.CustomerID == actor.ID {
		return true
	}
	return actor.Email != "" && p.CustomerEmail == actor.Email
}

// CanPostProject — проекты создают только заказчики.
func CanPostProject(actor lifecycle.Actor) bool {
	return actor.Role == models.RoleCustomer
}

// CanBid — ставки подают только архитекторы.
func CanBid(actor lifecycle.Actor) bool {
	return actor.Role == models.RoleArchitect
}

// CanDecide — решение по ставке принимает заказчик-владелец проекта.
func CanDecide(actor lifecycle.Actor, p *models.Project) bool {
	return actor.Role == models.RoleCustomer && owns(p, actor)
}

// CanCancel — отменяет проект заказчик-владелец.
func CanCancel(actor lifecycle.Actor, p *models.Project) bool {
	return actor.Role == models.RoleCustomer && owns(p, actor)
}

// CanComplete — завершает либо владелец-заказчик, либо архитектор
// принятой ставки.
func CanComplete(actor lifecycle.Actor, p *models.Project, accepted *models.Bid) bool {
	switch actor.Role {
	case models.RoleCustomer:
		return owns(p, actor)
	case models.RoleArchitect:
		return accepted != nil && accepted.ArchitectID == actor.ID
	}
	return false
}

// CanRate — оценку оставляет заказчик-владелец проекта.
func CanRate(actor lifecycle.Actor, p *models.Project) bool {
	return actor.Role == models.RoleCustomer && owns(p, actor)
}
