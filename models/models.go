package models

import "time"

// Роли пользователей
const (
	RoleCustomer  = "customer"
	RoleArchitect = "architect"
)

// Статусы проекта
const (
	ProjectOpen       = "open"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
	ProjectCancelled  = "cancelled"
)

// Статусы предложения
const (
	BidPending   = "pending"
	BidAccepted  = "accepted"
	BidRejected  = "rejected"
	BidWithdrawn = "withdrawn"
)

// Статусы записи о завершении
const (
	CompletionInProgress = "in_progress"
	CompletionCompleted  = "completed"
	CompletionCancelled  = "cancelled"
)

// Сущность Пользователя
type User struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email" validate:"required,email"`
	Name      string    `db:"name" json:"name" validate:"required,max=100"`
	Role      string    `db:"role" json:"role" validate:"required,oneof=customer architect"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Проекта
type Project struct {
	ID            int       `db:"id" json:"id"`
	CustomerID    int       `db:"customer_id" json:"customerId" validate:"required"`
	CustomerEmail string    `db:"customer_email" json:"customerEmail"` // legacy-поиск, авторитетен customer_id
	Title         string    `db:"title" json:"title" validate:"required,max=200"`
	Description   string    `db:"description" json:"description" validate:"required,max=2000"`
	ProjectType   string    `db:"project_type" json:"projectType"`
	Location      string    `db:"location" json:"location"`
	Area          int       `db:"area" json:"area"`
	BudgetMin     int       `db:"budget_min" json:"budgetMin"`
	BudgetMax     int       `db:"budget_max" json:"budgetMax"`
	Timeline      string    `db:"timeline" json:"timeline"`
	Requirements  string    `db:"requirements" json:"requirements"`
	Priority      string    `db:"priority" json:"priority" validate:"oneof=low medium high urgent"`
	Status        string    `db:"status" json:"status" validate:"oneof=open in_progress completed cancelled"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

// Сущность Предложения (ставка архитектора на проект)
type Bid struct {
	ID                  int       `db:"id" json:"id"`
	ProjectID           int       `db:"project_id" json:"projectId" validate:"required"`
	ArchitectID         int       `db:"architect_id" json:"architectId" validate:"required"`
	BidAmount           int       `db:"bid_amount" json:"bidAmount" validate:"required"`
	EstimatedDuration   string    `db:"estimated_duration" json:"estimatedDuration" validate:"required,max=100"`
	ProposalDescription string    `db:"proposal_description" json:"proposalDescription" validate:"required,max=2000"`
	ExperienceNote      string    `db:"experience_note" json:"experienceNote"`
	Status              string    `db:"status" json:"status" validate:"oneof=pending accepted rejected withdrawn"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"-"`
}

// Сущность Оценки (отзыв заказчика о работе архитектора)
type Rating struct {
	ID                  int       `db:"id" json:"id"`
	ProjectID           int       `db:"project_id" json:"projectId" validate:"required"`
	CustomerID          int       `db:"customer_id" json:"customerId" validate:"required"`
	ArchitectID         int       `db:"architect_id" json:"architectId" validate:"required"`
	Rating              int       `db:"rating" json:"rating" validate:"required,min=1,max=5"`
	CommunicationRating int       `db:"communication_rating" json:"communicationRating" validate:"min=0,max=5"`
	DesignQualityRating int       `db:"design_quality_rating" json:"designQualityRating" validate:"min=0,max=5"`
	TimelinessRating    int       `db:"timeliness_rating" json:"timelinessRating" validate:"min=0,max=5"`
	ValueRating         int       `db:"value_rating" json:"valueRating" validate:"min=0,max=5"`
	Review              string    `db:"review" json:"review" validate:"max=2000"`
	WouldRecommend      bool      `db:"would_recommend" json:"wouldRecommend"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"-"`
}

// Сущность записи о завершении проекта.
// Отдельная от статуса проекта, чтобы история завершённых работ
// переживала повторное открытие проекта.
type ProjectCompletion struct {
	ID               int        `db:"id" json:"id"`
	ProjectID        int        `db:"project_id" json:"projectId"`
	ArchitectID      int        `db:"architect_id" json:"architectId"`
	CustomerID       int        `db:"customer_id" json:"customerId"`
	CompletionStatus string     `db:"completion_status" json:"completionStatus"`
	CompletionDate   *time.Time `db:"completion_date" json:"completionDate,omitempty"`
	RatingRequested  bool       `db:"rating_requested" json:"ratingRequested"`
	RatingSubmitted  bool       `db:"rating_submitted" json:"ratingSubmitted"`
	Notes            string     `db:"notes" json:"notes"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"-"`
}

// Ссылка на ставку, возвращаемая массовыми переходами статусов.
type BidRef struct {
	ID          int `db:"id"`
	ArchitectID int `db:"architect_id"`
}

// Фильтр для выборки проектов. Нулевые значения означают "фильтр не задан".
type ProjectFilter struct {
	Status       string
	ProjectType  string
	Location     string
	Priority     string
	CustomerName string
	BudgetMin    int
	BudgetMax    int
	AreaMin      int
	AreaMax      int
}

// Проект с агрегатами для списков: число ставок и данные принятой ставки.
type ProjectSummary struct {
	Project
	BidCount            int  `db:"bid_count" json:"bidCount"`
	AcceptedBidID       *int `db:"accepted_bid_id" json:"acceptedBidId,omitempty"`
	AcceptedBidAmount   *int `db:"accepted_bid_amount" json:"acceptedBidAmount,omitempty"`
	AcceptedArchitectID *int `db:"accepted_architect_id" json:"acceptedArchitectId,omitempty"`
}

// Агрегированная статистика оценок архитектора
type RatingSummary struct {
	ArchitectID          int         `json:"architectId"`
	TotalRatings         int         `json:"totalRatings"`
	AverageRating        float64     `json:"averageRating"`
	AverageCommunication float64     `json:"averageCommunication"`
	AverageDesignQuality float64     `json:"averageDesignQuality"`
	AverageTimeliness    float64     `json:"averageTimeliness"`
	AverageValue         float64     `json:"averageValue"`
	RecommendPercent     float64     `json:"recommendPercent"`
	StarCounts           map[int]int `json:"starCounts"`
}
