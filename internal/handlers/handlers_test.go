package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"archmarket/internal/handlers"
	"archmarket/internal/handlers/testutils"
	"archmarket/internal/lifecycle"
	"archmarket/models"
)

// MockStorage — хранилище с подменяемыми функциями
type MockStorage struct {
	CreateProjectFunc  func(ctx context.Context, p *models.Project) error
	CreateUserFunc     func(ctx context.Context, u *models.User) error
	GetUserFunc        func(ctx context.Context, id int) (*models.User, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetProjectFunc     func(ctx context.Context, id int) (*models.Project, error)
	GetBidFunc         func(ctx context.Context, id int) (*models.Bid, error)
	GetAcceptedBidFunc func(ctx context.Context, projectID int) (*models.Bid, error)
}

func (m *MockStorage) CreateProject(ctx context.Context, p *models.Project) error {
	if m.CreateProjectFunc != nil {
		return m.CreateProjectFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *MockStorage) CreateUser(ctx context.Context, u *models.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, u)
	}
	u.ID = 1
	return nil
}

func (m *MockStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return &models.User{ID: id, Email: "user@example.com", Name: "User", Role: models.RoleCustomer}, nil
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return &models.User{ID: 1, Email: email, Name: "User", Role: models.RoleCustomer}, nil
}

func (m *MockStorage) GetProject(ctx context.Context, id int) (*models.Project, error) {
	if m.GetProjectFunc != nil {
		return m.GetProjectFunc(ctx, id)
	}
	return &models.Project{ID: id, CustomerID: 1, CustomerEmail: "customer@example.com", Status: models.ProjectOpen}, nil
}

func (m *MockStorage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	if m.GetBidFunc != nil {
		return m.GetBidFunc(ctx, id)
	}
	return &models.Bid{ID: id, ProjectID: 10, ArchitectID: 2, Status: models.BidPending}, nil
}

func (m *MockStorage) GetAcceptedBid(ctx context.Context, projectID int) (*models.Bid, error) {
	if m.GetAcceptedBidFunc != nil {
		return m.GetAcceptedBidFunc(ctx, projectID)
	}
	return &models.Bid{ID: 5, ProjectID: projectID, ArchitectID: 2, Status: models.BidAccepted}, nil
}

// MockEngine — движок с подменяемыми функциями
type MockEngine struct {
	SubmitBidFunc        func(ctx context.Context, actor lifecycle.Actor, in lifecycle.SubmitBidInput) (*models.Bid, error)
	DecideBidFunc        func(ctx context.Context, bidID int, actor lifecycle.Actor, decision string) (*models.Bid, error)
	CancelProjectFunc    func(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Project, error)
	WithdrawBidFunc      func(ctx context.Context, bidID int, actor lifecycle.Actor) (*models.Bid, error)
	MarkCompletedFunc    func(ctx context.Context, projectID int, actor lifecycle.Actor, notes string) (*models.ProjectCompletion, error)
	ProjectCompletionsFn func(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.ProjectCompletion, error)
	SubmitRatingFunc     func(ctx context.Context, actor lifecycle.Actor, in lifecycle.RatingInput) (*models.Rating, error)
	VisibleProjectsFunc  func(ctx context.Context, actor lifecycle.Actor, f models.ProjectFilter) ([]models.ProjectSummary, error)
	ProjectBidsFunc      func(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.Bid, error)
	ArchitectRatingsFunc func(ctx context.Context, architectID int) ([]models.Rating, error)
	ProjectRatingFunc    func(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Rating, error)
	ArchitectSummaryFunc func(ctx context.Context, architectID int) (*models.RatingSummary, error)
}

func (m *MockEngine) SubmitBid(ctx context.Context, actor lifecycle.Actor, in lifecycle.SubmitBidInput) (*models.Bid, error) {
	if m.SubmitBidFunc != nil {
		return m.SubmitBidFunc(ctx, actor, in)
	}
	return &models.Bid{ID: 1, ProjectID: in.ProjectID, ArchitectID: actor.ID, Status: models.BidPending}, nil
}

func (m *MockEngine) DecideBid(ctx context.Context, bidID int, actor lifecycle.Actor, decision string) (*models.Bid, error) {
	if m.DecideBidFunc != nil {
		return m.DecideBidFunc(ctx, bidID, actor, decision)
	}
	return &models.Bid{ID: bidID, Status: decision}, nil
}

func (m *MockEngine) CancelProject(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Project, error) {
	if m.CancelProjectFunc != nil {
		return m.CancelProjectFunc(ctx, projectID, actor)
	}
	return &models.Project{ID: projectID, Status: models.ProjectOpen}, nil
}

func (m *MockEngine) WithdrawBid(ctx context.Context, bidID int, actor lifecycle.Actor) (*models.Bid, error) {
	if m.WithdrawBidFunc != nil {
		return m.WithdrawBidFunc(ctx, bidID, actor)
	}
	return &models.Bid{ID: bidID, Status: models.BidWithdrawn}, nil
}

func (m *MockEngine) MarkCompleted(ctx context.Context, projectID int, actor lifecycle.Actor, notes string) (*models.ProjectCompletion, error) {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, projectID, actor, notes)
	}
	return &models.ProjectCompletion{ProjectID: projectID, CompletionStatus: models.CompletionCompleted}, nil
}

func (m *MockEngine) ProjectCompletions(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.ProjectCompletion, error) {
	if m.ProjectCompletionsFn != nil {
		return m.ProjectCompletionsFn(ctx, actor, projectID)
	}
	return []models.ProjectCompletion{}, nil
}

func (m *MockEngine) SubmitRating(ctx context.Context, actor lifecycle.Actor, in lifecycle.RatingInput) (*models.Rating, error) {
	if m.SubmitRatingFunc != nil {
		return m.SubmitRatingFunc(ctx, actor, in)
	}
	return &models.Rating{ID: 1, ProjectID: in.ProjectID, Rating: in.Rating}, nil
}

func (m *MockEngine) VisibleProjects(ctx context.Context, actor lifecycle.Actor, f models.ProjectFilter) ([]models.ProjectSummary, error) {
	if m.VisibleProjectsFunc != nil {
		return m.VisibleProjectsFunc(ctx, actor, f)
	}
	return []models.ProjectSummary{}, nil
}

func (m *MockEngine) ProjectBids(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.Bid, error) {
	if m.ProjectBidsFunc != nil {
		return m.ProjectBidsFunc(ctx, actor, projectID)
	}
	return []models.Bid{}, nil
}

func (m *MockEngine) ArchitectRatings(ctx context.Context, architectID int) ([]models.Rating, error) {
	if m.ArchitectRatingsFunc != nil {
		return m.ArchitectRatingsFunc(ctx, architectID)
	}
	return []models.Rating{}, nil
}

func (m *MockEngine) ProjectRating(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Rating, error) {
	if m.ProjectRatingFunc != nil {
		return m.ProjectRatingFunc(ctx, projectID, actor)
	}
	return &models.Rating{ID: 1, ProjectID: projectID, CustomerID: actor.ID}, nil
}

func (m *MockEngine) ArchitectSummary(ctx context.Context, architectID int) (*models.RatingSummary, error) {
	if m.ArchitectSummaryFunc != nil {
		return m.ArchitectSummaryFunc(ctx, architectID)
	}
	return &models.RatingSummary{ArchitectID: architectID}, nil
}

func newHandler() *handlers.Handler {
	return handlers.NewHandler(&MockStorage{}, &MockEngine{})
}

func asCustomer(req *http.Request) *http.Request {
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", models.RoleCustomer)
	req.Header.Set("X-User-Email", "customer@example.com")
	return req
}

func asArchitect(req *http.Request) *http.Request {
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-User-Role", models.RoleArchitect)
	return req
}

func withActor(req *http.Request, id int, role string) *http.Request {
	req.Header.Set("X-User-ID", strconv.Itoa(id))
	req.Header.Set("X-User-Role", role)
	return req
}

func TestPingHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rr := httptest.NewRecorder()

	newHandler().PingHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestCreateProjectHandler(t *testing.T) {
	body := `{"title":"House","description":"Two floors","projectType":"residential","budgetMin":50000,"budgetMax":100000}`
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/projects/new", bytes.NewBufferString(body)))
	rr := httptest.NewRecorder()

	var created *models.Project
	h := handlers.NewHandler(&MockStorage{
		CreateProjectFunc: func(ctx context.Context, p *models.Project) error {
			p.ID = 42
			created = p
			return nil
		},
	}, &MockEngine{})
	h.CreateProjectHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, created)
	// Владелец и статус приходят из заголовков, не из тела
	require.Equal(t, 1, created.CustomerID)
	require.Equal(t, "customer@example.com", created.CustomerEmail)
	require.Equal(t, models.ProjectOpen, created.Status)
	require.Equal(t, "medium", created.Priority)

	var got models.Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 42, got.ID)
}

func TestCreateProjectHandlerNoAuth(t *testing.T) {
	body := `{"title":"House","description":"d"}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects/new", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	newHandler().CreateProjectHandler(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateProjectHandlerArchitectForbidden(t *testing.T) {
	body := `{"title":"House","description":"d"}`
	req := asArchitect(httptest.NewRequest(http.MethodPost, "/api/projects/new", bytes.NewBufferString(body)))
	rr := httptest.NewRecorder()

	newHandler().CreateProjectHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateProjectHandlerValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty title", `{"title":"","description":"d"}`},
		{"missing description", `{"title":"House"}`},
		{"bad priority", `{"title":"House","description":"d","priority":"asap"}`},
		{"negative budget", `{"title":"House","description":"d","budgetMin":-1}`},
		{"bad json", `{not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/projects/new", bytes.NewBufferString(tc.body)))
			rr := httptest.NewRecorder()

			newHandler().CreateProjectHandler(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetProjectsHandlerPassesFilter(t *testing.T) {
	var gotFilter models.ProjectFilter
	var gotActor lifecycle.Actor
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		VisibleProjectsFunc: func(ctx context.Context, actor lifecycle.Actor, f models.ProjectFilter) ([]models.ProjectSummary, error) {
			gotActor = actor
			gotFilter = f
			return []models.ProjectSummary{{Project: models.Project{ID: 7}}}, nil
		},
	})

	req := asArchitect(httptest.NewRequest(http.MethodGet,
		"/api/projects?status=open&type=residential&budgetMin=1000&budgetMax=5000&location=Moscow", nil))
	rr := httptest.NewRecorder()
	h.GetProjectsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 2, gotActor.ID)
	require.Equal(t, models.RoleArchitect, gotActor.Role)
	require.Equal(t, models.ProjectOpen, gotFilter.Status)
	require.Equal(t, "residential", gotFilter.ProjectType)
	require.Equal(t, 1000, gotFilter.BudgetMin)
	require.Equal(t, 5000, gotFilter.BudgetMax)
	require.Equal(t, "Moscow", gotFilter.Location)
}

func TestCreateBidHandler(t *testing.T) {
	var gotInput lifecycle.SubmitBidInput
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		SubmitBidFunc: func(ctx context.Context, actor lifecycle.Actor, in lifecycle.SubmitBidInput) (*models.Bid, error) {
			gotInput = in
			return &models.Bid{ID: 3, ProjectID: in.ProjectID, ArchitectID: actor.ID, Status: models.BidPending}, nil
		},
	})

	body := `{"projectId":10,"bidAmount":100000,"estimatedDuration":"3 months","proposalDescription":"plan"}`
	req := asArchitect(httptest.NewRequest(http.MethodPost, "/api/bids/new", bytes.NewBufferString(body)))
	rr := httptest.NewRecorder()
	h.CreateBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 10, gotInput.ProjectID)
	require.Equal(t, 100000, gotInput.BidAmount)
	require.Equal(t, "3 months", gotInput.EstimatedDuration)
}

func TestCreateBidHandlerCustomerForbidden(t *testing.T) {
	body := `{"projectId":10,"bidAmount":100000}`
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/bids/new", bytes.NewBufferString(body)))
	rr := httptest.NewRecorder()

	newHandler().CreateBidHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDecideBidHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", lifecycle.ErrValidation, http.StatusBadRequest},
		{"forbidden", lifecycle.ErrForbidden, http.StatusForbidden},
		{"not found", lifecycle.ErrNotFound, http.StatusNotFound},
		{"conflict", lifecycle.ErrConflict, http.StatusConflict},
		{"invalid state", lifecycle.ErrInvalidState, http.StatusUnprocessableEntity},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := handlers.NewHandler(&MockStorage{}, &MockEngine{
				DecideBidFunc: func(ctx context.Context, bidID int, actor lifecycle.Actor, decision string) (*models.Bid, error) {
					return nil, tc.err
				},
			})
			req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/bids/5/decision?decision=accepted", nil))
			req = testutils.WithChiURLParams(req, map[string]string{"bidId": "5"})
			rr := httptest.NewRecorder()

			h.DecideBidHandler(rr, req)

			require.Equal(t, tc.code, rr.Code)
		})
	}
}

func TestDecideBidHandler(t *testing.T) {
	var gotBidID int
	var gotDecision string
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		DecideBidFunc: func(ctx context.Context, bidID int, actor lifecycle.Actor, decision string) (*models.Bid, error) {
			gotBidID = bidID
			gotDecision = decision
			return &models.Bid{ID: bidID, Status: decision}, nil
		},
	})

	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/bids/5/decision?decision=accepted", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"bidId": "5"})
	rr := httptest.NewRecorder()
	h.DecideBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 5, gotBidID)
	require.Equal(t, models.BidAccepted, gotDecision)
}

func TestDecideBidHandlerMissingDecision(t *testing.T) {
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/bids/5/decision", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"bidId": "5"})
	rr := httptest.NewRecorder()

	newHandler().DecideBidHandler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDecideBidHandlerBadBidID(t *testing.T) {
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/bids/x/decision?decision=accepted", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"bidId": "x"})
	rr := httptest.NewRecorder()

	newHandler().DecideBidHandler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWithdrawBidHandler(t *testing.T) {
	req := asArchitect(httptest.NewRequest(http.MethodPost, "/api/bids/5/withdraw", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"bidId": "5"})
	rr := httptest.NewRecorder()

	newHandler().WithdrawBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Bid
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.BidWithdrawn, got.Status)
}

func TestCancelProjectHandler(t *testing.T) {
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/projects/10/cancel", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()

	newHandler().CancelProjectHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.ProjectOpen, got.Status)
}

func TestCompleteProjectHandler(t *testing.T) {
	var gotNotes string
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		MarkCompletedFunc: func(ctx context.Context, projectID int, actor lifecycle.Actor, notes string) (*models.ProjectCompletion, error) {
			gotNotes = notes
			return &models.ProjectCompletion{ProjectID: projectID, CompletionStatus: models.CompletionCompleted, RatingRequested: true}, nil
		},
	})

	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/projects/10/complete",
		bytes.NewBufferString(`{"notes":"done well"}`)))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()
	h.CompleteProjectHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "done well", gotNotes)
}

func TestGetProjectBidsHandler(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		ProjectBidsFunc: func(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.Bid, error) {
			return []models.Bid{{ID: 1, ProjectID: projectID}}, nil
		},
	})

	req := asCustomer(httptest.NewRequest(http.MethodGet, "/api/projects/10/bids", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()
	h.GetProjectBidsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.Bid
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
}

func TestCreateRatingHandler(t *testing.T) {
	var gotInput lifecycle.RatingInput
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		SubmitRatingFunc: func(ctx context.Context, actor lifecycle.Actor, in lifecycle.RatingInput) (*models.Rating, error) {
			gotInput = in
			return &models.Rating{ID: 1, ProjectID: in.ProjectID, Rating: in.Rating}, nil
		},
	})

	body := `{"projectId":10,"rating":5,"communicationRating":4,"wouldRecommend":true}`
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/ratings/new", bytes.NewBufferString(body)))
	rr := httptest.NewRecorder()
	h.CreateRatingHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 10, gotInput.ProjectID)
	require.Equal(t, 5, gotInput.Rating)
	require.Equal(t, 4, gotInput.CommunicationRating)
	require.True(t, gotInput.WouldRecommend)
}

func TestGetProjectRatingHandler(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		ProjectRatingFunc: func(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Rating, error) {
			return &models.Rating{ID: 1, ProjectID: projectID, Rating: 4}, nil
		},
	})

	req := asCustomer(httptest.NewRequest(http.MethodGet, "/api/projects/10/rating", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()
	h.GetProjectRatingHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Rating
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 4, got.Rating)
}

func TestGetProjectRatingHandlerNotFound(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		ProjectRatingFunc: func(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Rating, error) {
			return nil, lifecycle.ErrNotFound
		},
	})

	req := asCustomer(httptest.NewRequest(http.MethodGet, "/api/projects/10/rating", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()
	h.GetProjectRatingHandler(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetArchitectRatingsHandler(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		ArchitectRatingsFunc: func(ctx context.Context, architectID int) ([]models.Rating, error) {
			return []models.Rating{{ID: 1, ArchitectID: architectID, Rating: 5}}, nil
		},
		ArchitectSummaryFunc: func(ctx context.Context, architectID int) (*models.RatingSummary, error) {
			return &models.RatingSummary{ArchitectID: architectID, TotalRatings: 1, AverageRating: 5}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/architects/2/ratings", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"architectId": "2"})
	rr := httptest.NewRecorder()
	h.GetArchitectRatingsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		Ratings []models.Rating       `json:"ratings"`
		Summary *models.RatingSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Ratings, 1)
	require.Equal(t, 1, got.Summary.TotalRatings)
}

func TestDecideBidHandlerArchitectForbidden(t *testing.T) {
	// Роль проверяется до движка: решение по ставке — действие заказчика
	engineCalled := false
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		DecideBidFunc: func(ctx context.Context, bidID int, actor lifecycle.Actor, decision string) (*models.Bid, error) {
			engineCalled = true
			return &models.Bid{ID: bidID}, nil
		},
	})

	req := asArchitect(httptest.NewRequest(http.MethodPost, "/api/bids/5/decision?decision=accepted", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"bidId": "5"})
	rr := httptest.NewRecorder()
	h.DecideBidHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	require.False(t, engineCalled)
}

func TestDecideBidHandlerForeignCustomer(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/bids/5/decision?decision=accepted", nil), 99, models.RoleCustomer)
	req = testutils.WithChiURLParams(req, map[string]string{"bidId": "5"})
	rr := httptest.NewRecorder()

	newHandler().DecideBidHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCancelProjectHandlerForbidden(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/projects/10/cancel", nil), 99, models.RoleCustomer)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()

	newHandler().CancelProjectHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCompleteProjectHandlerByAcceptedArchitect(t *testing.T) {
	req := asArchitect(httptest.NewRequest(http.MethodPost, "/api/projects/10/complete", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()

	newHandler().CompleteProjectHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCompleteProjectHandlerOutsiderForbidden(t *testing.T) {
	// Архитектор без принятой ставки и чужой заказчик отсекаются до движка
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/projects/10/complete", nil), 33, models.RoleArchitect)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()
	newHandler().CompleteProjectHandler(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = withActor(httptest.NewRequest(http.MethodPost, "/api/projects/10/complete", nil), 99, models.RoleCustomer)
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr = httptest.NewRecorder()
	newHandler().CompleteProjectHandler(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCompleteProjectHandlerMalformedBody(t *testing.T) {
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/projects/10/complete",
		bytes.NewBufferString(`{not json`)))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()

	newHandler().CompleteProjectHandler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCompleteProjectHandlerEmptyBody(t *testing.T) {
	req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/projects/10/complete", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()

	newHandler().CompleteProjectHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateRatingHandlerArchitectForbidden(t *testing.T) {
	body := `{"projectId":10,"rating":5}`
	req := asArchitect(httptest.NewRequest(http.MethodPost, "/api/ratings/new", bytes.NewBufferString(body)))
	rr := httptest.NewRecorder()

	newHandler().CreateRatingHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateRatingHandlerForeignCustomer(t *testing.T) {
	body := `{"projectId":10,"rating":5}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/ratings/new", bytes.NewBufferString(body)), 99, models.RoleCustomer)
	rr := httptest.NewRecorder()

	newHandler().CreateRatingHandler(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateUserHandler(t *testing.T) {
	body := `{"email":"new@example.com","name":"New User","role":"architect"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/new", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	newHandler().CreateUserHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 1, got.ID)
	require.Equal(t, models.RoleArchitect, got.Role)
}

func TestCreateUserHandlerValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"name":"User","role":"customer"}`},
		{"missing name", `{"email":"u@example.com","role":"customer"}`},
		{"bad role", `{"email":"u@example.com","name":"User","role":"admin"}`},
		{"bad json", `{not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users/new", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()

			newHandler().CreateUserHandler(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestCreateUserHandlerDuplicateEmail(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{
		CreateUserFunc: func(ctx context.Context, u *models.User) error {
			return &pq.Error{Code: "23505"}
		},
	}, &MockEngine{})

	body := `{"email":"taken@example.com","name":"User","role":"customer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/new", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.CreateUserHandler(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetUserHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/7", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"userId": "7"})
	rr := httptest.NewRecorder()

	newHandler().GetUserHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 7, got.ID)
}

func TestGetUserHandlerNotFound(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{
		GetUserFunc: func(ctx context.Context, id int) (*models.User, error) {
			return nil, sql.ErrNoRows
		},
	}, &MockEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/7", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"userId": "7"})
	rr := httptest.NewRecorder()
	h.GetUserHandler(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFindUserHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users?email=u@example.com", nil)
	rr := httptest.NewRecorder()

	newHandler().FindUserHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "u@example.com", got.Email)
}

func TestFindUserHandlerMissingEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rr := httptest.NewRecorder()

	newHandler().FindUserHandler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetProjectCompletionsHandler(t *testing.T) {
	h := handlers.NewHandler(&MockStorage{}, &MockEngine{
		ProjectCompletionsFn: func(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.ProjectCompletion, error) {
			return []models.ProjectCompletion{{ID: 1, ProjectID: projectID, CompletionStatus: models.CompletionCompleted}}, nil
		},
	})

	req := asCustomer(httptest.NewRequest(http.MethodGet, "/api/projects/10/completions", nil))
	req = testutils.WithChiURLParams(req, map[string]string{"projectId": "10"})
	rr := httptest.NewRecorder()
	h.GetProjectCompletionsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.ProjectCompletion
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
}
