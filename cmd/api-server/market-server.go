package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"archmarket/db"
	"archmarket/db/migrations"
	"archmarket/internal/handlers"
	"archmarket/internal/lifecycle"
	"archmarket/internal/notify"
)

func main() {
	// .env локально, в остальном конфигурация из окружения
	_ = godotenv.Load()

	connString := os.Getenv("POSTGRES_CONN")
	if connString == "" {
		log.Fatal("POSTGRES_CONN env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	migrations.Run()

	store := db.NewStorage(dbConn)
	engine := lifecycle.NewEngine(store, notify.LogNotifier{})
	h := handlers.NewHandler(store, engine)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		// пользователи
		r.Post("/users/new", h.CreateUserHandler)
		r.Get("/users", h.FindUserHandler)
		r.Get("/users/{userId}", h.GetUserHandler)
		// проекты
		r.Post("/projects/new", h.CreateProjectHandler)
		r.Get("/projects", h.GetProjectsHandler)
		r.Get("/projects/{projectId}/bids", h.GetProjectBidsHandler)
		r.Get("/projects/{projectId}/rating", h.GetProjectRatingHandler)
		r.Post("/projects/{projectId}/cancel", h.CancelProjectHandler)
		r.Post("/projects/{projectId}/complete", h.CompleteProjectHandler)
		r.Get("/projects/{projectId}/completions", h.GetProjectCompletionsHandler)
		// ставки
		r.Post("/bids/new", h.CreateBidHandler)
		r.Post("/bids/{bidId}/decision", h.DecideBidHandler)
		r.Post("/bids/{bidId}/withdraw", h.WithdrawBidHandler)
		// оценки
		r.Post("/ratings/new", h.CreateRatingHandler)
		r.Get("/architects/{architectId}/ratings", h.GetArchitectRatingsHandler)
	})

	serverAddr := os.Getenv("SERVER_ADDRESS")
	if serverAddr == "" {
		serverAddr = "0.0.0.0:8080"
	}

	log.Printf("Starting server on %s", serverAddr)
	log.Fatal(http.ListenAndServe(serverAddr, r))
}
