package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otisthings/hub-sub000/app"
	"github.com/otisthings/hub-sub000/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)
	categoryHandler := handlers.NewCategoryHandler(deps.Categories, deps.Auditor, deps.Logger)
	ticketHandler := handlers.NewTicketHandler(deps.Tickets, deps.Logger)
	applicationHandler := handlers.NewApplicationHandler(deps.Applications, deps.Logger)
	garageHandler := handlers.NewGarageHandler(deps.Garage, deps.Logger)
	departmentHandler := handlers.NewDepartmentHandler(deps.Departments, deps.Logger)
	managementHandler := handlers.NewManagementHandler(deps.Management, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Discord OAuth2 endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", deps.AuthHandler.HandleLogin)
		r.Get("/callback", deps.AuthHandler.HandleCallback)
		r.Post("/logout", deps.AuthHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/user", deps.AuthHandler.HandleCurrentUser)
		})
	})

	// API routes, all behind the session middleware
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.HandleList)
			r.Post("/", categoryHandler.HandleCreate)
			r.Get("/support", categoryHandler.HandleSupport)
			r.Get("/accessible", categoryHandler.HandleAccessible)
			r.Get("/{id}", categoryHandler.HandleGet)
			r.Put("/{id}", categoryHandler.HandleUpdate)
			r.Delete("/{id}", categoryHandler.HandleDelete)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", ticketHandler.HandleListMine)
			r.Post("/", ticketHandler.HandleCreate)
			r.Get("/queue", ticketHandler.HandleQueue)
			r.Get("/{id}", ticketHandler.HandleGet)
			r.Post("/{id}/claim", ticketHandler.HandleClaim)
			r.Post("/{id}/transfer", ticketHandler.HandleTransfer)
			r.Post("/{id}/close", ticketHandler.HandleClose)
			r.Post("/{id}/reopen", ticketHandler.HandleReopen)
			r.Post("/{id}/participants", ticketHandler.HandleAddParticipant)
			r.Get("/{id}/messages", ticketHandler.HandleListMessages)
			r.Post("/{id}/messages", ticketHandler.HandlePostMessage)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", applicationHandler.HandleList)
			r.Post("/", applicationHandler.HandleCreate)
			r.Get("/{id}", applicationHandler.HandleGet)
			r.Put("/{id}", applicationHandler.HandleUpdate)
			r.Post("/{id}/submit", applicationHandler.HandleSubmit)
			r.Get("/{id}/submissions", applicationHandler.HandleListSubmissions)
		})
		r.Put("/submissions/{id}/review", applicationHandler.HandleReview)

		r.Route("/garage", func(r chi.Router) {
			r.Get("/capabilities", garageHandler.HandleCapabilities)
			r.Get("/vehicles", garageHandler.HandleListVehicles)
			r.Post("/vehicles", garageHandler.HandleCreateVehicle)
			r.Put("/vehicles/{id}", garageHandler.HandleUpdateVehicle)
			r.Delete("/vehicles/{id}", garageHandler.HandleDeleteVehicle)
			r.Get("/manager", garageHandler.HandleManager)
			r.Get("/permissions", garageHandler.HandleListPermissions)
			r.Put("/permissions", garageHandler.HandleUpsertPermission)
			r.Post("/codes", garageHandler.HandleGenerateCode)
			r.Get("/config", garageHandler.HandleGetConfig)
			r.Put("/config", garageHandler.HandleUpdateConfig)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Get("/classification/{type}", departmentHandler.HandleListByClassification)
			r.Get("/{id}/roster", departmentHandler.HandleRoster)
		})

		r.Route("/management", func(r chi.Router) {
			r.Get("/users", managementHandler.HandleListUsers)
			r.Get("/users/{id}", managementHandler.HandleGetUser)
			r.Post("/users/{id}/ban", managementHandler.HandleBan)
			r.Post("/users/{id}/unban", managementHandler.HandleUnban)
			r.Post("/users/{id}/roles/toggle", managementHandler.HandleToggleRole)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
