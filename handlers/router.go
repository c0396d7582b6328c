package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/services"
)

// SearchBackend serves smart-search and keeps embeddings current.
type SearchBackend interface {
	TaskSearcher
	TaskIndexer
}

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Auth        *services.AuthService
	Users       *database.UserService
	Tasks       *database.TaskService
	Subtasks    *database.SubtaskService
	Preferences *database.PreferenceService
	Search      SearchBackend
	Generator   services.SubtaskGenerator
	Hub         *services.Hub
	Tracer      trace.Tracer
	Logger      *slog.Logger

	AnonKey     string
	CORSOrigins []string
}

// NewRouter wires every route behind CORS, the anon key gate and request
// logging.
func NewRouter(d Deps) http.Handler {
	authMiddleware := NewAuthMiddleware(d.Auth)
	authHandler := NewAuthHandler(d.Auth, d.Users)
	taskHandler := NewTaskHandler(d.Tasks, d.Search, d.Hub)
	subtaskHandler := NewSubtaskHandler(d.Subtasks, d.Hub)
	prefHandler := NewPreferenceHandler(d.Preferences, d.Hub)
	functionHandler := NewFunctionHandler(d.Search, d.Generator, d.Tracer)
	realtimeHandler := NewRealtimeHandler(d.Hub, d.CORSOrigins)

	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/magic-link", authHandler.HandleMagicLink).Methods("GET")

	protected := r.NewRoute().Subrouter()
	protected.Use(authMiddleware.Auth)

	protected.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods("GET")
	protected.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")

	protected.HandleFunc("/api/tasks", taskHandler.List).Methods("GET")
	protected.HandleFunc("/api/tasks", taskHandler.Create).Methods("POST")
	protected.HandleFunc("/api/tasks/{id}", taskHandler.Update).Methods("PATCH")
	protected.HandleFunc("/api/tasks/{id}", taskHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/api/tasks/{id}/subtasks", subtaskHandler.List).Methods("GET")
	protected.HandleFunc("/api/tasks/{id}/subtasks", subtaskHandler.Create).Methods("POST")
	protected.HandleFunc("/api/subtasks/{id}", subtaskHandler.Update).Methods("PATCH")
	protected.HandleFunc("/api/subtasks/{id}", subtaskHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/api/preferences", prefHandler.Get).Methods("GET")
	protected.HandleFunc("/api/preferences", prefHandler.Create).Methods("POST")
	protected.HandleFunc("/api/preferences", prefHandler.Save).Methods("PUT")

	protected.HandleFunc("/functions/v1/smart-search", functionHandler.SmartSearch).Methods("POST")
	protected.HandleFunc("/functions/v1/generate-subtasks", functionHandler.GenerateSubtasks).Methods("POST")

	// WebSocket route for change notifications
	protected.HandleFunc("/api/ws", realtimeHandler.HandleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "apikey", "X-API-Key", "X-Client-Info"},
		AllowCredentials: true,
	})

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return RequestLogger(logger)(c.Handler(APIKeyMiddleware(d.AnonKey)(r)))
}
