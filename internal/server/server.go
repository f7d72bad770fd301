package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Tomlord1122/todo-api/internal/auth"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/service"
)

// HealthChecker reports database health for the /health route.
type HealthChecker interface {
	Health() map[string]string
}

var _ HealthChecker = (database.Service)(nil)

type Server struct {
	port           int
	allowedOrigins []string
	todoService    service.TodoService
	db             HealthChecker
	auth           auth.Resolver
}

// Options carries the dependencies of a Server.
type Options struct {
	Port           int
	AllowedOrigins []string
	TodoService    service.TodoService
	DB             HealthChecker
	Auth           auth.Resolver
}

func newServer(opts Options) *Server {
	port := opts.Port
	if port == 0 {
		port = 8080
	}
	return &Server{
		port:           port,
		allowedOrigins: opts.AllowedOrigins,
		todoService:    opts.TodoService,
		db:             opts.DB,
		auth:           opts.Auth,
	}
}

// NewServer builds the HTTP server for the todo API.
func NewServer(opts Options) *http.Server {
	appServer := newServer(opts)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
