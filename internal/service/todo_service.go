package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
)

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,max=255,nonul"`
	Description *string `json:"description" validate:"omitempty,nonul"`
	Completed   bool    `json:"completed"`
}

// UpdateTodoRequest holds a partial update. Each field records whether it
// was present in the payload, so an absent field is left untouched while an
// explicit false or empty value is applied.
type UpdateTodoRequest struct {
	Title       domain.Optional[string] `json:"title"`
	Description domain.Optional[string] `json:"description"`
	Completed   domain.Optional[bool]   `json:"completed"`
}

// TodoResponse is the representation of a Todo returned to clients.
type TodoResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	UserID      string  `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// TodoService defines the operations for managing a user's todos.
// Errors are domain errors: *domain.ValidationError, domain.ErrTodoNotFound,
// domain.ErrUserNotFound or *domain.StorageError.
type TodoService interface {
	ListTodos(ctx context.Context, userID uuid.UUID) ([]TodoResponse, error)
	CreateTodo(ctx context.Context, userID uuid.UUID, req CreateTodoRequest) (*TodoResponse, error)
	GetTodo(ctx context.Context, userID, id uuid.UUID) (*TodoResponse, error)
	UpdateTodo(ctx context.Context, userID, id uuid.UUID, req UpdateTodoRequest) (*TodoResponse, error)
	ToggleTodo(ctx context.Context, userID, id uuid.UUID) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, userID, id uuid.UUID) error
}

type todoService struct {
	repo repository.TodoRepository
}

// NewTodoService creates a new instance of todoService.
func NewTodoService(repo repository.TodoRepository) TodoService {
	return &todoService{
		repo: repo,
	}
}

func (s *todoService) ListTodos(ctx context.Context, userID uuid.UUID) ([]TodoResponse, error) {
	todos, err := s.repo.List(ctx, userID)
	if err != nil {
		logStorageError(err, "listing todos for user %s", userID)
		return nil, err
	}

	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, *toResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) CreateTodo(ctx context.Context, userID uuid.UUID, req CreateTodoRequest) (*TodoResponse, error) {
	if err := domain.ValidateStruct(req); err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		logStorageError(err, "creating todo for user %s", userID)
		return nil, err
	}
	return toResponse(todo), nil
}

func (s *todoService) GetTodo(ctx context.Context, userID, id uuid.UUID) (*TodoResponse, error) {
	todo, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		logStorageError(err, "fetching todo %s", id)
		return nil, err
	}
	return toResponse(todo), nil
}

func (s *todoService) UpdateTodo(ctx context.Context, userID, id uuid.UUID, req UpdateTodoRequest) (*TodoResponse, error) {
	patch := domain.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	todo, err := s.repo.Update(ctx, id, userID, patch)
	if err != nil {
		logStorageError(err, "updating todo %s", id)
		return nil, err
	}
	return toResponse(todo), nil
}

func (s *todoService) ToggleTodo(ctx context.Context, userID, id uuid.UUID) (*TodoResponse, error) {
	todo, err := s.repo.Toggle(ctx, id, userID)
	if err != nil {
		logStorageError(err, "toggling todo %s", id)
		return nil, err
	}
	return toResponse(todo), nil
}

func (s *todoService) DeleteTodo(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		logStorageError(err, "deleting todo %s", id)
		return err
	}
	return nil
}

// Not-found and validation outcomes are expected; only storage failures are
// worth a log line here.
func logStorageError(err error, format string, args ...any) {
	var se *domain.StorageError
	if errors.As(err, &se) {
		log.Printf("Error "+format+": %v", append(args, err)...)
	}
}

func toResponse(todo *domain.Todo) *TodoResponse {
	resp := &TodoResponse{
		ID:          todo.ID.String(),
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		UserID:      todo.UserID.String(),
		CreatedAt:   todo.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if todo.UpdatedAt != nil {
		updated := todo.UpdatedAt.UTC().Format(time.RFC3339Nano)
		resp.UpdatedAt = &updated
	}
	return resp
}
