package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// TodoRepository defines the todo data operations. Every lookup is scoped to
// the owning user; a todo that exists under another owner is not found.
type TodoRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Todo, error)
	Create(ctx context.Context, todo *domain.Todo) error
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error)
	Update(ctx context.Context, id, userID uuid.UUID, patch domain.TodoPatch) (*domain.Todo, error)
	Toggle(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// Option configures a gormTodoRepository.
type Option func(*gormTodoRepository)

// WithTimeout bounds each operation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *gormTodoRepository) { r.timeout = d }
}

// WithClock replaces the source of created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *gormTodoRepository) { r.now = now }
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB, opts ...Option) TodoRepository {
	r := &gormTodoRepository{db: db, now: defaultNow}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PostgreSQL stores microseconds; truncating keeps a created value equal to
// the one read back.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (r *gormTodoRepository) withContext(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if r.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		return r.db.WithContext(ctx), cancel
	}
	return r.db.WithContext(ctx), func() {}
}

func owned(id, userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND user_id = ?", id, userID)
	}
}

// List returns the user's todos, newest first.
func (r *gormTodoRepository) List(ctx context.Context, userID uuid.UUID) ([]domain.Todo, error) {
	db, cancel := r.withContext(ctx)
	defer cancel()

	todos := []domain.Todo{}
	result := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&todos)
	if result.Error != nil {
		return nil, storageError("list", result.Error)
	}
	return todos, nil
}

// Create validates and inserts todo, assigning its id and creation time.
func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := todo.Validate(); err != nil {
		return err
	}
	db, cancel := r.withContext(ctx)
	defer cancel()

	todo.ID = uuid.New()
	todo.CreatedAt = r.now()
	todo.UpdatedAt = nil

	if err := db.Create(todo).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		if verr := dataException(err); verr != nil {
			return verr
		}
		return storageError("create", err)
	}
	return nil
}

// Get retrieves a todo by id for its owner.
func (r *gormTodoRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error) {
	db, cancel := r.withContext(ctx)
	defer cancel()

	var todo domain.Todo
	if err := db.Scopes(owned(id, userID)).Take(&todo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, storageError("get", err)
	}
	return &todo, nil
}

// Update locks the owned row, applies the fields present in patch and stamps
// updated_at, even when no field changes.
func (r *gormTodoRepository) Update(ctx context.Context, id, userID uuid.UUID, patch domain.TodoPatch) (*domain.Todo, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	db, cancel := r.withContext(ctx)
	defer cancel()

	var todo domain.Todo
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(owned(id, userID)).
			Take(&todo).Error
		if err != nil {
			return err
		}

		now := r.now()
		cols := patch.Columns()
		cols["updated_at"] = now
		if err := tx.Model(&domain.Todo{}).Scopes(owned(id, userID)).Updates(cols).Error; err != nil {
			return err
		}

		patch.Apply(&todo)
		todo.UpdatedAt = &now
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		if verr := dataException(err); verr != nil {
			return nil, verr
		}
		return nil, storageError("update", err)
	}
	return &todo, nil
}

// Toggle flips completed in a single statement so concurrent toggles never
// read the same value.
func (r *gormTodoRepository) Toggle(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error) {
	db, cancel := r.withContext(ctx)
	defer cancel()

	var todo domain.Todo
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Todo{}).
			Scopes(owned(id, userID)).
			Updates(map[string]any{
				"completed":  gorm.Expr("NOT completed"),
				"updated_at": r.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Scopes(owned(id, userID)).Take(&todo).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, storageError("toggle", err)
	}
	return &todo, nil
}

// Delete permanently removes an owned todo.
func (r *gormTodoRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	db, cancel := r.withContext(ctx)
	defer cancel()

	result := db.Scopes(owned(id, userID)).Delete(&domain.Todo{})
	if result.Error != nil {
		return storageError("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// dataException reports PostgreSQL class 22 errors, which the same input
// will always trigger again, as validation failures.
func dataException(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || !strings.HasPrefix(pgErr.Code, "22") {
		return nil
	}
	field := pgErr.ColumnName
	if field == "" {
		field = "todo"
	}
	return &domain.ValidationError{Fields: map[string]string{field: pgErr.Message}}
}

func storageError(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}
