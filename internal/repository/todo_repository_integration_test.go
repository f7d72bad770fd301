package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-api/internal/database/databasetest"
	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
)

func TestTodoRepository_Postgres(t *testing.T) {
	db := databasetest.Start(t)
	repo := repository.NewGormTodoRepository(db, repository.WithTimeout(5*time.Second))
	ctx := context.Background()

	t.Run("get after create returns the created todo", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		desc := "semi-skimmed"
		todo := &domain.Todo{Title: "Buy milk", Description: &desc, UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		got, err := repo.Get(ctx, todo.ID, owner)

		require.NoError(t, err)
		assert.Equal(t, todo.ID, got.ID)
		assert.Equal(t, todo.Title, got.Title)
		assert.Equal(t, *todo.Description, *got.Description)
		assert.Equal(t, todo.Completed, got.Completed)
		assert.Equal(t, todo.UserID, got.UserID)
		assert.True(t, todo.CreatedAt.Equal(got.CreatedAt))
		assert.Nil(t, got.UpdatedAt)
	})

	t.Run("other users cannot see, change or delete a todo", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		other := databasetest.CreateUser(t, db)
		todo := &domain.Todo{Title: "Private", UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		_, err := repo.Get(ctx, todo.ID, other)
		assert.ErrorIs(t, err, domain.ErrTodoNotFound)
		_, err = repo.Get(ctx, uuid.New(), other)
		assert.ErrorIs(t, err, domain.ErrTodoNotFound)
		_, err = repo.Update(ctx, todo.ID, other, domain.TodoPatch{Title: domain.Some("Mine now")})
		assert.ErrorIs(t, err, domain.ErrTodoNotFound)
		_, err = repo.Toggle(ctx, todo.ID, other)
		assert.ErrorIs(t, err, domain.ErrTodoNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, todo.ID, other), domain.ErrTodoNotFound)

		got, err := repo.Get(ctx, todo.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, "Private", got.Title)
		assert.False(t, got.Completed)
		assert.Nil(t, got.UpdatedAt)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		todo := &domain.Todo{Title: "Once", UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		require.NoError(t, repo.Delete(ctx, todo.ID, owner))
		assert.ErrorIs(t, repo.Delete(ctx, todo.ID, owner), domain.ErrTodoNotFound)
		_, err := repo.Get(ctx, todo.ID, owner)
		assert.ErrorIs(t, err, domain.ErrTodoNotFound)
	})

	t.Run("partial update changes only present fields", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		desc := "oat"
		todo := &domain.Todo{Title: "Buy milk", Description: &desc, UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		updated, err := repo.Update(ctx, todo.ID, owner, domain.TodoPatch{Completed: domain.Some(true)})
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.Equal(t, "Buy milk", updated.Title)
		assert.Equal(t, "oat", *updated.Description)
		require.NotNil(t, updated.UpdatedAt)

		got, err := repo.Get(ctx, todo.ID, owner)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		assert.Equal(t, "Buy milk", got.Title)
		assert.Equal(t, "oat", *got.Description)
		assert.True(t, todo.CreatedAt.Equal(got.CreatedAt))

		cleared, err := repo.Update(ctx, todo.ID, owner, domain.TodoPatch{Description: domain.Null[string]()})
		require.NoError(t, err)
		assert.Nil(t, cleared.Description)
		assert.True(t, cleared.Completed)
	})

	t.Run("toggle twice restores completed and moves updated_at", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		todo := &domain.Todo{Title: "Flip", UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		first, err := repo.Toggle(ctx, todo.ID, owner)
		require.NoError(t, err)
		assert.True(t, first.Completed)
		require.NotNil(t, first.UpdatedAt)

		time.Sleep(2 * time.Millisecond)
		second, err := repo.Toggle(ctx, todo.ID, owner)
		require.NoError(t, err)
		assert.False(t, second.Completed)
		require.NotNil(t, second.UpdatedAt)
		assert.True(t, second.UpdatedAt.After(*first.UpdatedAt))
	})

	t.Run("concurrent toggles are not lost", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		todo := &domain.Todo{Title: "Race", UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		const n = 10
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Toggle(ctx, todo.ID, owner)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, todo.ID, owner)
		require.NoError(t, err)
		assert.False(t, got.Completed, "an even number of toggles ends where it started")
	})

	t.Run("list is newest first", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		var ids []uuid.UUID
		for _, title := range []string{"t1", "t2", "t3"} {
			todo := &domain.Todo{Title: title, UserID: owner}
			require.NoError(t, repo.Create(ctx, todo))
			ids = append(ids, todo.ID)
			time.Sleep(2 * time.Millisecond)
		}
		require.NoError(t, repo.Create(ctx, &domain.Todo{Title: "someone else's", UserID: databasetest.CreateUser(t, db)}))

		todos, err := repo.List(ctx, owner)

		require.NoError(t, err)
		require.Len(t, todos, 3)
		assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{todos[0].ID, todos[1].ID, todos[2].ID})
	})

	t.Run("list ties break on id", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		same := repository.NewGormTodoRepository(db, repository.WithClock(func() time.Time { return at }))
		for i := 0; i < 3; i++ {
			require.NoError(t, same.Create(ctx, &domain.Todo{Title: "same time", UserID: owner}))
		}

		first, err := repo.List(ctx, owner)
		require.NoError(t, err)
		again, err := repo.List(ctx, owner)
		require.NoError(t, err)

		require.Len(t, first, 3)
		assert.Equal(t, first, again)
		for i := 1; i < len(first); i++ {
			assert.Greater(t, first[i-1].ID.String(), first[i].ID.String())
		}
	})

	t.Run("create for unknown user fails", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Todo{Title: "Orphan", UserID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("deleting a user cascades to todos", func(t *testing.T) {
		owner := databasetest.CreateUser(t, db)
		todo := &domain.Todo{Title: "Goes with the user", UserID: owner}
		require.NoError(t, repo.Create(ctx, todo))

		require.NoError(t, db.Delete(&domain.User{}, "id = ?", owner).Error)

		_, err := repo.Get(ctx, todo.ID, owner)
		assert.ErrorIs(t, err, domain.ErrTodoNotFound)
	})
}
