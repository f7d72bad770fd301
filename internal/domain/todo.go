package domain

import (
	"time"

	"github.com/google/uuid"
)

// TitleMaxLength is the upper bound on Todo.Title, counted in characters.
const TitleMaxLength = 255

const (
	titleRules       = "required,max=255,nonul"
	descriptionRules = "nonul"
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"type:varchar(255);not null" validate:"required,max=255,nonul"`
	Description *string    `gorm:"type:text" validate:"omitempty,nonul"`
	Completed   bool       `gorm:"not null"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"` // nil until the first mutation
}

// Validate checks the field constraints enforced before a Todo is persisted.
func (t *Todo) Validate() error {
	return ValidateStruct(t)
}

// TodoPatch lists the fields an update may change. Only fields that are Set
// are written.
type TodoPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Completed   Optional[bool]
}

// Validate rejects a patch that would break a Todo invariant.
func (p TodoPatch) Validate() error {
	fields := map[string]string{}
	if p.Title.Set {
		if p.Title.Null {
			fields["title"] = "must not be null"
		} else if err := ValidateVar(p.Title.Value, titleRules); err != nil {
			fields["title"] = varMessage(err)
		}
	}
	if p.Description.Set && !p.Description.Null {
		if err := ValidateVar(p.Description.Value, descriptionRules); err != nil {
			fields["description"] = varMessage(err)
		}
	}
	if p.Completed.Set && p.Completed.Null {
		fields["completed"] = "must not be null"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Columns returns the database columns the patch changes. An explicit null
// description clears the column.
func (p TodoPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Title.Set {
		cols["title"] = p.Title.Value
	}
	if p.Description.Set {
		if p.Description.Null {
			cols["description"] = nil
		} else {
			cols["description"] = p.Description.Value
		}
	}
	if p.Completed.Set {
		cols["completed"] = p.Completed.Value
	}
	return cols
}

// Apply copies the set fields onto t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		if p.Description.Null {
			t.Description = nil
		} else {
			d := p.Description.Value
			t.Description = &d
		}
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
}
