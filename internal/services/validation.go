package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"taskhub/internal/models"
)

const (
	priorityTag = "oneof=LOW MEDIUM HIGH URGENT"
	statusTag   = "oneof=TODO IN_PROGRESS REVIEW COMPLETED"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so clients see the field they actually sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateTaskInput is the client payload for a new task. The creator is never
// part of it; it always comes from the authenticated caller.
type CreateTaskInput struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	DueDate      string `json:"dueDate" validate:"required"`
	Priority     string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Status       string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW COMPLETED"`
	AssignedToID string `json:"assignedToId" validate:"required"`
}

// UpdateTaskInput carries a partial update; nil fields are left untouched.
// Version, when present, enables the optimistic concurrency check.
type UpdateTaskInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	DueDate      *string `json:"dueDate"`
	Priority     *string `json:"priority"`
	Status       *string `json:"status"`
	AssignedToID *string `json:"assignedToId"`
	Version      *int    `json:"version"`
}

func (in *CreateTaskInput) validate() (time.Time, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.AssignedToID = strings.TrimSpace(in.AssignedToID)

	verr := &ValidationError{}
	collectFieldErrors(verr, "", validate.Struct(in))

	var due time.Time
	if in.DueDate != "" {
		t, err := parseDueDate(in.DueDate)
		if err != nil {
			verr.add("dueDate", dueDateReason)
		}
		due = t
	}
	return due, verr.orNil()
}

func (in *UpdateTaskInput) patch() (models.TaskPatch, error) {
	var p models.TaskPatch
	verr := &ValidationError{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		collectFieldErrors(verr, "title", validate.Var(title, "required,max=200"))
		p.Title = &title
	}
	if in.Description != nil {
		collectFieldErrors(verr, "description", validate.Var(*in.Description, "max=5000"))
		p.Description = in.Description
	}
	if in.DueDate != nil {
		t, err := parseDueDate(*in.DueDate)
		if err != nil {
			verr.add("dueDate", dueDateReason)
		}
		p.DueDate = &t
	}
	if in.Priority != nil {
		collectFieldErrors(verr, "priority", validate.Var(*in.Priority, "required,"+priorityTag))
		prio := models.TaskPriority(*in.Priority)
		p.Priority = &prio
	}
	if in.Status != nil {
		collectFieldErrors(verr, "status", validate.Var(*in.Status, "required,"+statusTag))
		status := models.TaskStatus(*in.Status)
		p.Status = &status
	}
	if in.AssignedToID != nil {
		assignee := strings.TrimSpace(*in.AssignedToID)
		collectFieldErrors(verr, "assignedToId", validate.Var(assignee, "required"))
		p.AssignedToID = &assignee
	}
	if in.Version != nil && *in.Version < 1 {
		verr.add("version", "must be positive")
	}
	return p, verr.orNil()
}

const dueDateReason = "must be an RFC3339 timestamp or a YYYY-MM-DD date"

// parseDueDate accepts a full RFC3339 timestamp or a bare date, which is
// read as midnight UTC (what an HTML date input sends).
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// ParseTaskFilter validates the optional list filters.
func ParseTaskFilter(status, priority string) (models.TaskFilter, error) {
	var f models.TaskFilter
	verr := &ValidationError{}
	if status != "" {
		collectFieldErrors(verr, "status", validate.Var(status, statusTag))
		s := models.TaskStatus(status)
		f.Status = &s
	}
	if priority != "" {
		collectFieldErrors(verr, "priority", validate.Var(priority, priorityTag))
		p := models.TaskPriority(priority)
		f.Priority = &p
	}
	return f, verr.orNil()
}

func collectFieldErrors(verr *ValidationError, field string, err error) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add(field, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		verr.add(name, reason(fe))
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}
