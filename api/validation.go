package api

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"plansync-api/domain"
)

// decodeBody strictly decodes a size-capped JSON request body.
func decodeBody(c echo.Context, maxSize int64, dst any) error {
	lr := io.LimitReader(c.Request().Body, maxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// pathID extracts and validates the :id path parameter.
func pathID(c echo.Context) (string, *domain.ValidationError) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.NewValidationError(domain.FieldError{Field: "id", Message: "must be a valid id"})
	}
	return id, nil
}

func checkName(field, name string, maxLen int, errs *[]domain.FieldError) {
	if strings.TrimSpace(name) == "" {
		*errs = append(*errs, domain.FieldError{Field: field, Message: "must not be empty"})
		return
	}
	if len(name) > maxLen {
		*errs = append(*errs, domain.FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", maxLen)})
	}
}

func checkRef(field, id string, errs *[]domain.FieldError) {
	if _, err := uuid.Parse(id); err != nil {
		*errs = append(*errs, domain.FieldError{Field: field, Message: "must be a valid id"})
	}
}

type projectRequest struct {
	Name string `json:"name"`
}

func (r projectRequest) Validate() *domain.ValidationError {
	var errs []domain.FieldError
	checkName("name", r.Name, domain.MaxProjectNameLen, &errs)
	if len(errs) > 0 {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

type createGoalRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

func (r createGoalRequest) Validate() *domain.ValidationError {
	var errs []domain.FieldError
	checkRef("projectId", r.ProjectID, &errs)
	checkName("name", r.Name, domain.MaxProjectNameLen, &errs)
	if len(errs) > 0 {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

type updateGoalRequest struct {
	Name string `json:"name"`
}

func (r updateGoalRequest) Validate() *domain.ValidationError {
	var errs []domain.FieldError
	checkName("name", r.Name, domain.MaxProjectNameLen, &errs)
	if len(errs) > 0 {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

type createTaskRequest struct {
	GoalID      string         `json:"goalId"`
	Name        string         `json:"name"`
	Urgency     domain.Urgency `json:"urgency,omitempty"`
	TodaysFocus bool           `json:"todaysFocus,omitempty"`
}

func (r createTaskRequest) Validate() *domain.ValidationError {
	var errs []domain.FieldError
	checkRef("goalId", r.GoalID, &errs)
	checkName("name", r.Name, domain.MaxTaskNameLen, &errs)
	if r.Urgency != "" && !r.Urgency.Valid() {
		errs = append(errs, domain.FieldError{Field: "urgency", Message: "must be one of LAAG, MIDDEN, HOOG"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

func (r createTaskRequest) snapshot() domain.TaskSnapshot {
	return domain.TaskSnapshot{
		Name:        strings.TrimSpace(r.Name),
		Urgency:     r.Urgency,
		TodaysFocus: r.TodaysFocus,
	}
}

type updateTaskRequest struct {
	GoalID      *string         `json:"goalId,omitempty"`
	Name        *string         `json:"name,omitempty"`
	Completed   *bool           `json:"completed,omitempty"`
	Urgency     *domain.Urgency `json:"urgency,omitempty"`
	TodaysFocus *bool           `json:"todaysFocus,omitempty"`
}

func (r updateTaskRequest) Validate() *domain.ValidationError {
	var errs []domain.FieldError
	if r.GoalID == nil && r.Name == nil && r.Completed == nil && r.Urgency == nil && r.TodaysFocus == nil {
		errs = append(errs, domain.FieldError{Field: "body", Message: "at least one field is required"})
	}
	if r.GoalID != nil {
		checkRef("goalId", *r.GoalID, &errs)
	}
	if r.Name != nil {
		checkName("name", *r.Name, domain.MaxTaskNameLen, &errs)
	}
	if r.Urgency != nil && !r.Urgency.Valid() {
		errs = append(errs, domain.FieldError{Field: "urgency", Message: "must be one of LAAG, MIDDEN, HOOG"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

func (r updateTaskRequest) patch() domain.TaskPatch {
	return domain.TaskPatch{
		GoalID:      r.GoalID,
		Name:        r.Name,
		Completed:   r.Completed,
		Urgency:     r.Urgency,
		TodaysFocus: r.TodaysFocus,
	}
}

// validateSyncRequest checks every snapshot node before any store mutation and
// fills in the default urgency. Field paths index into the submitted arrays.
func validateSyncRequest(req *domain.SyncRequest) *domain.ValidationError {
	var errs []domain.FieldError
	for i := range req.Projects {
		p := &req.Projects[i]
		checkName(fmt.Sprintf("projects[%d].name", i), p.Name, domain.MaxProjectNameLen, &errs)
		for j := range p.Goals {
			g := &p.Goals[j]
			checkName(fmt.Sprintf("projects[%d].goals[%d].name", i, j), g.Name, domain.MaxProjectNameLen, &errs)
			for k := range g.Tasks {
				t := &g.Tasks[k]
				checkName(fmt.Sprintf("projects[%d].goals[%d].tasks[%d].name", i, j, k), t.Name, domain.MaxTaskNameLen, &errs)
				if t.Urgency == "" {
					t.Urgency = domain.UrgencyMedium
				} else if !t.Urgency.Valid() {
					errs = append(errs, domain.FieldError{
						Field:   fmt.Sprintf("projects[%d].goals[%d].tasks[%d].urgency", i, j, k),
						Message: "must be one of LAAG, MIDDEN, HOOG",
					})
				}
			}
		}
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}
