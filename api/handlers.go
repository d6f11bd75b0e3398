package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"plansync-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, syncer Syncer, deduper Deduper, logger *log.Logger) {
	e.POST("/api/projects", createProject(store, logger))
	e.GET("/api/projects", listProjects(store, logger))
	e.GET("/api/projects/:id", getProject(store, logger))
	e.PATCH("/api/projects/:id", updateProject(store, logger))
	e.DELETE("/api/projects/:id", deleteProject(store, logger))

	e.POST("/api/goals", createGoal(store, logger))
	e.PATCH("/api/goals/:id", updateGoal(store, logger))
	e.DELETE("/api/goals/:id", deleteGoal(store, logger))

	e.POST("/api/tasks", createTask(store, logger))
	e.GET("/api/tasks", listTasks(store, logger))
	e.GET("/api/tasks/focus", listFocusTasks(store, logger))
	e.PATCH("/api/tasks/:id", updateTask(store, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, logger))

	e.POST("/api/sync", postSync(syncer, store, deduper, logger), GzipRequestMiddleware())
	e.GET("/healthz", healthz(store))
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}

// Projects

func createProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req projectRequest
		if err := decodeBody(c, crudBodyMaxSize, &req); err != nil {
			return respondError(c, logger, invalidBody())
		}
		if verr := req.Validate(); verr != nil {
			return respondError(c, logger, verr)
		}
		p, err := store.CreateProject(c.Request().Context(), req.Name)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusCreated, p)
	}
}

func listProjects(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		projects, err := store.FetchHierarchy(c.Request().Context())
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, projects)
	}
}

func getProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		p, err := store.GetProject(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, p)
	}
}

func updateProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		var req projectRequest
		if err := decodeBody(c, crudBodyMaxSize, &req); err != nil {
			return respondError(c, logger, invalidBody())
		}
		if verr := req.Validate(); verr != nil {
			return respondError(c, logger, verr)
		}
		p, err := store.UpdateProject(c.Request().Context(), id, req.Name)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, p)
	}
}

func deleteProject(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		if err := store.SoftDeleteProject(c.Request().Context(), id); err != nil {
			return respondError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// Goals

func createGoal(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createGoalRequest
		if err := decodeBody(c, crudBodyMaxSize, &req); err != nil {
			return respondError(c, logger, invalidBody())
		}
		if verr := req.Validate(); verr != nil {
			return respondError(c, logger, verr)
		}
		g, err := store.CreateGoal(c.Request().Context(), req.ProjectID, req.Name)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusCreated, g)
	}
}

func updateGoal(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		var req updateGoalRequest
		if err := decodeBody(c, crudBodyMaxSize, &req); err != nil {
			return respondError(c, logger, invalidBody())
		}
		if verr := req.Validate(); verr != nil {
			return respondError(c, logger, verr)
		}
		g, err := store.UpdateGoal(c.Request().Context(), id, req.Name)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, g)
	}
}

func deleteGoal(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		if err := store.SoftDeleteGoal(c.Request().Context(), id); err != nil {
			return respondError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// Tasks

func createTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := decodeBody(c, crudBodyMaxSize, &req); err != nil {
			return respondError(c, logger, invalidBody())
		}
		if verr := req.Validate(); verr != nil {
			return respondError(c, logger, verr)
		}
		t, err := store.CreateTask(c.Request().Context(), req.GoalID, req.snapshot())
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusCreated, t)
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter, verr := taskFilterFromQuery(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		tasks, err := store.ListTasks(c.Request().Context(), filter)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, tasks)
	}
}

func listFocusTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := store.ListFocusTasks(c.Request().Context())
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, tasks)
	}
}

func updateTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		var req updateTaskRequest
		if err := decodeBody(c, crudBodyMaxSize, &req); err != nil {
			return respondError(c, logger, invalidBody())
		}
		if verr := req.Validate(); verr != nil {
			return respondError(c, logger, verr)
		}
		t, err := store.UpdateTask(c.Request().Context(), id, req.patch())
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondData(c, http.StatusOK, t)
	}
}

func deleteTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, verr := pathID(c)
		if verr != nil {
			return respondError(c, logger, verr)
		}
		if err := store.SoftDeleteTask(c.Request().Context(), id); err != nil {
			return respondError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func invalidBody() *domain.ValidationError {
	return domain.NewValidationError(domain.FieldError{Field: "body", Message: "invalid JSON"})
}

func taskFilterFromQuery(c echo.Context) (domain.TaskFilter, *domain.ValidationError) {
	var (
		filter domain.TaskFilter
		errs   []domain.FieldError
	)
	if v := c.QueryParam("goalId"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			errs = append(errs, domain.FieldError{Field: "goalId", Message: "must be a valid id"})
		} else {
			filter.GoalID = &v
		}
	}
	if v := c.QueryParam("urgency"); v != "" {
		u := domain.Urgency(v)
		if !u.Valid() {
			errs = append(errs, domain.FieldError{Field: "urgency", Message: "must be one of LAAG, MIDDEN, HOOG"})
		} else {
			filter.Urgency = &u
		}
	}
	if v := c.QueryParam("todaysFocus"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "todaysFocus", Message: "must be a boolean"})
		} else {
			filter.TodaysFocus = &b
		}
	}
	if v := c.QueryParam("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "completed", Message: "must be a boolean"})
		} else {
			filter.Completed = &b
		}
	}
	if len(errs) > 0 {
		return domain.TaskFilter{}, &domain.ValidationError{Fields: errs}
	}
	return filter, nil
}

// Sync

func postSync(syncer Syncer, store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newSyncRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		decodeStart := time.Now()
		var req domain.SyncRequest
		if derr := decodeBody(c, syncBodyMaxSize, &req); derr != nil {
			metrics.SetErrorStage("decode")
			err = respondError(c, logger, invalidBody())
			return err
		}
		metrics.ObserveDecode(time.Since(decodeStart))
		metrics.SetProjectsSubmitted(len(req.Projects))

		if verr := validateSyncRequest(&req); verr != nil {
			metrics.SetErrorStage("validate")
			err = respondError(c, logger, verr)
			return err
		}

		idemKey := c.Request().Header.Get("Idempotency-Key")
		if idemKey != "" && deduper != nil {
			fresh, derr := deduper.Add(ctx, idemKey)
			if derr != nil {
				logger.WithError(derr).Warn("sync dedup unavailable, proceeding")
			} else if !fresh {
				// The merge for this key already ran; reconciliation is
				// idempotent so just return the current state.
				metrics.SetDuplicate(true)
				state, serr := store.FetchHierarchy(ctx)
				if serr != nil {
					metrics.SetErrorStage("snapshot")
					err = respondError(c, logger, serr)
					return err
				}
				err = respondData(c, http.StatusOK, domain.SyncResponse{
					ServerState: state,
					SyncedAt:    time.Now().UTC(),
				})
				return err
			}
		}

		mergeStart := time.Now()
		resp, serr := syncer.Sync(ctx, req)
		metrics.ObserveMerge(time.Since(mergeStart))
		if serr != nil {
			if idemKey != "" && deduper != nil {
				if rerr := deduper.Remove(ctx, idemKey); rerr != nil {
					logger.WithError(rerr).WithField("key", idemKey).Error("sync dedup rollback failed")
				}
			}
			metrics.SetErrorStage("merge")
			err = respondError(c, logger, serr)
			return err
		}
		metrics.SetResults(resp.SyncResults)

		encodeStart := time.Now()
		err = respondData(c, http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}
