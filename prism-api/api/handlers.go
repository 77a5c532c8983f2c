package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"prism-todo/prism-api/domain"
)

const healthTimeout = 2 * time.Second

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, events Events, logger *log.Logger) {
	if events == nil {
		events = noEvents{}
	}
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = httpErrorHandler
	e.Use(RequestMetricsMiddleware(logger))
	e.Use(InflateRequestMiddleware())

	e.GET("/api/tasks", getTasks(store))
	e.POST("/api/tasks", postTask(store, events))
	e.GET("/api/tasks/stats", getStats(store))
	e.PUT("/api/tasks/:id", putTask(store, events))
	e.DELETE("/api/tasks/:id", deleteTask(store, events))
	e.GET("/api/health", health(store))
}

func getTasks(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		filter, err := domain.ParseFilter(c.QueryParam("filter"))
		if err != nil {
			m.SetErrorStage("invalid_filter")
			return writeError(c, err)
		}
		q := domain.Query{Filter: filter, Search: c.QueryParam("search")}
		m.SetQuery(q)

		fetchStart := time.Now()
		tasks, err := store.ListTasks(c.Request().Context(), q)
		m.ObserveStore(time.Since(fetchStart))
		if err != nil {
			m.SetErrorStage("storage")
			return writeError(c, err)
		}
		result := q.Apply(tasks)
		m.SetTasksReturned(len(result))
		return c.JSON(http.StatusOK, result)
	}
}

func postTask(store Storage, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		var in domain.CreateInput
		if err := decodeBody(c, &in, false); err != nil {
			m.SetErrorStage("decode")
			return writeError(c, err)
		}
		task, err := domain.NewTask(in, uuid.NewString(), domain.Now())
		if err != nil {
			m.SetErrorStage("validate")
			return writeError(c, err)
		}

		start := time.Now()
		err = store.InsertTask(c.Request().Context(), task)
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			return writeError(c, err)
		}
		m.SetTaskID(task.ID)
		events.Dispatch(domain.NewTaskEvent(domain.TaskCreated, task.ID, &task, task.UpdatedAt))
		return c.JSON(http.StatusCreated, task)
	}
}

func putTask(store Storage, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		id := c.Param("id")
		m.SetTaskID(id)

		var patch domain.TaskPatch
		if err := decodeBody(c, &patch, true); err != nil {
			m.SetErrorStage("decode")
			return writeError(c, err)
		}
		patch, err := patch.Normalize()
		if err != nil {
			m.SetErrorStage("validate")
			return writeError(c, err)
		}

		start := time.Now()
		task, err := store.UpdateTask(c.Request().Context(), id, patch, domain.Now())
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			return writeError(c, err)
		}
		events.Dispatch(domain.NewTaskEvent(domain.TaskUpdated, task.ID, &task, task.UpdatedAt))
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		id := c.Param("id")
		m.SetTaskID(id)

		start := time.Now()
		err := store.DeleteTask(c.Request().Context(), id)
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			return writeError(c, err)
		}
		events.Dispatch(domain.NewTaskEvent(domain.TaskDeleted, id, nil, domain.Now()))
		return c.JSON(http.StatusOK, deleteResponse{Message: "task deleted"})
	}
}

func getStats(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		start := time.Now()
		tasks, err := store.ListTasks(c.Request().Context(), domain.Query{Filter: domain.FilterAll})
		m.ObserveStore(time.Since(start))
		if err != nil {
			m.SetErrorStage("storage")
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, domain.Aggregate(tasks))
	}
}

func health(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		db := "connected"
		if err := store.Ping(ctx); err != nil {
			metricsFrom(c).SetErrorStage("ping")
			db = "disconnected"
		}
		return c.JSON(http.StatusOK, healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Database:  db,
		})
	}
}
