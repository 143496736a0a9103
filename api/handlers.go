package api

import (
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Register wires up all API routes on the provided Echo instance. deduper and
// publisher may be nil; the corresponding features are then disabled.
func Register(e *echo.Echo, store Storage, auth Authenticator, issuer TokenIssuer, deduper Deduper, publisher ActivityPublisher, logger *log.Logger) {
	svc := NewTaskService(store, publisher)

	e.POST("/api/tasks", createTask(svc, auth, deduper))
	e.GET("/api/tasks", listTasks(svc, auth, logger))
	e.GET("/api/tasks/:id", getTask(svc))
	e.PUT("/api/tasks/:id", updateTask(svc, auth))
	e.DELETE("/api/tasks/:id", deleteTask(svc, auth))
	e.PATCH("/api/tasks/:id/category", changeCategory(svc, auth))
	e.PATCH("/api/tasks/:id/checklist/:itemId", toggleChecklistItem(svc, auth))
	e.POST("/api/board/member", setBoardMember(svc, auth))
	e.GET("/api/analytics", getAnalytics(svc, auth))

	e.POST("/api/users/register", registerUser(store))
	e.POST("/api/users/login", loginUser(store, issuer))
	e.GET("/api/users", listUsers(store, auth))

	e.GET("/healthz", healthz(store))
}

func healthz(_ Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decodeBody decodes a size-limited JSON request body into v, rejecting
// unknown fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondError maps a typed error onto its HTTP status. Internal causes are
// logged but not exposed.
func respondError(c echo.Context, err error) error {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	return c.JSON(status, errorBody(err))
}

func actorFromRequest(c echo.Context, auth Authenticator) (string, error) {
	return auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
}

func createTask(svc *TaskService, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}

		var in CreateTaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}

		idemKey := c.Request().Header.Get(idempotencyKeyHeader)
		if idemKey != "" && deduper != nil {
			added, existingID, err := deduper.Claim(ctx, actor, idemKey)
			if err != nil {
				return respondError(c, err)
			}
			if !added {
				if existingID != "" {
					return c.JSON(http.StatusOK, createTaskResponse{ID: existingID})
				}
				return c.JSON(http.StatusConflict, errorResponse{Error: "request already in flight"})
			}
		}

		task, err := svc.Create(ctx, actor, in)
		if err != nil {
			if idemKey != "" && deduper != nil {
				if rerr := deduper.Release(ctx, actor, idemKey); rerr != nil {
					c.Logger().Errorf("idempotency release failed: %v", rerr)
				}
			}
			return respondError(c, err)
		}
		if idemKey != "" && deduper != nil {
			if rerr := deduper.Record(ctx, actor, idemKey, task.ID); rerr != nil {
				c.Logger().Errorf("idempotency record failed: %v", rerr)
			}
		}
		return c.JSON(http.StatusCreated, createTaskResponse{ID: task.ID})
	}
}

func listTasks(svc *TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		actor, authErr := actorFromRequest(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		filterKind := c.QueryParam("filter")
		metrics.SetFilterKind(filterKind)

		fetchStart := time.Now()
		board, listErr := svc.List(ctx, actor, filterKind)
		metrics.ObserveFetch(time.Since(fetchStart))
		if listErr != nil {
			if httpStatus(listErr) == http.StatusInternalServerError {
				metrics.SetErrorStage("storage")
			} else {
				metrics.SetErrorStage("invalid_filter")
			}
			err = respondError(c, listErr)
			return err
		}
		metrics.SetTasksReturned(len(board.Backlog) + len(board.Todo) + len(board.InProgress) + len(board.Done))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, board)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getTask(svc *TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		view, err := svc.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func updateTask(svc *TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in UpdateTaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := svc.Update(c.Request().Context(), actor, c.Param("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(svc *TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := svc.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func changeCategory(svc *TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in struct {
			Category string `json:"category"`
		}
		if err := decodeBody(c, &in); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := svc.ChangeCategory(c.Request().Context(), actor, c.Param("id"), in.Category)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func toggleChecklistItem(svc *TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in struct {
			Completed *bool `json:"completed"`
		}
		if err := decodeBody(c, &in); err != nil || in.Completed == nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := svc.ToggleChecklistItem(c.Request().Context(), actor, c.Param("id"), c.Param("itemId"), *in.Completed)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func setBoardMember(svc *TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in struct {
			Member string `json:"member"`
		}
		if err := decodeBody(c, &in); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		updated, err := svc.SetBoardMember(c.Request().Context(), actor, in.Member)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, setMemberResponse{Updated: updated})
	}
}

func getAnalytics(svc *TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromRequest(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		summary, err := svc.Analytics(c.Request().Context(), actor)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, summary)
	}
}
