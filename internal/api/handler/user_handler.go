package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/ports"
)

// BatchEnqueuer accepts upsert jobs for asynchronous processing.
type BatchEnqueuer interface {
	EnqueueBatch(ctx context.Context, jobs []ports.UpsertJob) (int, error)
}

// UserHandler handles HTTP requests for user administration.
type UserHandler struct {
	service ports.UserService
	batch   BatchEnqueuer
	log     zerolog.Logger
}

func NewUserHandler(service ports.UserService, batch BatchEnqueuer, log zerolog.Logger) *UserHandler {
	return &UserHandler{service: service, batch: batch, log: log}
}

// Create handles POST /v1/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      userRequest  true  "User fields"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	return h.upsert(c, nil, http.StatusCreated)
}

// Update handles PUT /v1/users/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "User id"
// @Param        body  body      userRequest  true  "User fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return h.upsert(c, &id, http.StatusOK)
}

func (h *UserHandler) upsert(c echo.Context, id *int64, status int) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req userRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.service.Upsert(c.Request().Context(), id, req.toSubmission())
	if err != nil {
		return err
	}

	h.log.Info().Str("actor", actor).Int64("user_id", u.ID).Msg("user saved via api")
	c.Response().Header().Set(echo.HeaderLocation, userPath(u.ID))
	return c.JSON(status, toUserResponse(u))
}

// Enable handles POST /v1/users/:id/enable.
//
// @Summary      Enable a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id}/enable [post]
func (h *UserHandler) Enable(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Enable(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Disable handles POST /v1/users/:id/disable.
//
// @Summary      Disable a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id}/disable [post]
func (h *UserHandler) Disable(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Disable(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      int  true  "User id"
// @Success      200 {object}  userDetailsResponse
// @Failure      404 {object}  map[string]string
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserDetailsResponse(d))
}

// ListTranslators handles GET /v1/users/translators.
//
// @Summary      List translators
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listUsersResponse
// @Router       /v1/users/translators [get]
func (h *UserHandler) ListTranslators(c echo.Context) error {
	users, err := h.service.ListTranslators(c.Request().Context())
	if err != nil {
		return err
	}

	resp := listUsersResponse{Users: make([]userResponse, 0, len(users)), Total: len(users)}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, resp)
}

// Batch handles POST /v1/users/batch. Jobs are queued and applied in order
// per user; the response only reports how many were accepted. When queueing
// stops early the first Accepted jobs are queued and the rest must be resent.
//
// @Summary      Queue user upserts
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      batchRequest  true  "Upsert jobs"
// @Success      202   {object}  batchResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  batchResponse
// @Failure      504   {object}  batchResponse
// @Router       /v1/users/batch [post]
func (h *UserHandler) Batch(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	jobs := make([]ports.UpsertJob, 0, len(req.Jobs))
	for i := range req.Jobs {
		jobs = append(jobs, ports.UpsertJob{ID: req.Jobs[i].ID, Submission: req.Jobs[i].User.toSubmission()})
	}

	n, err := h.batch.EnqueueBatch(c.Request().Context(), jobs)
	if err != nil {
		h.log.Warn().Err(err).Str("actor", actor).Int("accepted", n).Int("submitted", len(jobs)).Msg("batch partially queued")
		code := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
		}
		return c.JSON(code, batchResponse{Accepted: n, Error: "batch partially queued, resend the remaining jobs"})
	}

	h.log.Info().Str("actor", actor).Int("accepted", n).Msg("batch queued")
	return c.JSON(http.StatusAccepted, batchResponse{Accepted: n})
}
