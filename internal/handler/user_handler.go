package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallybank/ledger-service/internal/command"
	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/middleware"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/query"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(ctx context.Context, cmd command.CreateUserCommand) (*models.User, error)
	DeactivateUser(ctx context.Context, userID string) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(ctx context.Context, userID string) (*models.UserView, error)
	ListUsers(ctx context.Context, q query.ListUsersQuery) (*models.Page, error)
}

type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CreateUserRequest struct {
	Name        string `json:"name" validate:"required"`
	MailAddress string `json:"mail_address"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), command.CreateUserCommand{
		Name:        req.Name,
		MailAddress: req.MailAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDuplicateUser):
			middleware.RespondWithError(c, http.StatusConflict, "User "+req.Name+" already exists")
		case errors.Is(err, errs.ErrMissingField):
			middleware.RespondWithError(c, http.StatusBadRequest, "No name provided")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := h.queries.ListUsers(c.Request.Context(), query.ListUsersQuery{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("userId")

	view, err := h.queries.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User "+userID+" not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get user")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) DeactivateUser(c *gin.Context) {
	userID := c.Param("userId")

	if err := h.commands.DeactivateUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User "+userID+" not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate user")
		return
	}
	c.Status(http.StatusNoContent)
}
