package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tallybank/ledger-service/internal/command"
	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/middleware"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/query"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateSingleEntry(ctx context.Context, cmd command.CreateSingleEntryCommand) (*models.Transaction, error)
	CreateDoubleEntry(ctx context.Context, cmd command.CreateDoubleEntryCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error)
	GetUserTransaction(ctx context.Context, q query.GetUserTransactionQuery) (*models.TransactionView, error)
	ListUserTransactions(ctx context.Context, q query.ListUserTransactionsQuery) (*models.Page, error)
	ListTransactions(ctx context.Context, q query.ListTransactionsQuery) (*models.Page, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

// CreateTransactionRequest creates a single entry, or a transfer when dst is
// set. Value is a pointer so a missing value and an explicit zero are told
// apart: the former is a 400 here, the latter is rejected by the value policy.
type CreateTransactionRequest struct {
	Value *int64 `json:"value" validate:"required"`
	Dst   string `json:"dst"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID := c.Param("userId")

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	var transaction *models.Transaction
	var err error
	if req.Dst == "" {
		transaction, err = h.commands.CreateSingleEntry(c.Request.Context(), command.CreateSingleEntryCommand{
			UserID: userID,
			Value:  *req.Value,
		})
	} else {
		transaction, err = h.commands.CreateDoubleEntry(c.Request.Context(), command.CreateDoubleEntryCommand{
			SrcUserID: userID,
			DstUserID: req.Dst,
			Value:     *req.Value,
		})
	}
	if err != nil {
		respondTransactionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) ListUserTransactions(c *gin.Context) {
	page, err := h.queries.ListUserTransactions(c.Request.Context(), query.ListUserTransactionsQuery{
		UserID: c.Param("userId"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	})
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User "+c.Param("userId")+" not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TransactionHandler) GetUserTransaction(c *gin.Context) {
	view, err := h.queries.GetUserTransaction(c.Request.Context(), query.GetUserTransactionQuery{
		UserID:        c.Param("userId"),
		TransactionID: c.Param("transactionId"),
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUserNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "User "+c.Param("userId")+" not found")
		case errors.Is(err, errs.ErrTransactionNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "Transaction not found")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get transaction")
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	page, err := h.queries.ListTransactions(c.Request.Context(), query.ListTransactionsQuery{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")

	view, err := h.queries.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, errs.ErrTransactionNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Transaction not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get transaction")
		return
	}
	c.JSON(http.StatusOK, view)
}

// respondTransactionError maps engine failures to HTTP statuses. Out-of-range
// values are a policy breach (403), not a malformed request (400).
func respondTransactionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrUserNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, errs.ErrValueZero):
		middleware.RespondWithError(c, http.StatusBadRequest, "Transaction value must not be zero")
	case errors.Is(err, errs.ErrSelfTransfer):
		middleware.RespondWithError(c, http.StatusBadRequest, "Transfer source and destination must differ")
	case errors.Is(err, errs.ErrValueOutOfRange):
		middleware.RespondWithError(c, http.StatusForbidden, "Transaction value exceeds the allowed bounds")
	case errors.Is(err, errs.ErrTransientConflict):
		middleware.RespondWithError(c, http.StatusConflict, "Transaction conflicted with concurrent activity, please retry")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create transaction")
	}
}

func intQuery(c *gin.Context, key string) int {
	value := c.Query(key)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
