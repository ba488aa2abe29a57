package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallybank/ledger-service/internal/command"
	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/query"
)

// ---- mock implementations ----

type mockTransactionCommander struct {
	singleFn func(command.CreateSingleEntryCommand) (*models.Transaction, error)
	doubleFn func(command.CreateDoubleEntryCommand) (*models.Transaction, error)
}

func (m *mockTransactionCommander) CreateSingleEntry(ctx context.Context, cmd command.CreateSingleEntryCommand) (*models.Transaction, error) {
	if m.singleFn != nil {
		return m.singleFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionCommander) CreateDoubleEntry(ctx context.Context, cmd command.CreateDoubleEntryCommand) (*models.Transaction, error) {
	if m.doubleFn != nil {
		return m.doubleFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactionQuerier struct {
	getFn      func(string) (*models.TransactionView, error)
	getUserFn  func(query.GetUserTransactionQuery) (*models.TransactionView, error)
	listUserFn func(query.ListUserTransactionsQuery) (*models.Page, error)
	listFn     func(query.ListTransactionsQuery) (*models.Page, error)
}

func (m *mockTransactionQuerier) GetTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	if m.getFn != nil {
		return m.getFn(transactionID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionQuerier) GetUserTransaction(ctx context.Context, q query.GetUserTransactionQuery) (*models.TransactionView, error) {
	if m.getUserFn != nil {
		return m.getUserFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionQuerier) ListUserTransactions(ctx context.Context, q query.ListUserTransactionsQuery) (*models.Page, error) {
	if m.listUserFn != nil {
		return m.listUserFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionQuerier) ListTransactions(ctx context.Context, q query.ListTransactionsQuery) (*models.Page, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newTxTestRouter(cmds TransactionCommander, qrys TransactionQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTransactionHandler(cmds, qrys)
	r.POST("/users/:userId/transactions", h.CreateTransaction)
	r.GET("/users/:userId/transactions", h.ListUserTransactions)
	r.GET("/users/:userId/transactions/:transactionId", h.GetUserTransaction)
	r.GET("/transactions", h.ListTransactions)
	r.GET("/transactions/:transactionId", h.GetTransaction)
	return r
}

// ---- test data ----

var linkID = "txn-002"

var txTestTransaction = &models.Transaction{
	ID: "txn-001", UserID: "usr-001", Value: 100,
	CreatedAt: time.Now(),
}

var txTestTransfer = &models.Transaction{
	ID: "txn-001", UserID: "usr-001", Value: 30, DoubleEntryID: &linkID,
	CreatedAt: time.Now(),
}

var txTestView = &models.TransactionView{
	ID: "txn-001", UserID: "usr-001", Value: 100,
	CreatedAt: time.Now(),
}

// ---- tests ----

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		singleFn       func(command.CreateSingleEntryCommand) (*models.Transaction, error)
		doubleFn       func(command.CreateDoubleEntryCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "created - single entry",
			body: map[string]interface{}{"value": 100},
			singleFn: func(cmd command.CreateSingleEntryCommand) (*models.Transaction, error) {
				return txTestTransaction, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "created - double entry with dst",
			body: map[string]interface{}{"value": 30, "dst": "usr-002"},
			doubleFn: func(cmd command.CreateDoubleEntryCommand) (*models.Transaction, error) {
				return txTestTransfer, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - value missing",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - value zero",
			body: map[string]interface{}{"value": 0},
			singleFn: func(cmd command.CreateSingleEntryCommand) (*models.Transaction, error) {
				return nil, errs.ErrValueZero
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "forbidden - value out of range",
			body: map[string]interface{}{"value": 999999},
			singleFn: func(cmd command.CreateSingleEntryCommand) (*models.Transaction, error) {
				return nil, errs.ErrValueOutOfRange
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - dst user missing",
			body: map[string]interface{}{"value": 30, "dst": "usr-999"},
			doubleFn: func(cmd command.CreateDoubleEntryCommand) (*models.Transaction, error) {
				return nil, errs.ErrUserNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "bad request - transfer to self",
			body: map[string]interface{}{"value": 30, "dst": "usr-001"},
			doubleFn: func(cmd command.CreateDoubleEntryCommand) (*models.Transaction, error) {
				return nil, errs.ErrSelfTransfer
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "conflict - store contention exhausted retries",
			body: map[string]interface{}{"value": 100},
			singleFn: func(cmd command.CreateSingleEntryCommand) (*models.Transaction, error) {
				return nil, errs.ErrTransientConflict
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockTransactionCommander{singleFn: tt.singleFn, doubleFn: tt.doubleFn}
			router := newTxTestRouter(cmds, &mockTransactionQuerier{})
			w := doRequest(router, http.MethodPost, "/users/usr-001/transactions", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateTransactionDispatch(t *testing.T) {
	// The presence of dst decides which engine operation runs.
	var gotSingle, gotDouble bool
	cmds := &mockTransactionCommander{
		singleFn: func(cmd command.CreateSingleEntryCommand) (*models.Transaction, error) {
			gotSingle = true
			return txTestTransaction, nil
		},
		doubleFn: func(cmd command.CreateDoubleEntryCommand) (*models.Transaction, error) {
			gotDouble = true
			if cmd.SrcUserID != "usr-001" || cmd.DstUserID != "usr-002" {
				t.Errorf("unexpected transfer endpoints: %+v", cmd)
			}
			return txTestTransfer, nil
		},
	}
	router := newTxTestRouter(cmds, &mockTransactionQuerier{})

	doRequest(router, http.MethodPost, "/users/usr-001/transactions", map[string]interface{}{"value": 100})
	if !gotSingle || gotDouble {
		t.Error("request without dst must dispatch to CreateSingleEntry")
	}

	gotSingle, gotDouble = false, false
	doRequest(router, http.MethodPost, "/users/usr-001/transactions", map[string]interface{}{"value": 30, "dst": "usr-002"})
	if !gotDouble || gotSingle {
		t.Error("request with dst must dispatch to CreateDoubleEntry")
	}
}

func TestListUserTransactions(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		listUserFn     func(query.ListUserTransactionsQuery) (*models.Page, error)
		expectedStatus int
	}{
		{
			name:   "success - list transactions",
			userID: "usr-001",
			listUserFn: func(q query.ListUserTransactionsQuery) (*models.Page, error) {
				return &models.Page{Entries: []any{*txTestView}, Limit: 100, OverallCount: 1}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "not found - user does not exist",
			userID: "usr-999",
			listUserFn: func(q query.ListUserTransactionsQuery) (*models.Page, error) {
				return nil, errs.ErrUserNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{listUserFn: tt.listUserFn})
			w := doRequest(router, http.MethodGet, "/users/"+tt.userID+"/transactions", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetUserTransaction(t *testing.T) {
	tests := []struct {
		name           string
		getUserFn      func(query.GetUserTransactionQuery) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name: "success - fetch own transaction",
			getUserFn: func(q query.GetUserTransactionQuery) (*models.TransactionView, error) {
				return txTestView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - transaction belongs to another user",
			getUserFn: func(q query.GetUserTransactionQuery) (*models.TransactionView, error) {
				return nil, errs.ErrTransactionNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "not found - user does not exist",
			getUserFn: func(q query.GetUserTransactionQuery) (*models.TransactionView, error) {
				return nil, errs.ErrUserNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{getUserFn: tt.getUserFn})
			w := doRequest(router, http.MethodGet, "/users/usr-001/transactions/txn-001", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListTransactionsEnvelope(t *testing.T) {
	router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{
		listFn: func(q query.ListTransactionsQuery) (*models.Page, error) {
			return &models.Page{Entries: []any{*txTestView}, Limit: 100, Offset: 0, OverallCount: 42}, nil
		},
	})

	w := doRequest(router, http.MethodGet, "/transactions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}

	var page map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	for _, key := range []string{"entries", "limit", "offset", "overall_count"} {
		if _, ok := page[key]; !ok {
			t.Errorf("envelope missing %q", key)
		}
	}
}

func TestGetTransaction(t *testing.T) {
	tests := []struct {
		name           string
		getFn          func(string) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name:           "success - fetch transaction",
			getFn:          func(id string) (*models.TransactionView, error) { return txTestView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - transaction does not exist",
			getFn:          func(id string) (*models.TransactionView, error) { return nil, errs.ErrTransactionNotFound },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{getFn: tt.getFn})
			w := doRequest(router, http.MethodGet, "/transactions/txn-001", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
