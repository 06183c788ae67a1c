package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/adapter/http/dto"
	"github.com/harborbank/bankcore/internal/adapter/http/middleware"
	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

type movementServiceStub struct {
	sendFn     func(ctx context.Context, input usecase.SendInput) (*usecase.TransactionResult, error)
	transferFn func(ctx context.Context, input usecase.TransferInput) (*usecase.TransactionResult, error)
	cancelFn   func(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error)
}

func (s *movementServiceStub) Send(ctx context.Context, input usecase.SendInput) (*usecase.TransactionResult, error) {
	return s.sendFn(ctx, input)
}

func (s *movementServiceStub) Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransactionResult, error) {
	return s.transferFn(ctx, input)
}

func (s *movementServiceStub) Cancel(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error) {
	return s.cancelFn(ctx, callerID, transactionID)
}

type transactionQueryStub struct {
	getFn  func(ctx context.Context, callerID, id string) (*domain.Transaction, error)
	listFn func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

func (s *transactionQueryStub) GetTransaction(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, callerID, id)
}

func (s *transactionQueryStub) ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
	return s.listFn(ctx, input)
}

func withCaller(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

func newTransactionRouter(h *TransactionHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/transactions/transfer", h.Transfer)
	r.Post("/api/v1/transactions/send", h.Send)
	r.Get("/api/v1/transactions/{id}", h.Get)
	r.Post("/api/v1/transactions/{id}/cancel", h.Cancel)
	r.Get("/api/v1/accounts/{id}/transactions", h.ListByAccount)
	return r
}

func TestTransactionHandler_Transfer_Success(t *testing.T) {
	txn := &domain.Transaction{
		ID:              "txn-1",
		Type:            domain.TransactionTypeTransfer,
		SourceAccountID: "acc-a",
		Amount:          decimal.NewFromInt(30),
		Currency:        "GBP",
		Status:          domain.TransactionStatusCompleted,
	}

	var captured usecase.TransferInput
	h := NewTransactionHandler(&movementServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransactionResult, error) {
			captured = input
			return &usecase.TransactionResult{Transaction: txn, NewBalance: decimal.NewFromInt(70)}, nil
		},
	}, &transactionQueryStub{})

	body, _ := json.Marshal(dto.TransferMoneyRequest{
		SourceAccountID: "acc-a",
		DestAccountID:   "acc-b",
		Amount:          decimal.NewFromInt(30),
		Currency:        "GBP",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/transfer", bytes.NewReader(body))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, withCaller(req, "user-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.CallerID != "user-1" || captured.IdempotencyKey == nil || *captured.IdempotencyKey != "key-1" {
		t.Fatalf("unexpected captured input: %+v", captured)
	}

	var resp dto.MovementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if resp.Transaction.ID != "txn-1" || resp.NewBalance == nil || !resp.NewBalance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransactionHandler_Transfer_FailureCarriesJournalEntry(t *testing.T) {
	reason := domain.ErrInsufficientFunds.Error()
	failed := &domain.Transaction{
		ID:              "txn-1",
		Type:            domain.TransactionTypeTransfer,
		SourceAccountID: "acc-a",
		Amount:          decimal.NewFromInt(150),
		Currency:        "GBP",
		Status:          domain.TransactionStatusFailed,
		FailureReason:   &reason,
	}

	h := NewTransactionHandler(&movementServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransactionResult, error) {
			return &usecase.TransactionResult{Transaction: failed}, domain.ErrInsufficientFunds
		},
	}, &transactionQueryStub{})

	body, _ := json.Marshal(dto.TransferMoneyRequest{
		SourceAccountID: "acc-a",
		DestAccountID:   "acc-b",
		Amount:          decimal.NewFromInt(150),
		Currency:        "GBP",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/transfer", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, withCaller(req, "user-1"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp dto.MovementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if resp.Transaction.Status != string(domain.TransactionStatusFailed) {
		t.Fatalf("expected failed journal entry in body, got %+v", resp.Transaction)
	}
	if resp.Transaction.FailureReason == nil || *resp.Transaction.FailureReason != reason {
		t.Fatalf("expected failure reason, got %+v", resp.Transaction)
	}
	if resp.NewBalance != nil {
		t.Fatalf("failed movement must not expose a new balance")
	}
}

func TestTransactionHandler_Transfer_ReplayedReturns200(t *testing.T) {
	txn := &domain.Transaction{
		ID:     "txn-1",
		Status: domain.TransactionStatusCompleted,
		Amount: decimal.NewFromInt(30),
	}

	h := NewTransactionHandler(&movementServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransactionResult, error) {
			return &usecase.TransactionResult{Transaction: txn, NewBalance: decimal.NewFromInt(70), Replayed: true}, nil
		},
	}, &transactionQueryStub{})

	body, _ := json.Marshal(dto.TransferMoneyRequest{
		SourceAccountID: "acc-a",
		DestAccountID:   "acc-b",
		Amount:          decimal.NewFromInt(30),
		Currency:        "GBP",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/transfer", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, withCaller(req, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}
}

func TestTransactionHandler_Send_Unauthorized(t *testing.T) {
	h := NewTransactionHandler(&movementServiceStub{}, &transactionQueryStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without caller identity, got %d", rec.Code)
	}
}

func TestTransactionHandler_Cancel(t *testing.T) {
	cancelled := &domain.Transaction{ID: "txn-1", Status: domain.TransactionStatusCancelled}

	var gotCaller, gotID string
	h := NewTransactionHandler(&movementServiceStub{
		cancelFn: func(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error) {
			gotCaller, gotID = callerID, transactionID
			return cancelled, nil
		},
	}, &transactionQueryStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/txn-1/cancel", nil)
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, withCaller(req, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotCaller != "user-1" || gotID != "txn-1" {
		t.Fatalf("unexpected cancel args: caller=%s id=%s", gotCaller, gotID)
	}
}

func TestTransactionHandler_Get_NotVisible(t *testing.T) {
	h := NewTransactionHandler(&movementServiceStub{}, &transactionQueryStub{
		getFn: func(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
			return nil, domain.ErrNotAccountOwner
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/txn-1", nil)
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, withCaller(req, "user-9"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestTransactionHandler_ListByAccount(t *testing.T) {
	var captured usecase.ListTransactionsInput
	h := NewTransactionHandler(&movementServiceStub{}, &transactionQueryStub{
		listFn: func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
			captured = input
			return []*domain.Transaction{{ID: "txn-1"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/transactions?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()

	newTransactionRouter(h).ServeHTTP(rec, withCaller(req, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.AccountID != "acc-1" || captured.Limit != 5 || captured.Offset != 10 {
		t.Fatalf("unexpected captured input: %+v", captured)
	}
}
