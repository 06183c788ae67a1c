package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborbank/bankcore/internal/adapter/http/dto"
	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

type movementService interface {
	Send(ctx context.Context, input usecase.SendInput) (*usecase.TransactionResult, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransactionResult, error)
	Cancel(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error)
}

type transactionQueryService interface {
	GetTransaction(ctx context.Context, callerID, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// TransactionHandler handles money movement and journal queries.
type TransactionHandler struct {
	transferUC    movementService
	transactionUC transactionQueryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transferUC movementService, transactionUC transactionQueryService) *TransactionHandler {
	return &TransactionHandler{
		transferUC:    transferUC,
		transactionUC: transactionUC,
	}
}

// Send pays out to an external beneficiary.
func (h *TransactionHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.SendMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.transferUC.Send(r.Context(), req.ToUseCaseInput(caller, idempotencyKey(r)))
	h.writeMovement(w, result, err)
}

// Transfer moves money between two accounts held here.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.TransferMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput(caller, idempotencyKey(r)))
	h.writeMovement(w, result, err)
}

// writeMovement renders a movement outcome. A failed movement still
// carries its journal entry, so the caller sees the failure reason and
// the audit record in one response.
func (h *TransactionHandler) writeMovement(w http.ResponseWriter, result *usecase.TransactionResult, err error) {
	if err != nil {
		if result != nil {
			writeJSON(w, mapDomainError(err), dto.MovementFromResult(result))
			return
		}

		writeError(w, mapDomainError(err), "money movement rejected", err.Error())
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	writeJSON(w, status, dto.MovementFromResult(result))
}

// Get retrieves a transaction visible to the caller.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.transactionUC.GetTransaction(r.Context(), caller, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ListByAccount lists an account's transactions, most recent first.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	txns, err := h.transactionUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		CallerID:  caller,
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}

// Cancel cancels a pending transaction.
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.transferUC.Cancel(r.Context(), caller, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
