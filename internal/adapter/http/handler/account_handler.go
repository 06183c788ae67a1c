package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborbank/bankcore/internal/adapter/http/dto"
	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

type accountService interface {
	GetBalance(ctx context.Context, callerID, accountID string) (*usecase.BalanceOutput, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC accountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC accountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		CallerID: caller,
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// GetBalance returns the balance of one of the caller's accounts.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
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

	balance, err := h.accountUC.GetBalance(r.Context(), caller, accountID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromOutput(balance))
}
