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

type beneficiaryService interface {
	CreateBeneficiary(ctx context.Context, input usecase.CreateBeneficiaryInput) (*domain.Beneficiary, error)
	GetBeneficiary(ctx context.Context, callerID, id string) (*domain.Beneficiary, error)
	ListBeneficiaries(ctx context.Context, callerID string) ([]*domain.Beneficiary, error)
	DeleteBeneficiary(ctx context.Context, callerID, id string) error
}

// BeneficiaryHandler handles saved-payee HTTP requests.
type BeneficiaryHandler struct {
	beneficiaryUC beneficiaryService
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(beneficiaryUC beneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{beneficiaryUC: beneficiaryUC}
}

// Create saves a payee.
func (h *BeneficiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.CreateBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	beneficiary, err := h.beneficiaryUC.CreateBeneficiary(r.Context(), req.ToUseCaseInput(caller))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create beneficiary", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.BeneficiaryFromDomain(beneficiary))
}

// Get retrieves one of the caller's payees.
func (h *BeneficiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing beneficiary ID", "")
		return
	}

	beneficiary, err := h.beneficiaryUC.GetBeneficiary(r.Context(), caller, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get beneficiary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BeneficiaryFromDomain(beneficiary))
}

// List lists the caller's payees.
func (h *BeneficiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	beneficiaries, err := h.beneficiaryUC.ListBeneficiaries(r.Context(), caller)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list beneficiaries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BeneficiariesFromDomain(beneficiaries))
}

// Delete removes one of the caller's payees.
func (h *BeneficiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing beneficiary ID", "")
		return
	}

	if err := h.beneficiaryUC.DeleteBeneficiary(r.Context(), caller, id); err != nil {
		writeError(w, mapDomainError(err), "failed to delete beneficiary", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
