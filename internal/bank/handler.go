package bank

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

type bankAccountResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LedgerCode    string `json:"ledger_code"`
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
	IsActive      bool   `json:"is_active"`
}

func toBankAccountResponse(b BankAccount) bankAccountResponse {
	return bankAccountResponse{
		ID:            b.ID,
		Name:          b.Name,
		LedgerCode:    b.LedgerCode,
		AccountNumber: b.AccountNumber,
		Balance:       b.Balance.StringFixed(2),
		IsActive:      b.IsActive,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "company_id query parameter required")
		return
	}
	list, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list bank accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]bankAccountResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBankAccountResponse(b))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBankAccountResponse(account))
}
