package loans

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

type loanResponse struct {
	ID                 int64  `json:"id"`
	Reference          string `json:"reference"`
	Principal          string `json:"principal"`
	InterestRate       string `json:"interest_rate"`
	TermMonths         int    `json:"term_months"`
	MonthlyRepayment   string `json:"monthly_repayment"`
	OutstandingBalance string `json:"outstanding_balance"`
	ShortTerm          bool   `json:"short_term"`
	Status             string `json:"status"`
}

func toLoanResponse(l Loan) loanResponse {
	return loanResponse{
		ID:                 l.ID,
		Reference:          l.Reference,
		Principal:          l.Principal.StringFixed(2),
		InterestRate:       l.InterestRate.String(),
		TermMonths:         l.TermMonths,
		MonthlyRepayment:   l.MonthlyRepayment.StringFixed(2),
		OutstandingBalance: l.OutstandingBalance.StringFixed(2),
		ShortTerm:          l.ShortTerm(),
		Status:             string(l.Status),
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
		h.logger.Error("list loans", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]loanResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toLoanResponse(l))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	loan, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLoanResponse(loan))
}
