package assets

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

type assetResponse struct {
	ID                      int64  `json:"id"`
	Description             string `json:"description"`
	Cost                    string `json:"cost"`
	PurchaseDate            string `json:"purchase_date"`
	UsefulLifeYears         int    `json:"useful_life_years"`
	AccumulatedDepreciation string `json:"accumulated_depreciation"`
	NetBookValue            string `json:"net_book_value"`
	MonthlyDepreciation     string `json:"monthly_depreciation"`
	Status                  string `json:"status"`
	DisposalDate            string `json:"disposal_date,omitempty"`
}

func toAssetResponse(a FixedAsset) assetResponse {
	out := assetResponse{
		ID:                      a.ID,
		Description:             a.Description,
		Cost:                    a.Cost.StringFixed(2),
		PurchaseDate:            a.PurchaseDate.Format("2006-01-02"),
		UsefulLifeYears:         a.UsefulLifeYears,
		AccumulatedDepreciation: a.AccumulatedDepreciation.StringFixed(2),
		NetBookValue:            a.NetBookValue().StringFixed(2),
		MonthlyDepreciation:     MonthlyDepreciation(a.Cost, a.UsefulLifeYears).StringFixed(2),
		Status:                  string(a.Status),
	}
	if a.DisposalDate != nil {
		out.DisposalDate = a.DisposalDate.Format("2006-01-02")
	}
	return out
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "company_id query parameter required")
		return
	}
	list, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list fixed assets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]assetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAssetResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	asset, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssetResponse(asset))
}
