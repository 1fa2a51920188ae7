package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type createAccountRequest struct {
	CompanyID int64  `json:"company_id" validate:"required"`
	Code      string `json:"code" validate:"required,max=16"`
	Name      string `json:"name" validate:"required,max=128"`
	Type      string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type), IsActive: a.IsActive}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "company_id query parameter required")
		return
	}
	chart, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(chart))
	for _, a := range chart {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), Account{
		CompanyID: req.CompanyID,
		Code:      req.Code,
		Name:      req.Name,
		Type:      AccountType(req.Type),
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "account code already exists for company")
			return
		}
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(created))
}
