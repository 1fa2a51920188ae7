package posting

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type Handler struct {
	service         *Service
	logger          *slog.Logger
	validator       *validator.Validate
	standardVATRate decimal.Decimal
}

// NewHandler wires the transaction endpoints. standardVATRate fills in
// for requests that omit vat_rate; VAT-exempt elements still force zero.
func NewHandler(logger *slog.Logger, service *Service, standardVATRate decimal.Decimal) *Handler {
	return &Handler{
		logger:          logger,
		service:         service,
		validator:       validator.New(),
		standardVATRate: standardVATRate,
	}
}

type splitLineRequest struct {
	AccountID   int64  `json:"account_id" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	VATRate     string `json:"vat_rate"`
	Description string `json:"description" validate:"max=256"`
}

type sourceRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=invoice_issued invoice_paid purchase_order_sent"`
	DocumentID int64  `json:"document_id" validate:"required"`
}

type transactionRequest struct {
	CompanyID     int64  `json:"company_id" validate:"required"`
	Element       string `json:"element" validate:"required"`
	Date          string `json:"date" validate:"required"`
	Description   string `json:"description" validate:"required,max=512"`
	Reference     string `json:"reference" validate:"max=64"`
	Amount        string `json:"amount" validate:"required"`
	VATRate       string `json:"vat_rate"`
	VATInclusive  bool   `json:"vat_inclusive"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=bank cash credit"`

	BankAccountID   *int64 `json:"bank_account_id"`
	DebitAccountID  int64  `json:"debit_account_id"`
	CreditAccountID int64  `json:"credit_account_id"`

	SplitLines []splitLineRequest `json:"split_lines" validate:"dive"`

	LoanID         *int64 `json:"loan_id"`
	LoanReference  string `json:"loan_reference" validate:"max=64"`
	LoanAnnualRate string `json:"loan_annual_rate"`
	LoanTermMonths int    `json:"loan_term_months"`

	AssetID              *int64 `json:"asset_id"`
	AssetDescription     string `json:"asset_description" validate:"max=256"`
	AssetUsefulLifeYears int    `json:"asset_useful_life_years"`

	Source  *sourceRequest `json:"source" validate:"omitempty"`
	ActorID int64          `json:"actor_id"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (req transactionRequest) toInput() (Input, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return Input{}, errors.New("date must be YYYY-MM-DD")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return Input{}, errors.New("amount must be a decimal number")
	}
	vatRate, err := parseAmount(req.VATRate)
	if err != nil {
		return Input{}, errors.New("vat_rate must be a decimal number")
	}
	loanRate, err := parseAmount(req.LoanAnnualRate)
	if err != nil {
		return Input{}, errors.New("loan_annual_rate must be a decimal number")
	}

	in := Input{
		CompanyID:            req.CompanyID,
		Element:              Element(req.Element),
		Date:                 date,
		Description:          req.Description,
		Reference:            req.Reference,
		Amount:               amount,
		VATRate:              vatRate,
		VATInclusive:         req.VATInclusive,
		PaymentMethod:        PaymentMethod(req.PaymentMethod),
		BankAccountID:        req.BankAccountID,
		DebitAccountID:       req.DebitAccountID,
		CreditAccountID:      req.CreditAccountID,
		LoanID:               req.LoanID,
		LoanReference:        req.LoanReference,
		LoanAnnualRate:       loanRate,
		LoanTermMonths:       req.LoanTermMonths,
		AssetID:              req.AssetID,
		AssetDescription:     req.AssetDescription,
		AssetUsefulLifeYears: req.AssetUsefulLifeYears,
		ActorID:              req.ActorID,
	}
	for _, line := range req.SplitLines {
		lineAmount, err := parseAmount(line.Amount)
		if err != nil {
			return Input{}, errors.New("split line amount must be a decimal number")
		}
		lineRate, err := parseAmount(line.VATRate)
		if err != nil {
			return Input{}, errors.New("split line vat_rate must be a decimal number")
		}
		in.SplitLines = append(in.SplitLines, SplitLine{
			AccountID:   line.AccountID,
			Amount:      lineAmount,
			VATRate:     lineRate,
			Description: line.Description,
		})
	}
	if req.Source != nil {
		in.Source = &SourceRef{Kind: SourceKind(req.Source.Kind), DocumentID: req.Source.DocumentID}
	}
	return in, nil
}

type postResponse struct {
	TransactionID    int64 `json:"transaction_id"`
	DuplicateWarning bool  `json:"duplicate_warning"`
}

type entryResponse struct {
	AccountID   int64  `json:"account_id"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
}

type transactionResponse struct {
	ID            int64           `json:"id"`
	PostingUID    string          `json:"posting_uid"`
	Element       string          `json:"element"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	BankAccountID *int64          `json:"bank_account_id,omitempty"`
	TotalAmount   string          `json:"total_amount"`
	BaseAmount    string          `json:"base_amount"`
	VATAmount     string          `json:"vat_amount"`
	VATRate       string          `json:"vat_rate"`
	VATInclusive  bool            `json:"vat_inclusive"`
	LoanID        *int64          `json:"loan_id,omitempty"`
	AssetID       *int64          `json:"asset_id,omitempty"`
	Status        string          `json:"status"`
	Entries       []entryResponse `json:"entries,omitempty"`
}

func toTransactionResponse(t Transaction, entries []Entry) transactionResponse {
	out := transactionResponse{
		ID:            t.ID,
		PostingUID:    t.PostingUID.String(),
		Element:       string(t.Element),
		Date:          t.Date.Format("2006-01-02"),
		Description:   t.Description,
		Reference:     t.Reference,
		PaymentMethod: string(t.PaymentMethod),
		BankAccountID: t.BankAccountID,
		TotalAmount:   t.TotalAmount.StringFixed(2),
		BaseAmount:    t.BaseAmount.StringFixed(2),
		VATAmount:     t.VATAmount.StringFixed(2),
		VATRate:       t.VATRate.String(),
		VATInclusive:  t.VATInclusive,
		LoanID:        t.LoanID,
		AssetID:       t.AssetID,
		Status:        string(t.Status),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, entryResponse{
			AccountID:   e.AccountID,
			Debit:       e.Debit.StringFixed(2),
			Credit:      e.Credit.StringFixed(2),
			Description: e.Description,
		})
	}
	return out
}

// respondError adds the posting-specific mappings on top of the shared
// RFC7807 responder.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTransactionNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, loans.ErrDuplicateInstallment):
		httpx.Problem(w, http.StatusConflict, "Duplicate Installment", err.Error())
	case errors.Is(err, assets.ErrAssetDisposed):
		httpx.Problem(w, http.StatusConflict, "Asset Disposed", err.Error())
	case errors.Is(err, ErrNotPosted):
		httpx.Problem(w, http.StatusConflict, "Not Posted", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("posting request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return Input{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return Input{}, false
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return Input{}, false
	}
	if req.VATRate == "" {
		in.VATRate = h.standardVATRate
	}
	return in, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := h.service.Post(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, postResponse{TransactionID: res.TransactionID, DuplicateWarning: res.DuplicateWarning})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := h.service.Edit(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, postResponse{TransactionID: res.TransactionID, DuplicateWarning: res.DuplicateWarning})
}

func (h *Handler) Unreconcile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if err := h.service.Unreconcile(r.Context(), id, actorID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	entries, err := h.service.Entries(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn, entries))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "company_id query parameter required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	list, err := h.service.List(r.Context(), companyID, limit, offset)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t, nil))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type candidatesResponse struct {
	Debit        []candidateAccount `json:"debit"`
	Credit       []candidateAccount `json:"credit"`
	AutoDebitID  int64              `json:"auto_debit_id,omitempty"`
	AutoCreditID int64              `json:"auto_credit_id,omitempty"`
}

type candidateAccount struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ElementAccounts returns the admissible debit/credit sets for an
// element, so clients can populate account pickers.
func (h *Handler) ElementAccounts(w http.ResponseWriter, r *http.Request) {
	element, err := ParseElement(chi.URLParam(r, "element"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown element")
		return
	}
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "company_id query parameter required")
		return
	}
	debitID, _ := strconv.ParseInt(r.URL.Query().Get("debit_account_id"), 10, 64)
	creditID, _ := strconv.ParseInt(r.URL.Query().Get("credit_account_id"), 10, 64)
	var loanID *int64
	if raw := r.URL.Query().Get("loan_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid loan_id")
			return
		}
		loanID = &parsed
	}

	cands, err := h.service.Candidates(r.Context(), companyID, element, debitID, creditID, loanID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := candidatesResponse{AutoDebitID: cands.AutoDebitID, AutoCreditID: cands.AutoCreditID}
	for _, a := range cands.Debit {
		out.Debit = append(out.Debit, candidateAccount{ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type)})
	}
	for _, a := range cands.Credit {
		out.Credit = append(out.Credit, candidateAccount{ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type)})
	}
	httpx.JSON(w, http.StatusOK, out)
}
