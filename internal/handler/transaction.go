package handler

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/report"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler records and lists ledger entries.
type TransactionHandler struct {
	Ledger   *ledger.Service
	Reports  *report.Service
	PageSize int
	now      func() time.Time
}

func NewTransactionHandler(l *ledger.Service, r *report.Service, pageSize int) *TransactionHandler {
	return &TransactionHandler{Ledger: l, Reports: r, PageSize: pageSize, now: time.Now}
}

type createTransactionReq struct {
	Direction  string           `json:"direction"`
	Amount     *decimal.Decimal `json:"amount"`
	CategoryID uint             `json:"category_id"`
	OccurredOn string           `json:"occurred_on"`
	Note       string           `json:"note"`
}

type transactionResp struct {
	ID         uint             `json:"id"`
	Direction  models.Direction `json:"direction"`
	AmountCent int64            `json:"amount_cent"`
	Amount     string           `json:"amount"`
	CategoryID uint             `json:"category_id"`
	Category   string           `json:"category"`
	OccurredOn string           `json:"occurred_on"`
	Note       string           `json:"note"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toTransactionResp(e *models.Transaction) transactionResp {
	return transactionResp{
		ID:         e.ID,
		Direction:  e.Direction,
		AmountCent: e.AmountCent,
		Amount:     money.Format(e.AmountCent),
		CategoryID: e.CategoryID,
		Category:   e.Category.Name,
		OccurredOn: e.OccurredOn.UTC().Format("2006-01-02"),
		Note:       e.Note,
		CreatedAt:  e.CreatedAt,
	}
}

// Create records an income or expense and returns its id.
func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	cent, ok := amountCent(c, "amount", req.Amount)
	if !ok {
		return
	}

	// occurred_on defaults to today (UTC). A caller east of UTC may already be on
	// the next calendar day, so one day past the UTC date is still accepted.
	today := ledger.DateOnly(h.now().UTC())
	latest := today.AddDate(0, 0, 1)
	occurredOn := today
	if s := strings.TrimSpace(req.OccurredOn); s != "" {
		d, err := util.ParseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		occurredOn = d
	}
	if occurredOn.After(latest) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "occurred_on cannot be in the future")
		return
	}

	id, err := h.Ledger.RecordTransaction(c.Request.Context(), ledger.RecordInput{
		UserID:     user.ID,
		Direction:  models.Direction(strings.ToLower(strings.TrimSpace(req.Direction))),
		AmountCent: cent,
		CategoryID: req.CategoryID,
		OccurredOn: occurredOn,
		Note:       req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	util.Created(c, util.Response{"id": id})
}

// List pages through the user's entries with optional period, direction and category filters.
func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	dir := models.Direction(strings.ToLower(c.Query("direction")))
	if dir != "" && !dir.Valid() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "direction must be income or expense")
		return
	}

	page, err := h.Reports.Transactions(c.Request.Context(), user.ID, report.ListQuery{
		Filter:     f,
		Direction:  dir,
		CategoryID: uint(max(queryInt(c, "category_id", 0), 0)),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", h.PageSize),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]transactionResp, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toTransactionResp(&page.Items[i]))
	}

	util.Success(c, util.Response{
		"items":     items,
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
		"period":    f.Label(),
	})
}
