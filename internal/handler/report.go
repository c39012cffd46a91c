package handler

import (
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/report"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard and analysis views.
type ReportHandler struct {
	Reports *report.Service
}

func NewReportHandler(r *report.Service) *ReportHandler {
	return &ReportHandler{Reports: r}
}

func summaryResp(s report.Summary) gin.H {
	return gin.H{
		"period":          s.Period,
		"total_income":    money.Format(s.IncomeCent),
		"total_expense":   money.Format(s.ExpenseCent),
		"net":             money.Format(s.NetCent),
		"current_balance": money.Format(s.BalanceCent),
	}
}

func (h *ReportHandler) Summary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	s, err := h.Reports.Summary(c.Request.Context(), user.ID, f)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Success(c, util.Response(summaryResp(s)))
}

func (h *ReportHandler) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.Reports.History(c.Request.Context(), user.ID, f)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]transactionResp, 0, len(entries))
	for i := range entries {
		items = append(items, toTransactionResp(&entries[i]))
	}
	util.Success(c, util.Response{"items": items})
}

func (h *ReportHandler) Historical(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	points, err := h.Reports.Historical(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	months := make([]gin.H, 0, len(points))
	for _, p := range points {
		months = append(months, gin.H{
			"month":   p.Month,
			"label":   p.Label,
			"income":  money.Format(p.IncomeCent),
			"expense": money.Format(p.ExpenseCent),
		})
	}
	util.Success(c, util.Response{"months": months})
}

func (h *ReportHandler) Analysis(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	a, err := h.Reports.Analysis(c.Request.Context(), user.ID, f)
	if err != nil {
		respondError(c, err)
		return
	}

	var top, rec gin.H
	if a.TopExpense != nil {
		top = gin.H{
			"name":       a.TopExpense.Name,
			"amount":     money.Format(a.TopExpense.AmountCent),
			"percentage": a.TopExpense.Percentage.StringFixed(2),
		}
	}
	if a.Recommendation != nil {
		rec = methodResp(a.Recommendation)
	}

	util.Success(c, util.Response{
		"summary":        summaryResp(a.Summary),
		"top_expense":    top,
		"recommendation": rec,
	})
}

func methodResp(m *models.Method) gin.H {
	return gin.H{
		"id":          m.ID,
		"name":        m.Name,
		"description": m.Description,
	}
}
