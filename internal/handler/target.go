package handler

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TargetHandler serves savings goals and contributions.
type TargetHandler struct {
	Ledger *ledger.Service
}

func NewTargetHandler(l *ledger.Service) *TargetHandler {
	return &TargetHandler{Ledger: l}
}

type targetResp struct {
	ID              uint                `json:"id"`
	Name            string              `json:"name"`
	TargetCent      int64               `json:"target_cent"`
	TargetAmount    string              `json:"target_amount"`
	AccumulatedCent int64               `json:"accumulated_cent"`
	Accumulated     string              `json:"accumulated"`
	DueDate         *string             `json:"due_date"`
	Status          models.TargetStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toTargetResp(t *models.Target) targetResp {
	r := targetResp{
		ID:              t.ID,
		Name:            t.Name,
		TargetCent:      t.TargetCent,
		TargetAmount:    money.Format(t.TargetCent),
		AccumulatedCent: t.AccumulatedCent,
		Accumulated:     money.Format(t.AccumulatedCent),
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.UTC().Format("2006-01-02")
		r.DueDate = &d
	}
	return r
}

// List returns all goals of the user, newest first.
func (h *TargetHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	goals, err := h.Ledger.Goals(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]targetResp, 0, len(goals))
	for i := range goals {
		items = append(items, toTargetResp(&goals[i]))
	}
	util.Success(c, util.Response{"targets": items})
}

type createTargetReq struct {
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	DueDate      string           `json:"due_date"`
}

// Create adds an active goal.
func (h *TargetHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createTargetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	cent, ok := amountCent(c, "target_amount", req.TargetAmount)
	if !ok {
		return
	}

	var due *time.Time
	if s := strings.TrimSpace(req.DueDate); s != "" {
		d, err := util.ParseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		due = &d
	}

	goal, err := h.Ledger.CreateGoal(c.Request.Context(), ledger.GoalInput{
		UserID:     user.ID,
		Name:       req.Name,
		TargetCent: cent,
		DueDate:    due,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	util.Created(c, util.Response{"target": toTargetResp(&goal)})
}

type contributeReq struct {
	GoalID uint             `json:"goal_id"`
	Amount *decimal.Decimal `json:"amount"`
}

// Contribute moves money from the balance into a goal.
func (h *TargetHandler) Contribute(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req contributeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	cent, ok := amountCent(c, "amount", req.Amount)
	if !ok {
		return
	}

	res, err := h.Ledger.Contribute(c.Request.Context(), user.ID, req.GoalID, cent)
	if err != nil {
		respondError(c, err)
		return
	}

	util.Success(c, util.Response{
		"entry_id":             res.EntryID,
		"new_accumulated":      money.Format(res.NewAccumulatedCent),
		"new_accumulated_cent": res.NewAccumulatedCent,
		"goal_status":          res.GoalStatus,
		"balance":              money.Format(res.BalanceCent),
	})
}
