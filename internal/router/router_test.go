package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

type APISuite struct {
	suite.Suite
	db  *gorm.DB
	cfg *config.Config
	r   *gin.Engine
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.cfg = &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode, CORSOrigins: []string{"http://localhost:5173"}},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "fintrack", ExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: 4, MaxFailedLogins: 3, LockMinutes: 10},
		App:      config.AppSubConfig{PageSize: 20, HistoryLimit: 6, HistoricalMonths: 6},
	}
	s.r = SetupRouter(s.cfg, s.db, nil)
}

func (s *APISuite) do(method, path string, body any, token string) (int, envelope) {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// signup registers and logs in a user, returning the bearer token.
func (s *APISuite) signup(name string) string {
	code, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": name, "email": name + "@example.com", "password": "Password1",
	}, "")
	s.Require().Equal(http.StatusCreated, code, env.Message)

	code, env = s.do(http.MethodPost, "/api/auth/login", gin.H{
		"email": name + "@example.com", "password": "Password1",
	}, "")
	s.Require().Equal(http.StatusOK, code, env.Message)
	tok, _ := env.Data["token"].(string)
	s.Require().NotEmpty(tok)
	return tok
}

func (s *APISuite) categoryID(name string) uint {
	return testutil.CategoryID(s.T(), s.db, name)
}

func (s *APISuite) income(tok string, amount string) {
	code, env := s.do(http.MethodPost, "/api/transactions", gin.H{
		"direction": "income", "amount": amount, "category_id": s.categoryID("Salary"),
	}, tok)
	s.Require().Equal(http.StatusCreated, code, env.Message)
}

func (s *APISuite) TestHealthz() {
	code, _ := s.do(http.MethodGet, "/healthz", nil, "")
	s.Equal(http.StatusOK, code)
}

func (s *APISuite) TestRegisterValidation() {
	code, _ := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "frank", "email": "frank@example.com", "password": "weak",
	}, "")
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "x", "email": "frank@example.com", "password": "Password1",
	}, "")
	s.Equal(http.StatusBadRequest, code)

	s.signup("frank")
	code, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "FRANK", "email": "other@example.com", "password": "Password1",
	}, "")
	s.Equal(http.StatusConflict, code)
	s.Equal(util.CodeConflict, env.Code)

	code, _ = s.do(http.MethodPost, "/api/auth/register", gin.H{"username": "gina"}, "")
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestRegisterAllowedDomain() {
	s.cfg.Security.AllowedEmailDomain = "gmail.com"
	s.r = SetupRouter(s.cfg, s.db, nil)

	code, _ := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "hank", "email": "hank@example.com", "password": "Password1",
	}, "")
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "hank", "email": "hank@gmail.com", "password": "Password1",
	}, "")
	s.Equal(http.StatusCreated, code)
}

func (s *APISuite) TestLoginLockout() {
	s.signup("ivan")

	for i := 0; i < 3; i++ {
		code, env := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ivan@example.com", "password": "Wrong1234"}, "")
		s.Equal(http.StatusUnauthorized, code)
		s.Equal(util.CodeAuth, env.Code)
	}

	code, env := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ivan@example.com", "password": "Password1"}, "")
	s.Equal(http.StatusUnauthorized, code)
	s.Contains(env.Message, "locked")

	var u models.User
	s.Require().NoError(s.db.Where("username = ?", "ivan").First(&u).Error)
	s.Require().NotNil(u.LockedUntil)
	s.True(u.LockedUntil.After(time.Now()))
}

func (s *APISuite) TestRequiresToken() {
	code, env := s.do(http.MethodPost, "/api/transactions", gin.H{"direction": "income", "amount": "1"}, "")
	s.Equal(http.StatusUnauthorized, code)
	s.Equal(util.CodeAuth, env.Code)

	code, _ = s.do(http.MethodGet, "/api/reports/summary", nil, "bogus")
	s.Equal(http.StatusUnauthorized, code)
}

func (s *APISuite) TestVacationFlow() {
	tok := s.signup("judy")
	s.income(tok, "1000000")

	code, env := s.do(http.MethodPost, "/api/targets", gin.H{
		"name": "Vacation", "target_amount": 500000, "due_date": "2026-12-31",
	}, tok)
	s.Require().Equal(http.StatusCreated, code, env.Message)
	target := env.Data["target"].(map[string]any)
	goalID := uint(target["id"].(float64))
	s.Equal("active", target["status"])
	s.Equal("2026-12-31", target["due_date"])

	code, env = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID, "amount": "300000"}, tok)
	s.Require().Equal(http.StatusOK, code, env.Message)
	s.Equal("300000.00", env.Data["new_accumulated"])
	s.Equal("active", env.Data["goal_status"])
	s.NotZero(env.Data["entry_id"])

	code, env = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID, "amount": 200000}, tok)
	s.Require().Equal(http.StatusOK, code, env.Message)
	s.Equal("500000.00", env.Data["new_accumulated"])
	s.Equal("achieved", env.Data["goal_status"])

	code, env = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID, "amount": 1}, tok)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(util.CodeInvalidParam, env.Code)

	code, env = s.do(http.MethodGet, "/api/reports/summary", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("500000.00", env.Data["current_balance"])
	s.Equal("1000000.00", env.Data["total_income"])
	s.Equal("500000.00", env.Data["total_expense"])

	code, env = s.do(http.MethodGet, "/api/targets", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Len(env.Data["targets"], 1)

	code, env = s.do(http.MethodGet, "/api/reports/history", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	items := env.Data["items"].([]any)
	s.Require().Len(items, 3)
	latest := items[0].(map[string]any)
	s.Equal("Savings", latest["category"])
	s.Equal("Contribution: Vacation", latest["note"])
}

func (s *APISuite) TestContributeErrors() {
	tok := s.signup("kate")
	s.income(tok, "100")

	code, env := s.do(http.MethodPost, "/api/targets", gin.H{"name": "Bike", "target_amount": "5000"}, tok)
	s.Require().Equal(http.StatusCreated, code, env.Message)
	goalID := uint(env.Data["target"].(map[string]any)["id"].(float64))

	code, env = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID, "amount": "100.01"}, tok)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(util.CodeInsufficientFunds, env.Code)

	code, env = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": 9999, "amount": "1"}, tok)
	s.Equal(http.StatusNotFound, code)
	s.Equal(util.CodeNotFound, env.Code)

	code, _ = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID, "amount": "-5"}, tok)
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID}, tok)
	s.Equal(http.StatusBadRequest, code)

	other := s.signup("leo")
	code, _ = s.do(http.MethodPost, "/api/targets/contribute", gin.H{"goal_id": goalID, "amount": "1"}, other)
	s.Equal(http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/api/targets", gin.H{"name": "", "target_amount": "10"}, tok)
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestCreateTransactionValidation() {
	tok := s.signup("mia")
	food := s.categoryID("Food")
	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")

	cases := map[string]gin.H{
		"zero amount":      {"direction": "expense", "amount": "0", "category_id": food},
		"too precise":      {"direction": "expense", "amount": "1.001", "category_id": food},
		"missing amount":   {"direction": "expense", "category_id": food},
		"bad direction":    {"direction": "gift", "amount": "5", "category_id": food},
		"unknown category": {"direction": "expense", "amount": "5", "category_id": 4242},
		"bad date":         {"direction": "expense", "amount": "5", "category_id": food, "occurred_on": "yesterday"},
		"future date":      {"direction": "expense", "amount": "5", "category_id": food, "occurred_on": future},
	}
	for name, body := range cases {
		s.Run(name, func() {
			code, env := s.do(http.MethodPost, "/api/transactions", body, tok)
			s.Equal(http.StatusBadRequest, code)
			s.Equal(util.CodeInvalidParam, env.Code)
		})
	}

	var n int64
	s.Require().NoError(s.db.Model(&models.Transaction{}).Count(&n).Error)
	s.Zero(n)

	code, env := s.do(http.MethodPost, "/api/transactions", gin.H{
		"direction": "expense", "amount": 12.5, "category_id": food, "occurred_on": "2025-01-31", "note": "lunch",
	}, tok)
	s.Require().Equal(http.StatusCreated, code, env.Message)
	s.NotZero(env.Data["id"])

	code, env = s.do(http.MethodGet, "/api/reports/summary", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("-12.50", env.Data["current_balance"])
}

func (s *APISuite) TestListTransactions() {
	tok := s.signup("nora")
	food := s.categoryID("Food")
	for d := 1; d <= 3; d++ {
		code, env := s.do(http.MethodPost, "/api/transactions", gin.H{
			"direction": "expense", "amount": d, "category_id": food, "occurred_on": fmt.Sprintf("2025-02-0%d", d),
		}, tok)
		s.Require().Equal(http.StatusCreated, code, env.Message)
	}
	s.income(tok, "50")

	code, env := s.do(http.MethodGet, "/api/transactions?direction=expense&page=1&page_size=2", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(float64(3), env.Data["total"])
	items := env.Data["items"].([]any)
	s.Require().Len(items, 2)
	s.Equal("2025-02-03", items[0].(map[string]any)["occurred_on"])

	code, env = s.do(http.MethodGet, "/api/transactions?month=2025-02", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(float64(3), env.Data["total"])
	s.Equal("2025-02", env.Data["period"])

	code, _ = s.do(http.MethodGet, "/api/transactions?month=2025-2x", nil, tok)
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/transactions?direction=sideways", nil, tok)
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestReports() {
	tok := s.signup("owen")
	food := s.categoryID("Food")
	bills := s.categoryID("Bills")
	post := func(dir string, amount string, cat uint, on string) {
		code, env := s.do(http.MethodPost, "/api/transactions", gin.H{
			"direction": dir, "amount": amount, "category_id": cat, "occurred_on": on,
		}, tok)
		s.Require().Equal(http.StatusCreated, code, env.Message)
	}
	post("income", "1000", s.categoryID("Salary"), "2025-04-01")
	post("expense", "300", food, "2025-04-02")
	post("expense", "100", bills, "2025-04-03")
	post("expense", "50", bills, "2025-03-03")

	code, env := s.do(http.MethodGet, "/api/reports/analysis?month=2025-04", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	top := env.Data["top_expense"].(map[string]any)
	s.Equal("Food", top["name"])
	s.Equal("75.00", top["percentage"])
	rec := env.Data["recommendation"].(map[string]any)
	s.Equal(models.PayYourselfFirst, rec["name"])
	summary := env.Data["summary"].(map[string]any)
	s.Equal("600.00", summary["net"])
	s.Equal("2025-04", summary["period"])

	code, env = s.do(http.MethodGet, "/api/reports/analysis?month=2025-03", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Nil(env.Data["recommendation"])

	code, env = s.do(http.MethodGet, "/api/reports/historical", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	months := env.Data["months"].([]any)
	s.Require().Len(months, 2)
	s.Equal("Mar", months[0].(map[string]any)["label"])
	s.Equal("400.00", months[1].(map[string]any)["expense"])

	code, env = s.do(http.MethodGet, "/api/reports/summary?start_date=2025-04-02&end_date=2025-04-03", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("400.00", env.Data["total_expense"])
	s.Equal("0.00", env.Data["total_income"])

	code, _ = s.do(http.MethodGet, "/api/reports/summary?year=abc", nil, tok)
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestUtilities() {
	tok := s.signup("pam")

	code, env := s.do(http.MethodGet, "/api/utilities/categories", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Len(env.Data["categories"], len(models.DefaultCategories))

	code, env = s.do(http.MethodGet, "/api/utilities/methods", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	methods := env.Data["methods"].([]any)
	s.Require().Len(methods, len(models.DefaultMethods))
	s.Equal(models.PayYourselfFirst, methods[0].(map[string]any)["name"])
}

func (s *APISuite) TestProfileAndPassword() {
	tok := s.signup("quinn")
	s.signup("rita")

	code, env := s.do(http.MethodPut, "/api/users/profile", gin.H{"username": "rita"}, tok)
	s.Equal(http.StatusConflict, code)
	s.Equal(util.CodeConflict, env.Code)

	code, _ = s.do(http.MethodPut, "/api/users/profile", gin.H{}, tok)
	s.Equal(http.StatusBadRequest, code)

	code, env = s.do(http.MethodPut, "/api/users/profile", gin.H{"username": "quinn_2", "email": "Q2@example.com"}, tok)
	s.Require().Equal(http.StatusOK, code, env.Message)
	user := env.Data["user"].(map[string]any)
	s.Equal("quinn_2", user["username"])
	s.Equal("q2@example.com", user["email"])

	code, env = s.do(http.MethodGet, "/api/me", nil, tok)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("quinn_2", env.Data["user"].(map[string]any)["username"])

	code, _ = s.do(http.MethodPut, "/api/users/password", gin.H{"current_password": "nope", "new_password": "NewPassword2"}, tok)
	s.Equal(http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPut, "/api/users/password", gin.H{"current_password": "Password1", "new_password": "short"}, tok)
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPut, "/api/users/password", gin.H{"current_password": "Password1", "new_password": "NewPassword2"}, tok)
	s.Require().Equal(http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "q2@example.com", "password": "NewPassword2"}, "")
	s.Equal(http.StatusOK, code)
}

func (s *APISuite) TestExport() {
	tok := s.signup("sam")
	s.income(tok, "42.10")

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?token="+tok, nil)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/csv")
	s.Contains(w.Header().Get("Content-Disposition"), "transactions_")
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(w.Body.String(), "\xEF\xBB\xBF")), "\n")
	s.Require().Len(lines, 2)
	s.Equal("Date,Direction,Category,Amount,Note", lines[0])
	s.Contains(lines[1], ",income,Salary,42.10,")

	req = httptest.NewRequest(http.MethodGet, "/api/export/xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func (s *APISuite) loginFrom(forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"nobody@example.com","password":"Wrong1234"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w.Code
}

func (s *APISuite) TestAuthRateLimit_IgnoresForwardedForFromUntrustedPeer() {
	s.cfg.Security.AuthRatePerMinute = 2
	s.r = SetupRouter(s.cfg, s.db, nil)

	limited := 0
	for i := 0; i < 10; i++ {
		if s.loginFrom(fmt.Sprintf("203.0.113.%d", i+1)) == http.StatusTooManyRequests {
			limited++
		}
	}
	s.Equal(8, limited, "rotating X-Forwarded-For must not open new windows")
}

func (s *APISuite) TestAuthRateLimit_TrustedProxyForwardsClientIP() {
	s.cfg.Security.AuthRatePerMinute = 2
	// httptest requests come from 192.0.2.1
	s.cfg.Server.TrustedProxies = []string{"192.0.2.0/24"}
	s.r = SetupRouter(s.cfg, s.db, nil)

	for i := 0; i < 5; i++ {
		s.NotEqual(http.StatusTooManyRequests, s.loginFrom(fmt.Sprintf("203.0.113.%d", i+1)))
	}

	s.Equal(http.StatusUnauthorized, s.loginFrom("198.51.100.7"))
	s.Equal(http.StatusUnauthorized, s.loginFrom("198.51.100.7"))
	s.Equal(http.StatusTooManyRequests, s.loginFrom("198.51.100.7"))
}
