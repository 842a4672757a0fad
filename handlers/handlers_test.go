package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/auth"
	"github.com/satheeshds/invoicehub/billing"
	"github.com/satheeshds/invoicehub/clock"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/memstore"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "sweep-key"

type envelope[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error"`
}

type api struct {
	t   *testing.T
	srv http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	clk := clock.NewFixed(time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledger.NewService(memstore.New(), clk, logger)
	h := New(svc, auth.NewIssuer("test-secret", "invoicehub", time.Hour, clk), testAPIKey, logger)
	return &api{t: t, srv: h.Router()}
}

func (a *api) do(method, path, token string, body any, header http.Header) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func (a *api) register(username string) models.User {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/users", "", models.UserInput{
		Name: username, Lastname: "Tester", Email: username + "@example.com",
		Username: username, Password: "password123",
	}, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.User](a.t, rec)
}

func (a *api) login(username, password string) *httptest.ResponseRecorder {
	a.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func (a *api) token(username string) string {
	a.t.Helper()
	rec := a.login(username, "password123")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[tokenData](a.t, rec).AccessToken
}

func (a *api) creditor(token string, in models.CreditorInput) models.Creditor {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/creditors", token, in, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Creditor](a.t, rec)
}

func (a *api) purchase(token string, in models.PurchaseInput) models.PurchaseView {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/purchases", token, in, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.PurchaseView](a.t, rec)
}

func installments(n int) *int { return &n }

func TestLogin(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")

	rec := a.login("alice", "password123")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode[tokenData](t, rec)
	assert.Equal(t, "bearer", data.TokenType)
	assert.Equal(t, alice.ID, data.User.ID)
	assert.NotEmpty(t, data.AccessToken)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.login("alice", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect username or password", errorOf(t, rec))

	rec = a.login("nobody", "password123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.login("", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequiresBearerToken(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/purchases", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/purchases", "not-a-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsersEndpoints(t *testing.T) {
	a := newAPI(t)
	alice := a.register("alice")
	a.register("alfred")
	a.register("bob")
	token := a.token("alice")

	rec := a.do(http.MethodPost, "/users", "", models.UserInput{
		Name: "A", Lastname: "B", Email: "other@example.com", Username: "alice", Password: "password123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already exists", errorOf(t, rec))

	rec = a.do(http.MethodGet, "/users/me", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, decode[models.User](t, rec).ID)

	rec = a.do(http.MethodGet, "/users", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 2)

	rec = a.do(http.MethodGet, "/users/search?search=al", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]models.User](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "alfred", found[0].Username)

	rec = a.do(http.MethodGet, "/users/search?search=a", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreditorEndpoints(t *testing.T) {
	a := newAPI(t)
	a.register("alice")
	token := a.token("alice")

	bank := a.creditor(token, models.CreditorInput{Type: models.CreditorBank, Name: "Nubank", DueDay: 15})
	a.creditor(token, models.CreditorInput{Type: models.CreditorPaymentSlip, Name: "Energy", DueDay: 5})

	rec := a.do(http.MethodPost, "/creditors", token, models.CreditorInput{Type: models.CreditorBank, Name: "Bad", DueDay: 32}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/creditors?page=0&size=1", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.Page[models.Creditor]](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Energy", page.Items[0].Name)

	rec = a.do(http.MethodGet, "/creditors?page=x", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	name := "Nubank Gold"
	rec = a.do(http.MethodPatch, "/creditors/"+bank.ID.String(), token, models.CreditorUpdate{Name: &name}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, name, decode[models.Creditor](t, rec).Name)

	rec = a.do(http.MethodDelete, "/creditors/"+bank.ID.String(), token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodDelete, "/creditors/"+bank.ID.String(), token, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodGet, "/creditors/list", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.CreditorBasic](t, rec), 1)

	rec = a.do(http.MethodDelete, "/creditors/not-a-uuid", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodDelete, "/creditors/"+uuid.NewString(), token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchaseLifecycle(t *testing.T) {
	a := newAPI(t)
	a.register("alice")
	bob := a.register("bob")
	alice := a.token("alice")
	bobToken := a.token("bob")

	bank := a.creditor(alice, models.CreditorInput{Type: models.CreditorBank, Name: "Nubank", DueDay: 15})
	friend := a.creditor(alice, models.CreditorInput{Type: models.CreditorUser, Name: "Bob", DueDay: 10, UserAsCreditorID: &bob.ID})

	p := a.purchase(alice, models.PurchaseInput{
		CreditorID:   &bank.ID,
		PurchaseDate: "2024-01-10",
		Title:        "Notebook",
		Value:        decimal.NewFromInt(300),
		PaymentType:  models.PaymentInstallment,
		Installments: installments(3),
	})
	require.NotNil(t, p.InstallmentValue)
	assert.True(t, decimal.NewFromInt(100).Equal(*p.InstallmentValue))
	assert.Equal(t, 1, p.InstallmentsPaid)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), p.LastPaymentDate)
	assert.Equal(t, models.StatusPending, p.PaidStatus)

	rec := a.do(http.MethodGet, "/purchases/"+p.ID.String()+"/schedule", alice, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sched := decode[billing.Schedule](t, rec)
	require.Len(t, sched.Periods, 3)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), sched.Periods[0].DueDate)

	rec = a.do(http.MethodGet, "/purchases/"+p.ID.String()+"/schedule?horizon=2024", alice, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Split with another user is mirrored into their ledger.
	rec = a.do(http.MethodPost, "/purchases/"+p.ID.String()+"/splits", alice,
		models.SplitInput{CreditorID: friend.ID, Value: decimal.NewFromInt(100)}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/purchases/"+p.ID.String()+"/splits", alice,
		models.SplitInput{CreditorID: friend.ID, Value: decimal.NewFromInt(10)}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/purchases", bobToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mirrored := decode[models.Page[models.PurchaseView]](t, rec)
	require.Equal(t, 1, mirrored.Total)
	assert.True(t, decimal.NewFromInt(100).Equal(mirrored.Items[0].Value))

	rec = a.do(http.MethodGet, "/purchases/"+p.ID.String(), alice, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[models.PurchaseView](t, rec)
	require.Len(t, view.ExternalPayments, 1)
	assert.Equal(t, "Bob", view.ExternalPayments[0].Creditor.Name)

	// Replacing the splits with an empty set removes them.
	rec = a.do(http.MethodPut, "/purchases/"+p.ID.String()+"/splits", alice, []models.SplitInput{}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[models.PurchaseView](t, rec).ExternalPayments)

	title := "Laptop"
	rec = a.do(http.MethodPatch, "/purchases/"+p.ID.String(), alice, models.PurchaseUpdate{Title: &title}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, title, decode[models.PurchaseView](t, rec).Title)

	rec = a.do(http.MethodPatch, "/purchases/"+p.ID.String(), bobToken, models.PurchaseUpdate{Title: &title}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/purchases/"+uuid.NewString(), alice, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPatch, "/purchases/mark_as_paid", alice, models.PaidInput{IDs: []uuid.UUID{p.ID}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodGet, "/purchases/"+p.ID.String(), alice, nil, nil)
	assert.Equal(t, models.StatusPaid, decode[models.PurchaseView](t, rec).PaidStatus)

	rec = a.do(http.MethodDelete, "/purchases/"+p.ID.String(), alice, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, "/purchases/"+p.ID.String(), alice, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreatePurchaseRejectsOversizedSplits(t *testing.T) {
	a := newAPI(t)
	a.register("alice")
	token := a.token("alice")
	bank := a.creditor(token, models.CreditorInput{Type: models.CreditorBank, Name: "Nubank", DueDay: 15})
	store := a.creditor(token, models.CreditorInput{Type: models.CreditorPublicPerson, Name: "Carol", DueDay: 5})

	rec := a.do(http.MethodPost, "/purchases", token, models.PurchaseInput{
		CreditorID:   &bank.ID,
		PurchaseDate: "2024-01-10",
		Title:        "Dinner",
		Value:        decimal.NewFromInt(100),
		PaymentType:  models.PaymentCash,
		ExternalPayments: []models.SplitInput{
			{CreditorID: store.ID, Value: decimal.NewFromInt(150)},
		},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/purchases", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[models.Page[models.PurchaseView]](t, rec).Total)
}

func TestSweepEndpoint(t *testing.T) {
	a := newAPI(t)
	a.register("alice")
	token := a.token("alice")
	bank := a.creditor(token, models.CreditorInput{Type: models.CreditorBank, Name: "Nubank", DueDay: 15})

	late := a.purchase(token, models.PurchaseInput{
		CreditorID: &bank.ID, PurchaseDate: "2024-01-10", Title: "Groceries",
		Value: decimal.NewFromInt(80), PaymentType: models.PaymentCash,
	})
	a.purchase(token, models.PurchaseInput{
		CreditorID: &bank.ID, PurchaseDate: "2024-03-01", Title: "Shoes",
		Value: decimal.NewFromInt(120), PaymentType: models.PaymentCash,
	})

	rec := a.do(http.MethodPatch, "/purchases/mark_all_as_paid", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPatch, "/purchases/mark_all_as_paid", "", nil, http.Header{"X-Key": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	key := http.Header{"X-Key": {testAPIKey}}
	rec = a.do(http.MethodPatch, "/purchases/mark_all_as_paid", "", nil, key)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	swept := decode[[]ledger.Overdue](t, rec)
	require.Len(t, swept, 1)
	assert.Equal(t, late.ID, swept[0].ID)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), swept[0].DueDate)

	rec = a.do(http.MethodPatch, "/purchases/mark_all_as_paid", "", nil, key)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]ledger.Overdue](t, rec))
}

func TestRequireAPIKeyWithoutKey(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	clk := clock.NewFixed(time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC))
	h := New(ledger.NewService(memstore.New(), clk, logger), auth.NewIssuer("test-secret", "invoicehub", time.Hour, clk), "", logger)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without an api key")
	})
	guarded := h.RequireAPIKey(next)
	assert.Contains(t, logs.String(), "API_KEY not set")
	assert.Contains(t, logs.String(), "component=http")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/purchases/mark_all_as_paid", nil)
	req.Header.Set("X-KEY", "")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	a := newAPI(t)
	a.register("alice")
	token := a.token("alice")
	shop := a.creditor(token, models.CreditorInput{Type: models.CreditorPaymentSlip, Name: "Store", DueDay: 21})
	a.purchase(token, models.PurchaseInput{
		CreditorID: &shop.ID, PurchaseDate: "2024-02-10", Title: "Groceries",
		Value: decimal.NewFromInt(40), PaymentType: models.PaymentCash,
	})

	rec := a.do(http.MethodGet, "/analytics/invoices_by_payment_type", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byType := decode[[]billing.PaymentTypeTotal](t, rec)
	require.Len(t, byType, 1)
	assert.Equal(t, models.PaymentCash, byType[0].PaymentType)
	assert.True(t, decimal.NewFromInt(40).Equal(byType[0].Amount))

	// Due on Thursday 2024-03-21.
	rec = a.do(http.MethodGet, "/analytics/invoices_by_week", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byWeek := decode[[]billing.DayTotal](t, rec)
	require.Len(t, byWeek, 1)
	assert.Equal(t, 5, byWeek[0].DayOfWeek)
	assert.True(t, decimal.NewFromInt(40).Equal(byWeek[0].Amount))

	rec = a.do(http.MethodGet, "/analytics/invoices_by_week?date=2024-06-01", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]billing.DayTotal](t, rec))

	for _, path := range []string{"/analytics/invoices_by_creditor", "/analytics/invoices_by_month"} {
		rec = a.do(http.MethodGet, path, token, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = a.do(http.MethodGet, "/analytics/invoices_by_month?date=March", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
