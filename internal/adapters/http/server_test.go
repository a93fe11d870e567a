package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/adapters/memory"
	"tradepost/internal/domain"
	authsvc "tradepost/internal/services/auth"
	"tradepost/internal/services/authz"
	favsvc "tradepost/internal/services/favorites"
	featsvc "tradepost/internal/services/featured"
	listsvc "tradepost/internal/services/listings"
	modsvc "tradepost/internal/services/moderation"
	ratesvc "tradepost/internal/services/ratings"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.New()
	gate := authz.New()
	caps := domain.FeaturedCaps{Global: 5, PerCompany: 3}
	srv := New(
		authsvc.New(st, st, time.Hour),
		listsvc.New(st, gate),
		modsvc.New(st, st, st, gate),
		favsvc.New(st, st, gate),
		featsvc.New(st, gate, caps),
		ratesvc.New(st, st, gate),
	)
	return &testAPI{t: t, handler: srv.Routes(), store: st}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) decode(rec *httptest.ResponseRecorder, v any) {
	a.t.Helper()
	require.NoError(a.t, json.NewDecoder(rec.Body).Decode(v))
}

// register + login, returning the bearer token and principal id.
func (a *testAPI) signup(kind, name, email string) (token, id string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/register/"+kind, "", map[string]string{
		"name": name, "email": email, "password": "longenough",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/login", "", map[string]string{
		"kind": kind, "email": email, "password": "longenough",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token     string `json:"token"`
		Principal struct {
			ID string `json:"id"`
		} `json:"principal"`
	}
	a.decode(rec, &resp)
	return resp.Token, resp.Principal.ID
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterLoginFlow(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.signup("company", "Acme", "acme@example.com")
	assert.NotEmpty(t, token)

	// Duplicate email conflicts.
	rec := a.do(http.MethodPost, "/register/company", "", map[string]string{
		"name": "Acme Again", "email": "acme@example.com", "password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/login", "", map[string]string{
		"kind": "company", "email": "acme@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerMiddleware(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.signup("company", "Acme", "acme@example.com")

	// Public endpoints work without any token.
	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// An unknown token is passed through; the endpoint itself then rejects.
	rec = a.do(http.MethodPost, "/listings", "bogus", map[string]any{"title": "x", "price": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/listings", token, map[string]any{"title": "x", "price": 1})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Logout revokes; the same token then fails resolution outright.
	rec = a.do(http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodPost, "/listings", token, map[string]any{"title": "x", "price": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListingAndModerationFlow(t *testing.T) {
	a := newTestAPI(t)
	companyToken, _ := a.signup("company", "Acme", "acme@example.com")
	userToken, _ := a.signup("individual", "Ursula", "ursula@example.com")
	adminToken, _ := a.signup("individual", "Root", "root@example.com")
	a.promote("root@example.com")

	rec := a.do(http.MethodPost, "/listings", companyToken, map[string]any{
		"title": "Gutter cleaning", "price": 99.5, "category": "home",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var listing struct {
		ID string `json:"id"`
	}
	a.decode(rec, &listing)

	rec = a.do(http.MethodPost, "/listings/"+listing.ID+"/comments", userToken, map[string]any{
		"body": "Great service", "rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	a.decode(rec, &item)
	assert.Equal(t, "pending", item.Status)

	// Pending comments are not public.
	rec = a.do(http.MethodGet, "/listings/"+listing.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comments struct {
		Comments []json.RawMessage `json:"comments"`
	}
	a.decode(rec, &comments)
	assert.Empty(t, comments.Comments)

	// The individual cannot moderate.
	rec = a.do(http.MethodPost, "/moderation/"+item.ID+"/status", userToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/moderation/"+item.ID+"/status", adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/listings/"+listing.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a.decode(rec, &comments)
	assert.Len(t, comments.Comments, 1)

	// An illegal edge maps to 409.
	rec = a.do(http.MethodPost, "/moderation/"+item.ID+"/status", adminToken, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/moderation/"+item.ID+"/reply", companyToken, map[string]string{"text": "Thanks!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var replied struct {
		Status string `json:"status"`
		Reply  struct {
			RepliedBy string `json:"replied_by"`
		} `json:"reply"`
	}
	a.decode(rec, &replied)
	assert.Equal(t, "replied", replied.Status)
	assert.Equal(t, "company", replied.Reply.RepliedBy)
}

func TestFeaturedCapOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.signup("company", "Acme", "acme@example.com")

	feature := func() *httptest.ResponseRecorder {
		rec := a.do(http.MethodPost, "/listings", token, map[string]any{"title": "x", "price": 1})
		require.Equal(t, http.StatusCreated, rec.Code)
		var l struct {
			ID string `json:"id"`
		}
		a.decode(rec, &l)
		return a.do(http.MethodPost, "/listings/"+l.ID+"/featured", token, nil)
	}

	for i := 0; i < 3; i++ {
		rec := feature()
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := feature()
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRatingEndpoint(t *testing.T) {
	a := newTestAPI(t)
	_, companyID := a.signup("company", "Acme", "acme@example.com")

	for i, value := range []int{5, 5, 4, 3, 1} {
		token, _ := a.signup("individual", "U", fmt.Sprintf("u%d@example.com", i))
		rec := a.do(http.MethodPost, "/companies/"+companyID+"/reviews", token, map[string]any{
			"order_ref": fmt.Sprintf("ord-%d", i), "value": value,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := a.do(http.MethodGet, "/principals/company/"+companyID+"/rating", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Average   string      `json:"average"`
		Breakdown map[int]int `json:"breakdown"`
	}
	a.decode(rec, &resp)
	assert.Equal(t, "3.6", resp.Average)
	assert.Equal(t, 2, resp.Breakdown[5])
}

// promote flips the admin flag directly in the store; there is no HTTP path
// that grants admin.
func (a *testAPI) promote(email string) {
	a.t.Helper()
	ctx := context.Background()
	p, err := a.store.GetPrincipalByEmail(ctx, domain.KindIndividual, email)
	require.NoError(a.t, err)
	require.NotNil(a.t, p)
	p.IsAdmin = true
	require.NoError(a.t, a.store.CreatePrincipal(ctx, p))
}
