package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/journal/domain"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, raw string) (domain.Principal, error) {
	args := m.Called(raw)
	return args.Get(0).(domain.Principal), args.Error(1)
}

func request(header string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.SetRequestURI("http://journal.test/api/eic/validate-token/")
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestJWTAuth_MissingToken(t *testing.T) {
	auth := &mockAuthenticator{}
	called := false
	h := JWTAuth(auth, nil, nil)(func(*fasthttp.RequestCtx) { called = true })

	ctx := request("")
	h(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	auth.AssertNotCalled(t, "Authenticate", mock.Anything)
}

func TestJWTAuth_ValidTokenStoresPrincipal(t *testing.T) {
	auth := &mockAuthenticator{}
	auth.On("Authenticate", "abc").Return(domain.Principal{AccountID: 5, TokenID: "jti"}, nil).Twice()

	var got domain.Principal
	h := JWTAuth(auth, nil, nil)(func(ctx *fasthttp.RequestCtx) {
		got, _ = PrincipalFrom(ctx)
	})

	h(request("Bearer abc"))
	assert.Equal(t, int64(5), got.AccountID)

	got = domain.Principal{}
	h(request("abc"))
	assert.Equal(t, "jti", got.TokenID)
	auth.AssertExpectations(t)
}

func TestJWTAuth_RejectedToken(t *testing.T) {
	auth := &mockAuthenticator{}
	auth.On("Authenticate", "bad").Return(domain.Principal{}, domain.ErrSessionRevoked).Once()

	ctx := request("Bearer bad")
	JWTAuth(auth, nil, nil)(func(*fasthttp.RequestCtx) { t.Fatal("next must not run") })(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"code":"UNAUTHORIZED"`)
}

func TestJWTAuth_BackendFailure(t *testing.T) {
	auth := &mockAuthenticator{}
	auth.On("Authenticate", "tok").Return(domain.Principal{}, domain.WrapError(domain.ErrCodeInternal, "load session", errors.New("redis down"))).Once()

	ctx := request("Bearer tok")
	JWTAuth(auth, nil, nil)(func(*fasthttp.RequestCtx) {})(ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.NotContains(t, string(ctx.Response.Body()), "redis down")
}

func TestPrincipalFrom_Missing(t *testing.T) {
	_, ok := PrincipalFrom(request(""))
	assert.False(t, ok)
}
