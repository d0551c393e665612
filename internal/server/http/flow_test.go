package http

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
	"github.com/dmitrijs2005/shopauth/internal/server/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlowHandler(t *testing.T) (http.Handler, *bytes.Buffer) {
	t.Helper()

	registry := verification.NewMemoryRegistry(verification.WithGenerator(func() (string, error) {
		return "482913", nil
	}))
	t.Cleanup(func() { _ = registry.Close() })

	composer, err := mailer.NewComposer("Shop", 10*time.Minute)
	require.NoError(t, err)

	outbox := &bytes.Buffer{}
	cfg := &config.Config{}
	cfg.LoadDefaults()

	svc := services.NewCredentialService(services.Dependencies{
		Repos:    repomanager.NewMemoryRepositoryManager(),
		Registry: registry,
		Mailer:   mailer.NewConsoleMailer(outbox, logging.Discard()),
		Composer: composer,
		Logger:   logging.Discard(),
	}, cfg)

	return NewServer(":0", logging.Discard(), svc, false, cfg.SessionTokenValidityDuration).Routes(), outbox
}

func TestFlow_SignupLoginMe(t *testing.T) {
	h, outbox := newFlowHandler(t)

	rec := do(t, h, http.MethodPost, "/api/auth/signup/send-code", `{"email":"u@test.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, outbox.String(), "482913")

	rec = do(t, h, http.MethodPost, "/api/auth/signup/verify",
		`{"name":"U","email":"u@test.com","password":"Abcd123!","mobile":"9999999999","code":"482913"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"email":"u@test.com","password":"Abcd123!","role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"email":"u@test.com","password":"Abcd123!","role":"user"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = do(t, h, http.MethodGet, "/api/auth/me", "", cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "u@test.com", user["email"])
	assert.Equal(t, "9999999999", user["mobile"])

	rec = do(t, h, http.MethodPost, "/api/auth/signup/verify",
		`{"email":"u@test.com","password":"Abcd123!","code":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists", decodeBody(t, rec)["error"])
}

func TestFlow_ResetSendCodeIsIdentical(t *testing.T) {
	h, outbox := newFlowHandler(t)

	do(t, h, http.MethodPost, "/api/auth/signup/send-code", `{"email":"real@test.com"}`)
	rec := do(t, h, http.MethodPost, "/api/auth/signup/verify", `{"email":"real@test.com","password":"Abcd123!","code":"482913"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	outbox.Reset()

	for _, prefix := range []string{"/api/auth/forgot-password", "/api/auth/admin-forgot-password"} {
		known := do(t, h, http.MethodPost, prefix+"/send-code", `{"email":"real@test.com"}`)
		ghost := do(t, h, http.MethodPost, prefix+"/send-code", `{"email":"ghost@test.com"}`)

		assert.Equal(t, known.Code, ghost.Code, prefix)
		assert.Equal(t, known.Body.Bytes(), ghost.Body.Bytes(), prefix)
		assert.Equal(t, known.Header(), ghost.Header(), prefix)
	}
	assert.NotContains(t, outbox.String(), "ghost@test.com")
}

func TestFlow_ResetThenLogin(t *testing.T) {
	h, _ := newFlowHandler(t)

	do(t, h, http.MethodPost, "/api/auth/signup/send-code", `{"email":"u@test.com"}`)
	do(t, h, http.MethodPost, "/api/auth/signup/verify", `{"email":"u@test.com","password":"Abcd123!","code":"482913"}`)

	rec := do(t, h, http.MethodPost, "/api/auth/forgot-password/send-code", `{"email":"u@test.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/forgot-password/verify", `{"email":"u@test.com","code":"482913"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/forgot-password/verify", `{"email":"u@test.com","code":"482913","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/forgot-password/verify", `{"email":"u@test.com","code":"482913","password":"Newpass1!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"email":"u@test.com","password":"Newpass1!"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFlow_ResetSendCodeEmptyEmailIsGeneric(t *testing.T) {
	h, outbox := newFlowHandler(t)

	known := do(t, h, http.MethodPost, "/api/auth/forgot-password/send-code", `{"email":"ghost@test.com"}`)
	empty := do(t, h, http.MethodPost, "/api/auth/forgot-password/send-code", `{"email":""}`)

	assert.Equal(t, http.StatusOK, empty.Code)
	assert.Equal(t, known.Body.Bytes(), empty.Body.Bytes())
	assert.Empty(t, outbox.String())
}

func TestFlow_OverlongPasswordIsBadRequest(t *testing.T) {
	h, _ := newFlowHandler(t)

	do(t, h, http.MethodPost, "/api/auth/signup/send-code", `{"email":"u@test.com"}`)

	long := "Abcd123!" + strings.Repeat("x", 65)
	rec := do(t, h, http.MethodPost, "/api/auth/signup/verify",
		`{"email":"u@test.com","password":"`+long+`","code":"482913"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "at most 72 bytes")

	// the code survived the rejected attempt
	rec = do(t, h, http.MethodPost, "/api/auth/signup/verify",
		`{"email":"u@test.com","password":"Abcd123!","code":"482913"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFlow_UnknownLoginRoleMeansUser(t *testing.T) {
	h, _ := newFlowHandler(t)

	do(t, h, http.MethodPost, "/api/auth/signup/send-code", `{"email":"u@test.com"}`)
	do(t, h, http.MethodPost, "/api/auth/signup/verify", `{"email":"u@test.com","password":"Abcd123!","code":"482913"}`)

	rec := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"u@test.com","password":"Abcd123!","role":"root"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFlow_InvalidSessionCookie(t *testing.T) {
	h, _ := newFlowHandler(t)
	rec := do(t, h, http.MethodGet, "/api/auth/me", "", &http.Cookie{Name: common.SessionCookieName, Value: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(listen.Addr().String(), logging.Discard(), &stubCredentials{}, false, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, listen) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listen.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewServer("127.0.0.1:99999", logging.Discard(), &stubCredentials{}, false, time.Hour)
	assert.Error(t, s.Run(context.Background()))
}
