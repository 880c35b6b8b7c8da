package emailcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

func fakeUpstream(t *testing.T, status int, body string) (*Upstream, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.NotEmpty(t, r.URL.Query().Get("email"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewUpstream(UpstreamConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second}, logging.Discard()), &calls
}

func postValidate(t *testing.T, h *ProxyHandler, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy-validate-email", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ValidateEmail(w, req)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

const deliverable = `{"deliverability":"DELIVERABLE","is_valid_format":{"value":true},"is_disposable_email":{"value":false}}`

func TestProxyHandler_Deliverable(t *testing.T) {
	upstream, calls := fakeUpstream(t, http.StatusOK, deliverable)
	w, resp := postValidate(t, NewProxyHandler(upstream, logging.Discard()), `{"email":"lead@acme.io"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Response{Success: true, IsValid: true}, resp)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestProxyHandler_Undeliverable(t *testing.T) {
	upstream, _ := fakeUpstream(t, http.StatusOK, `{"deliverability":"UNDELIVERABLE","is_valid_format":{"value":true}}`)
	w, resp := postValidate(t, NewProxyHandler(upstream, logging.Discard()), `{"email":"ghost@acme.io"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.False(t, resp.IsValid)
}

func TestProxyHandler_DisposableRejected(t *testing.T) {
	upstream, _ := fakeUpstream(t, http.StatusOK, `{"deliverability":"DELIVERABLE","is_valid_format":{"value":true},"is_disposable_email":{"value":true}}`)
	_, resp := postValidate(t, NewProxyHandler(upstream, logging.Discard()), `{"email":"temp@mailinator.com"}`)
	assert.False(t, resp.IsValid)
}

func TestProxyHandler_UpstreamRefusal(t *testing.T) {
	upstream, _ := fakeUpstream(t, http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`)
	w, resp := postValidate(t, NewProxyHandler(upstream, logging.Discard()), `{"email":"lead@acme.io"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Response{Success: false, Error: "invalid api key"}, resp)
}

func TestProxyHandler_SyntaxShortCircuit(t *testing.T) {
	upstream, calls := fakeUpstream(t, http.StatusOK, deliverable)
	h := NewProxyHandler(upstream, logging.Discard())

	for _, email := range []string{"bad@x", "not-an-email", "Name <a@b.co>"} {
		w, resp := postValidate(t, h, `{"email":`+strconvQuote(email)+`}`)
		assert.Equal(t, http.StatusOK, w.Code, email)
		assert.Equal(t, Response{Success: true, IsValid: false}, resp, email)
	}
	assert.Zero(t, atomic.LoadInt32(calls), "malformed addresses never reach the upstream")
}

func TestProxyHandler_BadRequests(t *testing.T) {
	h := NewProxyHandler(nil, logging.Discard())

	w, resp := postValidate(t, h, `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)

	w, resp = postValidate(t, h, `{"email":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrEmailRequired.Error(), resp.Error)
}

func TestProxyHandler_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	upstream := NewUpstream(UpstreamConfig{BaseURL: base, APIKey: "secret", Timeout: 200 * time.Millisecond}, logging.Discard())

	w, resp := postValidate(t, NewProxyHandler(upstream, logging.Discard()), `{"email":"lead@acme.io"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestProxyHandler_NoUpstreamAcceptsWellFormed(t *testing.T) {
	_, resp := postValidate(t, NewProxyHandler(nil, nil), `{"email":"lead@acme.io"}`)
	assert.Equal(t, Response{Success: true, IsValid: true}, resp)
}

func TestNewUpstream_RequiresKey(t *testing.T) {
	assert.Nil(t, NewUpstream(UpstreamConfig{}, nil))
}

func TestLocalCheck(t *testing.T) {
	upstream, _ := fakeUpstream(t, http.StatusOK, deliverable)
	local := NewLocal(upstream)
	ctx := context.Background()

	assert.Equal(t, VerdictValid, local.Check(ctx, "lead@acme.io").Verdict)
	assert.Equal(t, VerdictInvalid, local.Check(ctx, "bad@x").Verdict)
	assert.Equal(t, VerdictBadStatus, local.Check(ctx, "").Verdict)

	refusing, _ := fakeUpstream(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`)
	res := NewLocal(refusing).Check(ctx, "lead@acme.io")
	assert.Equal(t, VerdictRejected, res.Verdict)
	assert.Equal(t, "slow down", res.ProviderError)
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
