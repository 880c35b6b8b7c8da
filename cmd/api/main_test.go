package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/acesoft/ace-crm-site/internal/config"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Env:                "test",
		EmailProvider:      "stub",
		NotifierProvider:   "stub",
		DefaultLocale:      "en",
		DefaultPhoneRegion: "IN",
		ConfirmationPath:   "/thank-you",
		SessionCookie:      "ace_session",
		SessionMarkerTTL:   30 * time.Minute,
		FormRateLimit:      1,
		FormRateBurst:      5,
		PopupTrialDelay:    10 * time.Second,
		PopupDemoDelay:     20 * time.Second,
		PopupCallbackDelay: 20 * time.Second,
	}
}

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, leadMetrics, popupMetrics := setupMetrics()
	require.NotNil(t, handler)

	leadMetrics.ObserveSubmission("contact", "submitted")
	popupMetrics.ObserveShown("trial")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "acecrm_leads_submissions_total")
	assert.Contains(t, rr.Body.String(), "acecrm_popup_shown_total")
}

func TestBuildAppServesHealthWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	a, err := buildApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer a.close()

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redis":"ok"`)
}

func TestBuildAppSubmitsContactForm(t *testing.T) {
	a, err := buildApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	defer a.close()

	body := `{"fullName":"Asha Rao","businessEmail":"asha@raotraders.in","mobileNumber":"+91 98401 37210"}`
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/forms/contact", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"submitted"`)
}

func TestBuildAppRejectsUnknownEmailProvider(t *testing.T) {
	cfg := testConfig()
	cfg.EmailProvider = "pigeon"
	_, err := buildApp(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

func TestBuildAppRequiresTemplateForRealProvider(t *testing.T) {
	cfg := testConfig()
	cfg.EmailProvider = "sendgrid"
	cfg.SendGridAPIKey = "SG.test"
	_, err := buildApp(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAILJS_ENQ_TEMPLATE_ID")

	cfg.EmailEnqTemplateID = "d-enquiry"
	a, err := buildApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	a.close()
}
