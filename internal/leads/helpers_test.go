package leads

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acesoft/ace-crm-site/internal/emailcheck"
	"github.com/acesoft/ace-crm-site/internal/notify"
	"github.com/acesoft/ace-crm-site/internal/phone"
	"github.com/acesoft/ace-crm-site/internal/session"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

var testMessages = map[string]string{
	"code":                  "IN",
	"EmailError":            "bad email",
	"ValidationUnavailable": "validation unavailable",
	"PhoneError":            "bad phone",
	"Failure":               "delivery failed",
}

func testTranslate(key string) string {
	if v, ok := testMessages[key]; ok {
		return v
	}
	return key
}

type fakeVerifier struct {
	mu     sync.Mutex
	result emailcheck.Result
	emails []string
}

func (f *fakeVerifier) Check(ctx context.Context, email string) emailcheck.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, email)
	return f.result
}

func (f *fakeVerifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emails)
}

type fakeSender struct {
	mu      sync.Mutex
	err     error
	sent    []notify.TemplateEmail
	started chan struct{}
	unblock chan struct{}
}

func (f *fakeSender) SendTemplate(ctx context.Context, msg notify.TemplateEmail) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.unblock != nil {
		<-f.unblock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type sentMessage struct {
	template  string
	payload   map[string]string
	recipient []string
}

type fakeNotifier struct {
	mu      sync.Mutex
	failOn  string
	sent    []sentMessage
	unblock chan struct{}
}

func (f *fakeNotifier) SendWhatsappMessage(ctx context.Context, templateName string, payload map[string]string, recipient ...string) error {
	if f.unblock != nil {
		select {
		case <-f.unblock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{template: templateName, payload: payload, recipient: recipient})
	if templateName == f.failOn {
		return errors.New("gateway down")
	}
	return nil
}

func (f *fakeNotifier) templates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.template)
	}
	return out
}

type fixture struct {
	verifier *fakeVerifier
	sender   *fakeSender
	notifier *fakeNotifier
	sessions *session.MemoryStore
}

func newFixture() *fixture {
	return &fixture{
		verifier: &fakeVerifier{result: emailcheck.Result{Verdict: emailcheck.VerdictValid, StatusCode: 200}},
		sender:   &fakeSender{},
		notifier: &fakeNotifier{},
		sessions: session.NewMemoryStore(0),
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Verifier: f.verifier,
		Phones:   phone.NewValidator("IN"),
		Sender:   f.sender,
		Notifier: f.notifier,
		Sessions: f.sessions,
		Logger:   logging.Discard(),
	}
}

// newTestWorkflow builds a workflow and waits for its background
// notifications when the test ends.
func newTestWorkflow(t *testing.T, form FormConfig, site SiteConfig, deps Deps, opts ...Option) *Workflow {
	t.Helper()
	wf, err := NewWorkflow(form, site, deps, opts...)
	require.NoError(t, err)
	t.Cleanup(wf.Wait)
	return wf
}

var testSite = SiteConfig{
	ServiceID:        "service_ace",
	TemplateID:       "template_enq",
	PublicKey:        "pk_site",
	ConfirmationPath: "/thank-you",
	SiteURL:          "https://acesoft.in",
	ImageURL:         "https://res.cloudinary.com/dohyevc59/image/upload/v1749124753/Enquiry_Greetings_royzcm.jpg",
}

func validFields() Fields {
	return Fields{
		FullName:      "Asha Rao",
		CompanyName:   "Rao Traders",
		BusinessEmail: "  asha@raotraders.in ",
		MobileNumber:  "+91 98401 37210",
		Location:      "Chennai",
		Message:       "Need a CRM demo",
	}
}
