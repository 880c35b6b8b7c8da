package leads

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/acesoft/ace-crm-site/internal/emailcheck"
	"github.com/acesoft/ace-crm-site/internal/i18n"
	"github.com/acesoft/ace-crm-site/internal/messaging"
	"github.com/acesoft/ace-crm-site/internal/notify"
	"github.com/acesoft/ace-crm-site/internal/observability/metrics"
	"github.com/acesoft/ace-crm-site/internal/phone"
	"github.com/acesoft/ace-crm-site/internal/session"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

var workflowTracer = otel.Tracer("acecrm.internal.leads.workflow")

// EmailVerifier checks a business email address.
type EmailVerifier interface {
	Check(ctx context.Context, email string) emailcheck.Result
}

// PhoneValidator checks a mobile number against a region hint.
type PhoneValidator interface {
	Valid(number, defaultRegion string) bool
}

// SiteConfig carries the fixed delivery identifiers and greeting assets.
type SiteConfig struct {
	ServiceID        string
	TemplateID       string
	PublicKey        string
	ConfirmationPath string
	SiteURL          string
	ImageURL         string
}

// Deps are the collaborators of a Workflow. Verifier and Sender are required.
type Deps struct {
	Verifier EmailVerifier
	Phones   PhoneValidator
	Sender   notify.TemplateSender
	Notifier messaging.Notifier
	Sessions session.Store
	Metrics  *metrics.LeadMetrics
	Logger   *logging.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithNotificationTimeout bounds the best-effort notification step.
func WithNotificationTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.notifyTimeout = d
		}
	}
}

// WithStateObserver registers fn to see every state an attempt passes through.
func WithStateObserver(fn func(form string, s State)) Option {
	return func(w *Workflow) { w.observe = fn }
}

// Workflow runs lead submissions for one form.
type Workflow struct {
	form          FormConfig
	site          SiteConfig
	deps          Deps
	guard         *inflight
	notifyTimeout time.Duration
	observe       func(form string, s State)
	now           func() time.Time
	notifications sync.WaitGroup
}

// NewWorkflow builds the workflow for form.
func NewWorkflow(form FormConfig, site SiteConfig, deps Deps, opts ...Option) (*Workflow, error) {
	if deps.Verifier == nil {
		return nil, fmt.Errorf("%w: email verifier", ErrMissingDependency)
	}
	if deps.Sender == nil {
		return nil, fmt.Errorf("%w: template sender", ErrMissingDependency)
	}
	if deps.Phones == nil {
		deps.Phones = phone.NewValidator("")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = messaging.NewStubNotifier(deps.Logger)
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore(0)
	}
	if site.ConfirmationPath == "" {
		site.ConfirmationPath = "/thank-you"
	}
	w := &Workflow{
		form:          form,
		site:          site,
		deps:          deps,
		guard:         newInflight(),
		notifyTimeout: 10 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.deps.Logger = w.deps.Logger.With("form", form.Name)
	return w, nil
}

// Form returns the form this workflow serves.
func (w *Workflow) Form() FormConfig { return w.form }

// Submit runs one attempt: email check, phone check and delivery. It returns
// as soon as delivery settles; the best-effort notifications continue in the
// background (see Wait). Field and delivery failures are reported in the
// Outcome; the error is only set when the attempt could not start.
func (w *Workflow) Submit(ctx context.Context, sessionID string, t i18n.Translate, fields Fields) (*Outcome, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if !w.guard.acquire(sessionID) {
		w.deps.Metrics.ObserveSubmission(w.form.Name, "in_flight")
		return nil, ErrSubmissionInFlight
	}
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { w.guard.release(sessionID) }) }
	defer release()

	ctx, span := workflowTracer.Start(ctx, "leads.workflow.submit")
	defer span.End()
	span.SetAttributes(attribute.String("leads.form", w.form.Name))

	outcome := &Outcome{Form: w.form.Name}
	w.transition(StateValidating)

	fields.BusinessEmail = strings.TrimSpace(fields.BusinessEmail)
	if msg := w.checkEmail(ctx, t, fields.BusinessEmail); msg != "" {
		outcome.EmailError = msg
		return w.finishValidationFailed(outcome), nil
	}
	if !w.deps.Phones.Valid(fields.MobileNumber, t("code")) {
		outcome.PhoneError = t("PhoneError")
		return w.finishValidationFailed(outcome), nil
	}
	w.transition(StateValidated)

	sub := assemble(w.form, fields)
	w.transition(StateSubmitting)
	w.deliver(ctx, sessionID, t, sub, outcome)
	w.transition(outcome.State)
	release()

	notifyCtx := context.WithoutCancel(ctx)
	w.notifications.Add(1)
	go func() {
		defer w.notifications.Done()
		w.transition(StateNotifyAttempted)
		w.sendNotifications(notifyCtx, sub)
		w.transition(StateIdle)
	}()

	span.SetAttributes(attribute.String("leads.state", string(outcome.State)))
	w.deps.Metrics.ObserveSubmission(w.form.Name, string(outcome.State))
	return outcome, nil
}

func (w *Workflow) finishValidationFailed(outcome *Outcome) *Outcome {
	outcome.State = StateValidationFailed
	w.transition(StateValidationFailed)
	w.transition(StateIdle)
	w.deps.Metrics.ObserveSubmission(w.form.Name, string(StateValidationFailed))
	return outcome
}

// checkEmail returns the inline message for the email field, or "" when the
// address passed.
func (w *Workflow) checkEmail(ctx context.Context, t i18n.Translate, email string) string {
	res := w.deps.Verifier.Check(ctx, email)
	w.deps.Metrics.ObserveEmailCheck(w.form.Name, string(res.Verdict))

	switch res.Verdict {
	case emailcheck.VerdictValid:
		return ""
	case emailcheck.VerdictRejected:
		return "Failed: " + res.ProviderError
	case emailcheck.VerdictUnavailable:
		w.deps.Logger.Warn("email validation unavailable", "error", res.Err)
		return t("ValidationUnavailable")
	default:
		return t("EmailError")
	}
}

func (w *Workflow) deliver(ctx context.Context, sessionID string, t i18n.Translate, sub Submission, outcome *Outcome) {
	start := w.now()
	err := w.deps.Sender.SendTemplate(ctx, notify.TemplateEmail{
		ServiceID:  w.site.ServiceID,
		TemplateID: w.form.templateID(w.site),
		PublicKey:  w.site.PublicKey,
		Params:     sub.TemplateParams(),
	})
	w.deps.Metrics.ObserveDeliveryLatency(w.form.Name, w.now().Sub(start).Seconds())
	if err != nil {
		w.deps.Logger.Error("lead delivery failed", "error", err)
		outcome.State = StateSubmitFailed
		outcome.Alert = t("Failure")
		return
	}

	if err := w.deps.Sessions.Mark(ctx, sessionID, session.FormSubmittedKey, w.form.SessionMarkerValue); err != nil {
		w.deps.Logger.Warn("failed to record session marker", "error", err)
	}
	outcome.State = StateSubmitted
	outcome.ResetForm = true
	outcome.Redirect = w.site.ConfirmationPath
	w.deps.Logger.Info("lead delivered", "origin", sub.OriginateFrom)
}

// Wait blocks until every notification started by Submit has finished.
func (w *Workflow) Wait() {
	w.notifications.Wait()
}

// sendNotifications stops at the first failure. Nothing here changes the
// outcome.
func (w *Workflow) sendNotifications(ctx context.Context, sub Submission) {
	ctx, cancel := context.WithTimeout(ctx, w.notifyTimeout)
	defer cancel()

	if err := w.deps.Notifier.SendWhatsappMessage(ctx, messaging.TemplateEnquiryForm, sub.EnquiryPayload()); err != nil {
		w.notificationFailed(messaging.TemplateEnquiryForm, err)
		return
	}
	w.deps.Metrics.ObserveNotification(messaging.TemplateEnquiryForm, true)

	var recipient []string
	if w.form.NormalizePhoneForNotification && sub.MobileNumber != "" {
		recipient = []string{sub.MobileNumber}
	}
	if err := w.deps.Notifier.SendWhatsappMessage(ctx, messaging.TemplateCustomerGreetings, sub.GreetingPayload(w.site), recipient...); err != nil {
		w.notificationFailed(messaging.TemplateCustomerGreetings, err)
		return
	}
	w.deps.Metrics.ObserveNotification(messaging.TemplateCustomerGreetings, true)
}

func (w *Workflow) notificationFailed(template string, err error) {
	w.deps.Metrics.ObserveNotification(template, false)
	w.deps.Logger.Error("whatsapp notification failed", "template", template, "error", err)
}

func (w *Workflow) transition(s State) {
	if w.observe != nil {
		w.observe(w.form.Name, s)
	}
}
