package leads

import "strings"

// FormConfig parameterizes the lead workflow for one site form.
type FormConfig struct {
	// Name is the URL segment, e.g. "contact".
	Name string
	// TemplateID overrides the site's enquiry template when set.
	TemplateID      string
	OriginateFrom   string
	ProductInterest string
	// SessionMarkerValue is stored under session.FormSubmittedKey on success.
	SessionMarkerValue string
	// NormalizePhoneForNotification strips "+" and whitespace from the phone
	// before assembly and addresses the greeting to the submitter.
	NormalizePhoneForNotification bool
}

var (
	// ContactForm is the full-page contact form.
	ContactForm = FormConfig{
		Name:                          "contact",
		OriginateFrom:                 "Ace CRM",
		ProductInterest:               "ACE CRM",
		SessionMarkerValue:            "contact_form",
		NormalizePhoneForNotification: true,
	}

	// DemoPopupForm is the form inside the popup demo overlay.
	DemoPopupForm = FormConfig{
		Name:               "demo-popup",
		OriginateFrom:      "Ace CMS",
		ProductInterest:    "ACE CRM",
		SessionMarkerValue: "demo_popup_form",
	}
)

// DefaultForms returns the forms served by the site.
func DefaultForms() []FormConfig {
	return []FormConfig{ContactForm, DemoPopupForm}
}

func (f FormConfig) templateID(site SiteConfig) string {
	if id := strings.TrimSpace(f.TemplateID); id != "" {
		return id
	}
	return site.TemplateID
}
