package leads

import (
	"strings"

	"github.com/acesoft/ace-crm-site/internal/phone"
)

// Fields holds what the visitor typed into a lead form.
type Fields struct {
	FullName      string `json:"fullName"`
	CompanyName   string `json:"companyName"`
	BusinessEmail string `json:"businessEmail"`
	MobileNumber  string `json:"mobileNumber"`
	Location      string `json:"location"`
	Message       string `json:"message"`
}

// Submission is the assembled lead handed to delivery. ProductInterest and
// OriginateFrom come from the form, never from the visitor.
type Submission struct {
	FullName        string
	CompanyName     string
	BusinessEmail   string
	MobileNumber    string
	Location        string
	Message         string
	ProductInterest string
	OriginateFrom   string
}

func assemble(form FormConfig, f Fields) Submission {
	mobile := f.MobileNumber
	if form.NormalizePhoneForNotification {
		mobile = phone.StripForNotification(mobile)
	}
	return Submission{
		FullName:        f.FullName,
		CompanyName:     f.CompanyName,
		BusinessEmail:   strings.TrimSpace(f.BusinessEmail),
		MobileNumber:    mobile,
		Location:        f.Location,
		Message:         f.Message,
		ProductInterest: form.ProductInterest,
		OriginateFrom:   form.OriginateFrom,
	}
}

// TemplateParams is the flat field map the email template expects.
func (s Submission) TemplateParams() map[string]string {
	return map[string]string{
		"Full_Name":          s.FullName,
		"Company_Name":       s.CompanyName,
		"Business_Email":     s.BusinessEmail,
		"Mobile_Number":      s.MobileNumber,
		"Location":           s.Location,
		"Message":            s.Message,
		"Product_Interested": s.ProductInterest,
		"Originate_From":     s.OriginateFrom,
	}
}

// EnquiryPayload is the internal WhatsApp notification.
func (s Submission) EnquiryPayload() map[string]string {
	return map[string]string{
		"originateFrom":   s.OriginateFrom,
		"fullName":        s.FullName,
		"companyName":     s.CompanyName,
		"businessEmail":   s.BusinessEmail,
		"mobileNumber":    s.MobileNumber,
		"location":        s.Location,
		"productInterest": s.ProductInterest,
		"message":         s.Message,
	}
}

// GreetingPayload is the submitter-facing WhatsApp greeting.
func (s Submission) GreetingPayload(site SiteConfig) map[string]string {
	return map[string]string{
		"fullName": s.FullName,
		"product":  s.ProductInterest,
		"siteUrl":  site.SiteURL,
		"imageUrl": site.ImageURL,
	}
}

// State is a step of one submission attempt.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateValidationFailed State = "validation_failed"
	StateValidated        State = "validated"
	StateSubmitting       State = "submitting"
	StateSubmitted        State = "submitted"
	StateSubmitFailed     State = "submit_failed"
	StateNotifyAttempted  State = "notify_attempted"
)

// Outcome is what the form shows after an attempt. State is the terminal
// state reached: StateValidationFailed, StateSubmitted or StateSubmitFailed.
type Outcome struct {
	Form       string
	State      State
	EmailError string
	PhoneError string
	Alert      string
	Redirect   string
	ResetForm  bool
}
