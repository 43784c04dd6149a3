package domain

import (
	"strings"
	"time"
)

type DocumentType string

const (
	DocumentInvoice DocumentType = "Invoice"
	DocumentQuote   DocumentType = "Quote"
	DocumentReceipt DocumentType = "Receipt"
)

type DocumentStatus string

const (
	DocumentPaid    DocumentStatus = "Paid"
	DocumentPending DocumentStatus = "Pending"
	DocumentOverdue DocumentStatus = "Overdue"
	DocumentDraft   DocumentStatus = "Draft"
)

type Document struct {
	ID       string         `json:"id" yaml:"id"`
	OwnerID  int64          `json:"owner_id" yaml:"owner_id"`
	Type     DocumentType   `json:"type" yaml:"type"`
	Number   string         `json:"number" yaml:"number"`
	From     string         `json:"from" yaml:"from"`
	Date     string         `json:"date" yaml:"date"`
	Amount   float64        `json:"amount" yaml:"amount"`
	Currency string         `json:"currency" yaml:"currency"`
	Status   DocumentStatus `json:"status" yaml:"status"`
}

type DocumentRequest struct {
	Type     DocumentType   `json:"type"`
	Number   string         `json:"number"`
	From     string         `json:"from"`
	Date     string         `json:"date"`
	Amount   float64        `json:"amount"`
	Currency string         `json:"currency"`
	Status   DocumentStatus `json:"status"`
}

func (r *DocumentRequest) Normalize(now time.Time) {
	r.Number = strings.TrimSpace(r.Number)
	r.From = strings.TrimSpace(r.From)
	r.Date = strings.TrimSpace(r.Date)
	if r.Date == "" {
		r.Date = now.Format(DateLayout)
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.Status == "" {
		r.Status = DocumentDraft
	}
}

func (r DocumentRequest) Validate() error {
	var errs ValidationErrors
	switch r.Type {
	case DocumentInvoice, DocumentQuote, DocumentReceipt:
	default:
		errs.Add("type", "must be Invoice, Quote or Receipt")
	}
	switch r.Status {
	case DocumentPaid, DocumentPending, DocumentOverdue, DocumentDraft:
	default:
		errs.Add("status", "must be Paid, Pending, Overdue or Draft")
	}
	errs.Required("number", r.Number)
	if r.Amount < 0 {
		errs.Add("amount", "must not be negative")
	}
	return errs.Err()
}

// BusinessAssets brand generated documents.
type BusinessAssets struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Logo    *string `json:"logo"`
}

func DefaultBusinessAssets() BusinessAssets {
	return BusinessAssets{
		Name:    "Your Company Name",
		Address: "123 Business Rd, Suite 456, Nairobi",
	}
}

type InboxMessage struct {
	ID        int64     `json:"id" yaml:"id"`
	From      string    `json:"from" yaml:"from"`
	Subject   string    `json:"subject" yaml:"subject"`
	Body      string    `json:"body" yaml:"body"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	IsRead    bool      `json:"is_read" yaml:"is_read"`
}

// Category is a parent grouping with its child services, e.g. Home with
// Plumber and Electrician.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Services []string `json:"services" yaml:"services"`
}

// ReferralCode grants a new profile verification, a cover banner and a category.
type ReferralCode struct {
	Code       string `json:"code" yaml:"code"`
	IsVerified bool   `json:"is_verified" yaml:"is_verified"`
	Banner     string `json:"banner" yaml:"banner"`
	Category   string `json:"category" yaml:"category"`
}
