// Package invoice abstracts the Lightning invoice backend behind a small
// port. The service never parses bolt11 strings; settlement is observed by
// asking the backend for the payment state of a payment hash.
package invoice

import "context"

// Invoice is a freshly created Lightning invoice.
type Invoice struct {
	// PaymentRequest is the opaque bolt11 string the payer scans. It is
	// rendered, never parsed.
	PaymentRequest string
	// PaymentHash is the backend's handle for settlement checks.
	PaymentHash string
}

// State is the backend's view of an invoice.
type State string

const (
	StatePending State = "pending"
	StatePaid    State = "paid"
	StateExpired State = "expired"
)

// Invoicer creates invoices and reports their payment state.
type Invoicer interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error)
	InvoiceState(ctx context.Context, paymentHash string) (State, error)
}
