package invoice

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Fake is an in-process invoicer for development and tests. Invoices stay
// pending until a test (or nobody, in dev mode) marks them paid or expired.
type Fake struct {
	mu     sync.Mutex
	states map[string]State
	seq    int
}

func NewFake() *Fake {
	return &Fake{states: make(map[string]State)}
}

func (f *Fake) CreateInvoice(_ context.Context, amountSats int64, memo string) (Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	hash := uuid.NewString()
	f.states[hash] = StatePending
	return Invoice{
		PaymentRequest: fmt.Sprintf("lnbc%d_fake_%d", amountSats, f.seq),
		PaymentHash:    hash,
	}, nil
}

func (f *Fake) InvoiceState(_ context.Context, paymentHash string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state, ok := f.states[paymentHash]; ok {
		return state, nil
	}
	return "", fmt.Errorf("unknown payment hash %q", paymentHash)
}

// MarkPaid settles the invoice with the given payment hash.
func (f *Fake) MarkPaid(paymentHash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[paymentHash] = StatePaid
}

// MarkExpired expires the invoice with the given payment hash.
func (f *Fake) MarkExpired(paymentHash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[paymentHash] = StateExpired
}
