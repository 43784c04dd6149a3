// Package payments charges ticket entry fees. The mock gateway is the
// default; Stripe is used when a secret key is configured.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrDeclined = errors.New("payment declined")

type ChargeRequest struct {
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Receipt struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Gateway charges an amount in minor units. Free charges never reach it.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// MockGateway approves every charge and returns the same receipt for a
// repeated idempotency key.
type MockGateway struct {
	mu   sync.Mutex
	seen map[string]Receipt
}

func NewMockGateway() *MockGateway {
	return &MockGateway{seen: map[string]Receipt{}}
}

func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if req.Amount <= 0 {
		return Receipt{}, fmt.Errorf("%w: amount must be positive", ErrDeclined)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.IdempotencyKey != "" {
		if r, ok := m.seen[req.IdempotencyKey]; ok {
			return r, nil
		}
	}
	r := Receipt{Reference: "mock_" + uuid.NewString(), Status: "succeeded"}
	if req.IdempotencyKey != "" {
		m.seen[req.IdempotencyKey] = r
	}
	return r, nil
}
