package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ChargeRequest is sent to a payment provider. PaymentID doubles as the
// provider idempotency key.
type ChargeRequest struct {
	PaymentID uuid.UUID
	Amount    float64
	Currency  string
	Method    string
}

// ChargeResult is the provider verdict for a charge.
type ChargeResult struct {
	ProviderPaymentID string
	Approved          bool
	DeclineReason     string
}

// Provider charges a customer. A returned error means the outcome is
// unknown and the charge may be retried.
type Provider interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SandboxLimit is the largest amount the sandbox provider approves.
const SandboxLimit = 10000

// SandboxProvider approves every charge up to SandboxLimit. Crypto payments
// are declined.
type SandboxProvider struct{}

// Name implements Provider.
func (SandboxProvider) Name() string { return "sandbox" }

// Charge implements Provider.
func (SandboxProvider) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	result := ChargeResult{ProviderPaymentID: "sbx_" + strings.ReplaceAll(req.PaymentID.String(), "-", "")}
	switch {
	case req.Method == MethodCrypto:
		result.DeclineReason = "payment method not supported by sandbox"
	case req.Amount > SandboxLimit:
		result.DeclineReason = fmt.Sprintf("amount exceeds sandbox limit of %d", SandboxLimit)
	default:
		result.Approved = true
	}
	return result, nil
}

// NewProvider returns the provider configured by name.
func NewProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sandbox":
		return SandboxProvider{}, nil
	default:
		return nil, fmt.Errorf("payments: provider %q is not configured", name)
	}
}
