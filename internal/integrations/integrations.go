package integrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"phone_ordering_backend/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrUpstream wraps any failure reported by an external collaborator.
var ErrUpstream = errors.New("upstream service failure")

// Receipt is the delivery receipt of an outbound message.
type Receipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PaymentLink is a checkout URL for an order. It is advisory; confirmation arrives separately.
type PaymentLink struct {
	URL    string `json:"url"`
	LinkID string `json:"link_id"`
}

// PrintReceipt identifies a job accepted by the print service.
type PrintReceipt struct {
	JobID string `json:"job_id"`
}

// Notifier sends a text message to a customer phone.
type Notifier interface {
	Send(ctx context.Context, to, text string) (*Receipt, error)
}

// PaymentLinker creates payment links for orders.
type PaymentLinker interface {
	CreateLink(ctx context.Context, orderID string, amount decimal.Decimal) (*PaymentLink, error)
}

// Printer dispatches an order ticket to the kitchen printer.
type Printer interface {
	Print(ctx context.Context, orderID string) (*PrintReceipt, error)
}

// Set bundles the three collaborators.
type Set struct {
	Notifier      Notifier
	PaymentLinker PaymentLinker
	Printer       Printer
}

// NewSet builds HTTP clients for configured endpoints and log-only mocks for the rest.
func NewSet(cfg config.IntegrationsConfig) Set {
	set := Set{
		Notifier:      &LogNotifier{},
		PaymentLinker: &LogPaymentLinker{BaseURL: "https://pay.example.com/checkout"},
		Printer:       &LogPrinter{},
	}
	if cfg.SMS.BaseURL != "" {
		set.Notifier = NewSMSClient(newRestyClient(cfg.SMS, cfg.Timeout))
	}
	if cfg.Payment.BaseURL != "" {
		set.PaymentLinker = NewPaymentClient(newRestyClient(cfg.Payment, cfg.Timeout))
	}
	if cfg.Print.BaseURL != "" {
		set.Printer = NewPrintClient(newRestyClient(cfg.Print, cfg.Timeout))
	}
	return set
}

func newRestyClient(endpoint config.ServiceEndpoint, timeout time.Duration) *resty.Client {
	client := resty.New().
		SetBaseURL(endpoint.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if endpoint.APIKey != "" {
		client.SetAuthToken(endpoint.APIKey)
	}
	return client
}

// checkResponse converts transport errors and non-2xx statuses into ErrUpstream.
func checkResponse(resp *resty.Response, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, what, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s failed with status %d: %s", ErrUpstream, what, resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
