package integrations

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// SMSClient posts messages to an SMS gateway.
type SMSClient struct {
	client *resty.Client
}

func NewSMSClient(client *resty.Client) *SMSClient {
	return &SMSClient{client: client}
}

func (s *SMSClient) Send(ctx context.Context, to, text string) (*Receipt, error) {
	var receipt Receipt
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"to": to, "body": text}).
		SetResult(&receipt).
		Post("/messages")
	if err := checkResponse(resp, err, "sending sms"); err != nil {
		return nil, err
	}
	if receipt.ID == "" {
		return nil, fmt.Errorf("%w: sms receipt without id", ErrUpstream)
	}
	return &receipt, nil
}

// PaymentClient requests checkout links from a payment provider.
type PaymentClient struct {
	client *resty.Client
}

func NewPaymentClient(client *resty.Client) *PaymentClient {
	return &PaymentClient{client: client}
}

func (p *PaymentClient) CreateLink(ctx context.Context, orderID string, amount decimal.Decimal) (*PaymentLink, error) {
	var link PaymentLink
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"order_id": orderID,
			"amount":   amount.StringFixed(2),
		}).
		SetResult(&link).
		Post("/payment-links")
	if err := checkResponse(resp, err, "creating payment link"); err != nil {
		return nil, err
	}
	if link.URL == "" || link.LinkID == "" {
		return nil, fmt.Errorf("%w: incomplete payment link response", ErrUpstream)
	}
	return &link, nil
}

// PrintClient submits print jobs to a cloud print service.
type PrintClient struct {
	client *resty.Client
}

func NewPrintClient(client *resty.Client) *PrintClient {
	return &PrintClient{client: client}
}

func (p *PrintClient) Print(ctx context.Context, orderID string) (*PrintReceipt, error) {
	var receipt PrintReceipt
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"order_id": orderID}).
		SetResult(&receipt).
		Post("/print-jobs")
	if err := checkResponse(resp, err, "dispatching print job"); err != nil {
		return nil, err
	}
	if receipt.JobID == "" {
		return nil, fmt.Errorf("%w: print response without job id", ErrUpstream)
	}
	return &receipt, nil
}
