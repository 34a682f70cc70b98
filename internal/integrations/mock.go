package integrations

import (
	"context"
	"fmt"

	"phone_ordering_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LogNotifier only logs the message. Used when no SMS gateway is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, to, text string) (*Receipt, error) {
	id := "sms_" + uuid.NewString()
	utils.LogInfo("SMS (mock)", map[string]interface{}{"to": to, "text": text, "receipt_id": id})
	return &Receipt{ID: id, Status: "sent"}, nil
}

// LogPaymentLinker builds a local checkout URL.
type LogPaymentLinker struct {
	BaseURL string
}

func (l LogPaymentLinker) CreateLink(ctx context.Context, orderID string, amount decimal.Decimal) (*PaymentLink, error) {
	linkID := "plink_" + uuid.NewString()
	link := &PaymentLink{URL: fmt.Sprintf("%s/%s", l.BaseURL, linkID), LinkID: linkID}
	utils.LogInfo("Payment link (mock)", map[string]interface{}{"order_id": orderID, "amount": amount.StringFixed(2), "url": link.URL})
	return link, nil
}

// LogPrinter logs the print request.
type LogPrinter struct{}

func (LogPrinter) Print(ctx context.Context, orderID string) (*PrintReceipt, error) {
	jobID := "print_" + uuid.NewString()
	utils.LogInfo("Print job (mock)", map[string]interface{}{"order_id": orderID, "job_id": jobID})
	return &PrintReceipt{JobID: jobID}, nil
}
