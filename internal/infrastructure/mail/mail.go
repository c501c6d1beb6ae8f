package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/utils"
	"gopkg.in/gomail.v2"
)

type Mailer struct {
	dialer *gomail.Dialer
	sender string
}

func CreateMailer(conf config.MailConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUsername, conf.SMTPPassword),
		sender: conf.Sender,
	}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, order dto.OrderResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return m.dialer.DialAndSend(BuildOrderConfirmation(m.sender, order))
}

func BuildOrderConfirmation(sender string, order dto.OrderResponse) *gomail.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\nThanks for your order %s placed on %s.\n\n",
		order.FirstName, order.OrderNumber, utils.FormatTimestamp(order.CreatedAt, time.UTC))
	for _, item := range order.Items {
		fmt.Fprintf(&body, "%d x %s @ %s\n", item.Quantity, item.ProductName, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&body, "\nSubtotal: %s\nShipping: %s\nTax: %s\nTotal: %s\n",
		order.Subtotal.StringFixed(2), order.Shipping.StringFixed(2), order.Tax.StringFixed(2), order.Total.StringFixed(2))
	fmt.Fprintf(&body, "\nShipping to:\n%s %s\n%s\n%s %s %s\n",
		order.FirstName, order.LastName, order.Address, order.City, order.State, order.ZipCode)

	message := gomail.NewMessage()
	message.SetHeader("From", sender)
	message.SetHeader("To", order.Email)
	message.SetHeader("Subject", fmt.Sprintf("Order %s confirmed", order.OrderNumber))
	message.SetBody("text/plain", body.String())

	return message
}
