package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail over an SMTP relay.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *Mailer) Send(to, subject, body string) error {
	if m.Host == "" {
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) OrderConfirmation(to string, orderID uint, amount float64) error {
	subject := fmt.Sprintf("Your booking #%d is confirmed", orderID)
	body := fmt.Sprintf("<p>Thanks for your booking.</p><p>Order #%d, total %.0f.</p>", orderID, amount)
	return m.Send(to, subject, body)
}
