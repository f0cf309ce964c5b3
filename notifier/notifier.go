package notifier

import (
	"log"
	"strconv"

	"payment-service/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"
)

// Notifier sends the customer-facing side channels: SMS through Twilio and
// email receipts over SMTP. Both are fire-and-forget; callers log failures
// and move on, they never roll back payment state.
type Notifier struct {
	twilio *twilio.RestClient
	from   string

	smtpHost string
	smtpPort int
	smtpUser string
	smtpPass string
	smtpFrom string
}

func New(cfg *config.Config) *Notifier {
	n := &Notifier{
		from:     cfg.TwilioFromNumber,
		smtpHost: cfg.SMTPHost,
		smtpUser: cfg.SMTPUser,
		smtpPass: cfg.SMTPPass,
		smtpFrom: cfg.SMTPFrom,
	}

	if port, err := strconv.Atoi(cfg.SMTPPort); err == nil {
		n.smtpPort = port
	} else {
		n.smtpPort = 587
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		n.twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	} else {
		log.Println("Twilio credentials missing, SMS notifications disabled")
	}

	return n
}

func (n *Notifier) SendSMS(phone, body string) error {
	if n.twilio == nil {
		log.Printf("SMS skipped (no Twilio client): %s", body)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(n.from)
	params.SetBody(body)

	_, err := n.twilio.Api.CreateMessage(params)
	return err
}

func (n *Notifier) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.smtpFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.smtpHost, n.smtpPort, n.smtpUser, n.smtpPass)
	return d.DialAndSend(m)
}
