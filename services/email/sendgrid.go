package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"

	// maxRecipients is SendGrid's cap on to+cc+bcc in one personalization.
	maxRecipients = 1000
)

type sendgridMailer struct {
	apiKey     string
	sender     *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridMailer)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return &sendgridMailer{
		apiKey:     conf.SendgridApiKey,
		sender:     sgEmail(conf.DefaultFromEmail),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (m *sendgridMailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(); err != nil {
				m.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
				return
			}
			if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
				return
			}
			m.deliver(m.build(*msg))
		}()
	}
}

// build turns msg into a v3 mail/send payload.
func (m *sendgridMailer) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.sender)
	v3.AddPersonalizations(m.personalizations(msg)...)

	if msg.TextContent != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		v3.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return v3
}

// personalizations spreads the recipients of msg over as many personalizations as SendGrid needs.
// Every personalization must carry a "to": mail with Bcc recipients only (class announcements)
// is addressed to the sender, and Bcc overflow goes out in further sender-addressed batches.
func (m *sendgridMailer) personalizations(msg core.EmailMessage) []*sgmail.Personalization {
	subject := m.subjPrefix + msg.Subject
	to := sgEmails(msg.To)
	if len(to) == 0 {
		to = []*sgmail.Email{m.sender}
	}
	cc := sgEmails(msg.Cc)
	bcc := sgEmails(msg.Bcc)

	room := maxRecipients - len(to) - len(cc)
	if room < 0 {
		room = 0
	}
	n := min(room, len(bcc))

	first := sgmail.NewPersonalization()
	first.Subject = subject
	first.AddTos(to...)
	first.AddCCs(cc...)
	first.AddBCCs(bcc[:n]...)
	ps := []*sgmail.Personalization{first}

	for rest := bcc[n:]; len(rest) > 0; {
		k := min(maxRecipients-1, len(rest))
		p := sgmail.NewPersonalization()
		p.Subject = subject
		p.AddTos(m.sender)
		p.AddBCCs(rest[:k]...)
		ps = append(ps, p)
		rest = rest[k:]
	}
	return ps
}

func (m *sendgridMailer) deliver(v3 *sgmail.SGMailV3) {
	req := sendgrid.GetRequest(m.apiKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	switch {
	case err != nil:
		m.logger.Error(fmt.Sprintf("sending email: %v", err), err)
	case res.StatusCode >= http.StatusBadRequest:
		m.logger.Error(fmt.Sprintf("sending email - status: %d - body: %s", res.StatusCode, res.Body))
	}
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, sgEmail(a))
	}
	return emails
}
