package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/bunkmeter/core"
)

// sendgridService delivers every recipient of a message its own copy through the SendGrid v3 API.
type sendgridService struct {
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
	deliver    func(m *sgmail.SGMailV3) (status int, body string, err error)
}

var _ core.EmailService = (*sendgridService)(nil) // interface compliance check

func NewSendgridService(logger core.Logger, conf *core.Config) *sendgridService {
	from := conf.DefaultFromEmail()
	client := sendgrid.NewSendClient(conf.SendgridApiKey)
	return &sendgridService{
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		deliver: func(m *sgmail.SGMailV3) (int, string, error) {
			res, err := client.Send(m)
			if err != nil {
				return 0, "", err
			}
			return res.StatusCode, res.Body, nil
		},
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc *sendgridService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}

	for _, m := range svc.build(*msg) {
		status, body, err := svc.deliver(m)
		switch {
		case err != nil:
			svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
		case status >= http.StatusBadRequest:
			svc.logger.Error(fmt.Sprintf("sending email - status: %d - body: %s", status, body))
		}
	}
}

// build returns one mail per To, Cc and Bcc address.
func (svc *sendgridService) build(msg core.EmailMessage) []*sgmail.SGMailV3 {
	contents := []*sgmail.Content{sgmail.NewContent("text/plain", msg.TextContent)}
	if msg.HTMLContent != "" {
		contents = append(contents, sgmail.NewContent("text/html", msg.HTMLContent))
	}

	recipients := make([]mail.Address, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)

	mails := make([]*sgmail.SGMailV3, 0, len(recipients))
	for _, to := range recipients {
		to := sgmail.NewEmail(to.Name, to.Address)
		mails = append(mails, sgmail.NewV3MailInit(svc.from, svc.subjPrefix+msg.Subject, to, contents...))
	}
	return mails
}
