package emailsvc

import (
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/edulytics/backend/core"
)

type sendgridService struct {
	client           *sendgrid.Client
	defaultFromEmail mail.Address
	subjPrefix       string
	logger           core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return &sendgridService{
		client:           sendgrid.NewSendClient(conf.SendgridAPIKey),
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		logger:           logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc sendgridService) sendMessage(msg *core.EmailMessage) {
	if !(msg.HasRecipients() && msg.HasContent()) {
		return
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(svc.defaultFromEmail.Name, svc.defaultFromEmail.Address))
	m.Subject = svc.subjPrefix + msg.Subject

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgmail.NewEmail(cc.Name, cc.Address))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgmail.NewEmail(bcc.Name, bcc.Address))
	}
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.BodyStr))

	resp, err := svc.client.Send(m)
	if err != nil {
		svc.logger.Error("sending email", errors.Wrap(err, "sendgrid send"))
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		svc.logger.Error("sending email", errors.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body))
	}
}
