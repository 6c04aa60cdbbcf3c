package reminder

import (
	"context"
	"net/mail"

	"github.com/trezcool/bunkmeter/core"
)

const reminderTemplate = "class_reminder"

func init() {
	text := `Hi{{ if .UserName }} {{ .UserName }}{{ end }},

{{ .Subject }} starts at {{ .Start }} (until {{ .End }}) today, {{ .Date }}.
Current attendance: {{ printf "%.1f" .Percentage }}%.
`
	html := `<p>Hi{{ if .UserName }} {{ .UserName }}{{ end }},</p>
<p><strong>{{ .Subject }}</strong> starts at {{ .Start }} (until {{ .End }}) today, {{ .Date }}.</p>
<p>Current attendance: {{ printf "%.1f" .Percentage }}%.</p>
`
	if err := core.RegisterEmailTemplate(reminderTemplate, text, html); err != nil {
		panic(err)
	}
}

type (
	// PercentageFunc returns the current attendance percentage of a subject.
	PercentageFunc func(ctx context.Context, subjectID int) (float64, error)

	// UserNameFunc returns the display name used to greet the user.
	UserNameFunc func(ctx context.Context) string

	// EmailNotifier sends reminders by email.
	EmailNotifier struct {
		mailSvc    core.EmailService
		to         mail.Address
		percentage PercentageFunc
		userName   UserNameFunc
	}
)

var _ Notifier = (*EmailNotifier)(nil) // interface compliance check

func NewEmailNotifier(mailSvc core.EmailService, to mail.Address, percentage PercentageFunc, userName UserNameFunc) *EmailNotifier {
	return &EmailNotifier{mailSvc: mailSvc, to: to, percentage: percentage, userName: userName}
}

func (n *EmailNotifier) Notify(ctx context.Context, r Reminder) error {
	data := map[string]interface{}{
		"UserName":   "",
		"Subject":    r.Subject.Name,
		"Start":      r.Schedule.Start.String(),
		"End":        r.Schedule.End.String(),
		"Date":       r.Date.String(),
		"Percentage": 100.0,
	}
	if n.userName != nil {
		data["UserName"] = n.userName(ctx)
	}
	if n.percentage != nil {
		pct, err := n.percentage(ctx, r.Subject.ID)
		if err != nil {
			return err
		}
		data["Percentage"] = pct
	}

	n.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{n.to},
		Subject:      r.Subject.Name + " at " + r.Schedule.Start.String(),
		TemplateName: reminderTemplate,
		TemplateData: data,
	})
	return nil
}
