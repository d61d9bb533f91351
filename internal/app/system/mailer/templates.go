// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// GoalReminderEmailData contains the data for a goal deadline reminder.
type GoalReminderEmailData struct {
	AppName      string
	UserName     string
	GoalTitle    string
	TechStack    string
	TargetHours  float64
	CurrentHours float64
	Deadline     time.Time
	DashboardURL string
}

// Remaining is the number of hours still needed, never negative.
func (d GoalReminderEmailData) Remaining() float64 {
	if r := d.TargetHours - d.CurrentHours; r > 0 {
		return r
	}
	return 0
}

// GoalReminderEmail generates both plain text and HTML versions of a deadline reminder.
func GoalReminderEmail(data GoalReminderEmailData) (textBody, htmlBody string) {
	textBody = fmt.Sprintf("Hi %s,\n\n"+
		"Your goal \"%s\" is due %s.\n\n"+
		"Progress: %.2f of %.2f hours of %s (%.2f hours to go).\n\n"+
		"Open your dashboard: %s\n",
		data.UserName, data.GoalTitle, data.Deadline.UTC().Format("Mon, Jan 2 15:04 MST"),
		data.CurrentHours, data.TargetHours, data.TechStack, data.Remaining(),
		data.DashboardURL)

	var buf bytes.Buffer
	if err := goalReminderHTMLTmpl.Execute(&buf, data); err == nil {
		htmlBody = buf.String()
	}
	return textBody, htmlBody
}

// GoalCompletedEmailData contains the data for a goal completion email.
type GoalCompletedEmailData struct {
	AppName      string
	UserName     string
	GoalTitle    string
	TargetHours  float64
	DashboardURL string
}

// GoalCompletedEmail generates both plain text and HTML versions of a goal completion email.
func GoalCompletedEmail(data GoalCompletedEmailData) (textBody, htmlBody string) {
	textBody = fmt.Sprintf("Congratulations %s!\n\n"+
		"You reached your goal \"%s\" (%.2f hours).\n\n"+
		"Set your next goal: %s\n",
		data.UserName, data.GoalTitle, data.TargetHours, data.DashboardURL)

	var buf bytes.Buffer
	if err := goalCompletedHTMLTmpl.Execute(&buf, data); err == nil {
		htmlBody = buf.String()
	}
	return textBody, htmlBody
}

var emailFuncs = template.FuncMap{
	"hours": func(h float64) string { return fmt.Sprintf("%.2f", h) },
	"when":  func(t time.Time) string { return t.UTC().Format("Mon, Jan 2 15:04 MST") },
}

var goalReminderHTMLTmpl = template.Must(template.New("goal_reminder").Funcs(emailFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Goal Deadline Reminder</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.AppName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">{{.GoalTitle}} is due soon</h2>
              <p style="margin: 0 0 16px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Hi {{.UserName}}, your deadline is <strong>{{when .Deadline}}</strong>.
              </p>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                You have logged <strong>{{hours .CurrentHours}}</strong> of <strong>{{hours .TargetHours}}</strong> hours of {{.TechStack}}.
                {{if gt .Remaining 0.0}}{{hours .Remaining}} hours to go.{{end}}
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding: 8px 0 0 0;">
                    <a href="{{.DashboardURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 600; border-radius: 6px;">Open Dashboard</a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

var goalCompletedHTMLTmpl = template.Must(template.New("goal_completed").Funcs(emailFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Goal Completed</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.AppName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Goal completed</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Congratulations {{.UserName}}! You reached <strong>{{.GoalTitle}}</strong> ({{hours .TargetHours}} hours).
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.DashboardURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 600; border-radius: 6px;">Set your next goal</a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
