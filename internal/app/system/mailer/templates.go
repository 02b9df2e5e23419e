// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/models"
)

// ist is the display zone for timestamps in notification emails.
var ist = time.FixedZone("IST", 5*60*60+30*60)

// EmergencyEmailData holds the fields rendered into an emergency notification.
type EmergencyEmailData struct {
	SiteName     string
	BloodGroup   string
	District     string
	Urgency      models.Urgency
	Description  string
	ContactName  string
	ContactPhone string
	RequestedAt  time.Time

	// ForCoordinator switches the intro line from the donor wording.
	ForCoordinator bool
}

// UrgencyStyle is the banner palette for an urgency level.
type UrgencyStyle struct {
	Background string
	Border     string
}

// StyleForUrgency maps critical to red, high to amber and everything else to blue.
func StyleForUrgency(u models.Urgency) UrgencyStyle {
	switch u {
	case models.UrgencyCritical:
		return UrgencyStyle{Background: "#f8d7da", Border: "#dc3545"}
	case models.UrgencyHigh:
		return UrgencyStyle{Background: "#fff3cd", Border: "#ffc107"}
	default:
		return UrgencyStyle{Background: "#d1ecf1", Border: "#17a2b8"}
	}
}

// EmergencySubject is the subject line for a request.
func EmergencySubject(bloodGroup, district string) string {
	return fmt.Sprintf("🚨 URGENT: Blood Donation Request - %s needed in %s", bloodGroup, district)
}

// BuildEmergencyEmail renders the notification. The caller sets To.
func BuildEmergencyEmail(data EmergencyEmailData) Email {
	if data.SiteName == "" {
		data.SiteName = models.DefaultSiteName
	}
	if data.Urgency == "" {
		data.Urgency = models.DefaultUrgency
	}
	subject := EmergencySubject(data.BloodGroup, data.District)
	return Email{
		Subject:  subject,
		TextBody: buildEmergencyText(data),
		HTMLBody: buildEmergencyHTML(data),
	}
}

func formatRequestedAt(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.In(ist).Format("02 Jan 2006, 3:04 PM MST")
}

func buildEmergencyText(data EmergencyEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "URGENT: %s blood needed in %s\n\n", data.BloodGroup, data.District)
	fmt.Fprintf(&buf, "Urgency: %s\n", data.Urgency)
	if data.Description != "" {
		fmt.Fprintf(&buf, "Details: %s\n", data.Description)
	}
	fmt.Fprintf(&buf, "Contact: %s, %s\n", data.ContactName, data.ContactPhone)
	fmt.Fprintf(&buf, "Requested: %s\n\n", formatRequestedAt(data.RequestedAt))
	if data.ForCoordinator {
		buf.WriteString("Matching available donors in the district are being notified.\n")
	} else {
		buf.WriteString("If you are able to donate, please call the contact above as soon as possible.\n")
	}
	buf.WriteString("\n-- " + data.SiteName + "\n")
	return buf.String()
}

type emergencyView struct {
	EmergencyEmailData
	Style       UrgencyStyle
	UrgencyText string
	When        string
	TelHref     template.URL
}

var emergencyTmpl = template.Must(template.New("emergency").Parse(emergencyHTMLTemplate))

func buildEmergencyHTML(data EmergencyEmailData) string {
	v := emergencyView{
		EmergencyEmailData: data,
		Style:              StyleForUrgency(data.Urgency),
		UrgencyText:        strings.ToUpper(string(data.Urgency)),
		When:               formatRequestedAt(data.RequestedAt),
		TelHref:            template.URL("tel:" + telDigits(data.ContactPhone)),
	}
	var buf bytes.Buffer
	_ = emergencyTmpl.Execute(&buf, v)
	return buf.String()
}

// telDigits keeps only characters valid in a tel: URI.
func telDigits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			out = append(out, r)
		}
	}
	return string(out)
}

const emergencyHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Emergency Blood Request</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, Helvetica, sans-serif; background-color: #f4f4f4;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f4;">
    <tr>
      <td align="center" style="padding: 32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 600px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; background-color: #dc3545; border-radius: 8px 8px 0 0; text-align: center;">
              <h1 style="margin: 0; font-size: 22px; color: #ffffff;">🚨 Emergency Blood Request</h1>
              <p style="margin: 8px 0 0; font-size: 14px; color: #ffffff;">{{.SiteName}}</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px;">
              {{if .ForCoordinator}}
              <p style="margin: 0 0 16px; font-size: 15px; color: #333333;">A new emergency request has been filed. Matching donors are being notified.</p>
              {{else}}
              <p style="margin: 0 0 16px; font-size: 15px; color: #333333;">You are receiving this because you are a registered {{.BloodGroup}} donor in {{.District}}.</p>
              {{end}}
              <div style="background-color: {{.Style.Background}}; border-left: 4px solid {{.Style.Border}}; padding: 16px; margin-bottom: 16px;">
                <p style="margin: 0 0 8px; font-size: 18px; font-weight: bold; color: #333333;">{{.BloodGroup}} blood needed in {{.District}}</p>
                <p style="margin: 0; font-size: 14px; color: #333333;">Urgency: <strong>{{.UrgencyText}}</strong></p>
              </div>
              {{if .Description}}
              <div style="background-color: #f8f9fa; padding: 16px; margin-bottom: 16px; border-radius: 4px;">
                <p style="margin: 0 0 4px; font-size: 13px; font-weight: bold; color: #555555;">Details</p>
                <p style="margin: 0; font-size: 14px; color: #333333;">{{.Description}}</p>
              </div>
              {{end}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="margin-bottom: 16px;">
                <tr>
                  <td style="padding: 4px 0; font-size: 14px; color: #555555;">Contact</td>
                  <td style="padding: 4px 0; font-size: 14px; color: #333333;"><strong>{{.ContactName}}</strong></td>
                </tr>
                <tr>
                  <td style="padding: 4px 0; font-size: 14px; color: #555555;">Phone</td>
                  <td style="padding: 4px 0; font-size: 14px;"><a href="{{.TelHref}}" style="color: #dc3545; font-weight: bold;">{{.ContactPhone}}</a></td>
                </tr>
                <tr>
                  <td style="padding: 4px 0; font-size: 14px; color: #555555;">Requested</td>
                  <td style="padding: 4px 0; font-size: 14px; color: #333333;">{{.When}}</td>
                </tr>
              </table>
              <p style="margin: 0; font-size: 14px; color: #333333;">If you can donate, please call the contact immediately. Every minute counts.</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 16px 32px; background-color: #f8f9fa; border-radius: 0 0 8px 8px; text-align: center;">
              <p style="margin: 0; font-size: 12px; color: #888888;">{{.SiteName}} · Campus blood donor network</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
