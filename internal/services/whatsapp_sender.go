package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a response to a phone number and returns the
// provider-assigned message id.
type Sender interface {
	Send(ctx context.Context, to string, response Response) (string, error)
}

// TwilioSender sends WhatsApp messages through the Twilio REST API.
// Interactive responses are rendered as numbered text menus, which is
// what the sandbox supports without pre-registered content templates.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a Twilio-backed sender. from uses the
// "whatsapp:+14155238886" format.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}, nil
}

func (t *TwilioSender) Send(ctx context.Context, to string, response Response) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo("whatsapp:" + to)
	params.SetBody(renderBody(response))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message to %s: %v", to, err)
		return "", err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return "", fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Printf("✅ WhatsApp message sent to %s, SID: %s", to, sid)
	return sid, nil
}

// renderBody flattens the response union into a WhatsApp text body.
// The switch is exhaustive over the three shapes.
func renderBody(response Response) string {
	switch r := response.(type) {
	case *TextResponse:
		return r.Text

	case *ButtonsResponse:
		var b strings.Builder
		if r.Header != "" {
			b.WriteString("*" + r.Header + "*\n\n")
		}
		b.WriteString(r.Text)
		for i, button := range r.Buttons {
			b.WriteString(fmt.Sprintf("\n%d️⃣ %s", i+1, button.Title))
		}
		if r.Footer != "" {
			b.WriteString("\n\n_" + r.Footer + "_")
		}
		return b.String()

	case *ListResponse:
		var b strings.Builder
		if r.Header != "" {
			b.WriteString("*" + r.Header + "*\n\n")
		}
		b.WriteString(r.Text)
		index := 1
		for _, section := range r.Sections {
			if section.Title != "" {
				b.WriteString("\n\n*" + section.Title + "*")
			}
			for _, row := range section.Rows {
				b.WriteString(fmt.Sprintf("\n%d. %s", index, row.Title))
				if row.Description != "" {
					b.WriteString(" · " + row.Description)
				}
				index++
			}
		}
		if r.Footer != "" {
			b.WriteString("\n\n_" + r.Footer + "_")
		}
		return b.String()
	}
	return ""
}

// LogSender logs outbound messages instead of sending them. Used when
// Twilio is not configured, so local development still shows replies.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to string, response Response) (string, error) {
	log.Printf("📤 Response to %s (not sent - Twilio not configured): %s", to, renderBody(response))
	return "", nil
}
