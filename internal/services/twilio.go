package services

import (
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender is the outbound WhatsApp transport. Services depend on this
// interface so tests can capture sends without hitting Twilio.
type Sender interface {
	SendText(to, body string) error
	SendMedia(to, mediaURL, caption string) error
	SendVoiceNote(to, mediaURL string) error
}

// TwilioService sends WhatsApp messages through the Twilio API.
type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

func NewTwilioService(accountSID, authToken, from string) (*TwilioService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioService{client: client, from: from}, nil
}

// SendText sends a plain WhatsApp text message.
func (t *TwilioService) SendText(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp text to %s: %v", to, err)
		return err
	}

	log.Printf("✅ WhatsApp text sent! SID: %s", *resp.Sid)
	return nil
}

// SendMedia sends a media message with an optional caption.
func (t *TwilioService) SendMedia(to, mediaURL, caption string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetMediaUrl([]string{mediaURL})
	if caption != "" {
		params.SetBody(caption)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp media to %s: %v", to, err)
		return err
	}

	log.Printf("✅ WhatsApp media sent! SID: %s", *resp.Sid)
	return nil
}

// SendVoiceNote sends an audio file so WhatsApp renders it as a voice
// note. Twilio treats it as a media message with no body.
func (t *TwilioService) SendVoiceNote(to, mediaURL string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetMediaUrl([]string{mediaURL})

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp voice note to %s: %v", to, err)
		return err
	}

	log.Printf("✅ WhatsApp voice note sent! SID: %s", *resp.Sid)
	return nil
}
