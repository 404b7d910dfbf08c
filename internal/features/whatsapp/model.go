package whatsapp

import (
	"time"
)

type Channel string

const (
	ChannelOfficial   Channel = "official"
	ChannelUnofficial Channel = "unofficial"
)

// Message is an inbound WhatsApp message normalized across channels
type Message struct {
	ID            string    `json:"id"`
	Channel       Channel   `json:"channel"`
	ExternalID    string    `json:"externalId"`
	PhoneNumberID string    `json:"phoneNumberId,omitempty"`
	Session       string    `json:"session,omitempty"`
	From          string    `json:"from"`
	To            string    `json:"to,omitempty"`
	ContactName   string    `json:"contactName,omitempty"`
	Type          string    `json:"type"`
	Text          string    `json:"text,omitempty"`
	FromMe        bool      `json:"fromMe"`
	Status        string    `json:"status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

type MessageFilter struct {
	Channel Channel `query:"channel" validate:"omitempty,oneof=official unofficial"`
	Contact string  `query:"contact"`
	Limit   int     `query:"limit" validate:"omitempty,min=1,max=1000"`
}

// Cloud API webhook payload
type cloudPayload struct {
	Object string       `json:"object"`
	Entry  []cloudEntry `json:"entry"`
}

type cloudEntry struct {
	ID      string        `json:"id"`
	Changes []cloudChange `json:"changes"`
}

type cloudChange struct {
	Field string     `json:"field"`
	Value cloudValue `json:"value"`
}

type cloudValue struct {
	MessagingProduct string         `json:"messaging_product"`
	Metadata         cloudMetadata  `json:"metadata"`
	Contacts         []cloudContact `json:"contacts,omitempty"`
	Messages         []cloudMessage `json:"messages,omitempty"`
	Statuses         []cloudStatus  `json:"statuses,omitempty"`
}

type cloudMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type cloudContact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

type cloudMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image    *cloudMedia `json:"image,omitempty"`
	Video    *cloudMedia `json:"video,omitempty"`
	Document *cloudMedia `json:"document,omitempty"`
	Button   *struct {
		Text string `json:"text"`
	} `json:"button,omitempty"`
}

type cloudMedia struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

type cloudStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Session API webhook payload
type sessionPayload struct {
	Session string         `json:"session"`
	Event   string         `json:"event"`
	Data    sessionMessage `json:"data"`
}

type sessionMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Type      string `json:"type"`
	FromMe    bool   `json:"fromMe"`
	Timestamp int64  `json:"timestamp"`
	PushName  string `json:"pushName"`
}
