package line

// WebhookRequest is the body LINE delivers to POST /webhook.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one inbound notification record. Only the fields the pipeline
// reads are modeled; everything else in the platform payload is ignored.
type Event struct {
	Type       string   `json:"type"`
	ReplyToken string   `json:"replyToken"`
	Message    *Message `json:"message,omitempty"`
}

// Message is the message attachment of a message-type event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// IsImageMessage reports whether the event carries an image to classify.
func (e Event) IsImageMessage() bool {
	return e.Type == "message" && e.Message != nil && e.Message.Type == "image"
}

// TextMessage is the reply payload shape the Messaging API expects.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}
