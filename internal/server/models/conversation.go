package models

const (
	SenderUser   = "user"
	SenderSystem = "system"
)

// Turn is one message of the client-held chat transcript.
type Turn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
