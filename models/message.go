package models

// Message types. System messages carry SenderID == SystemSender.
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeVoice  = "voice"
	MessageTypeSystem = "system"

	SystemSender = "system"
)

type Message struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	ChatID    string `bson:"chatId" json:"chatId"`
	SenderID  string `bson:"senderId" json:"senderId"`
	Content   string `bson:"content" json:"content"`
	Type      string `bson:"type" json:"type"`
	IsRead    bool   `bson:"isRead" json:"isRead"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
}
