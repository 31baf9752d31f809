package types

// ChatMessage is one message on a chat board. TS is epoch milliseconds.
type ChatMessage struct {
	ID     string `json:"id"`
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
	TS     int64  `json:"ts"`
}

// ChatBoard stores its own messages.
type ChatBoard struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
}
