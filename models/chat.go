package models

// Chat is a conversation between a customer and a seller.
type Chat struct {
	ID          string `json:"id"`
	CustomerID  string `json:"customerId"`
	SellerID    string `json:"sellerId"`
	SellerName  string `json:"sellerName,omitempty"`
	LastMessage string `json:"lastMessage,omitempty"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}
