package models

import "time"

type Message struct {
	ID         string      `bson:"id" json:"id"`
	CaseID     string      `bson:"caseId" json:"caseId"`
	SenderID   string      `bson:"senderId" json:"senderId"`
	SenderRole string      `bson:"senderRole" json:"senderRole"`
	Body       string      `bson:"body" json:"body"`
	Attachment *Attachment `bson:"attachment,omitempty" json:"attachment,omitempty"`
	CreatedAt  time.Time   `bson:"createdAt" json:"createdAt"`
	ReadAt     *time.Time  `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

type MessageRequest struct {
	Body string `json:"body" binding:"required"`
}
