package dto

type SendMessageRequest struct {
	RoomID         string `json:"roomId"`
	Content        string `json:"content"`
	AttachmentURL  string `json:"attachmentUrl,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}
