package request

type SendNotificationRequest struct {
	UserID string            `json:"user_id" validate:"required"`
	Title  string            `json:"title" validate:"required"`
	Body   string            `json:"body" validate:"required"`
	Data   map[string]string `json:"data,omitempty"`
}
