package api

type ErrorResponse struct {
	Error   string            `json:"error" example:"slot already reserved"`
	Kind    string            `json:"kind" example:"slot_already_reserved"`
	Details []ValidationError `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"up"`
	// EmailQueue is the number of notifications waiting to be sent.
	EmailQueue int64 `json:"email_queue" example:"0"`
}
