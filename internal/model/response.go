package model

// APIResponse is the uniform envelope for every JSON response. Success
// responses carry data (and a count for lists); failures carry only a
// message.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
