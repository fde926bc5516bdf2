package model

// StimulusRequest injects a free-text stimulus through the control API.
type StimulusRequest struct {
	Text string `json:"text" binding:"required"`
}

type StimulusResponse struct {
	Queued  bool `json:"queued"`
	Pending int  `json:"pending"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
