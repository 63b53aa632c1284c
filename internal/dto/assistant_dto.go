package dto

// AssistantRequest is the question sent to the AI assistant. Field names follow the public client contract.
type AssistantRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`
}

// AssistantResponse carries the generated answer.
type AssistantResponse struct {
	Response string `json:"response"`
}

// AssistantErrorResponse is returned with a non-2xx status by the assistant endpoint.
type AssistantErrorResponse struct {
	Error string `json:"error"`
}
