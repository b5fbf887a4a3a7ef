package dto

import (
	"identity/internal/intent"
	"identity/internal/session"
)

// ChatRequest is a single user message for the conversational endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse returns the collaborator's structured intent plus the turns
// currently held in session memory.
type ChatResponse struct {
	Intent  intent.Result  `json:"intent"`
	History []session.Turn `json:"history"`
}
