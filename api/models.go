package api

import "github.com/jmcleod/waypoint/navigator"

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InitSessionRequest creates a session for a user.
type InitSessionRequest struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// NavigateRequest drives one navigation attempt.
type NavigateRequest struct {
	Target string `json:"target"`
	Source string `json:"source"`
	Action string `json:"action"`
}

// NavigateResponse reports where the attempt landed.
type NavigateResponse struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
}

// BackResponse reports the outcome of a back navigation.
type BackResponse struct {
	Popped  bool   `json:"popped"`
	Current string `json:"current"`
}

// StateResponse is a snapshot of the navigation state tracker.
type StateResponse struct {
	Current         string                 `json:"current"`
	Previous        string                 `json:"previous"`
	CanNavigateBack bool                   `json:"can_navigate_back"`
	IsNavigating    bool                   `json:"is_navigating"`
	History         []navigator.Transition `json:"history"`
}
