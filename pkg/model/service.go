package model

import "time"

// request and response messages of the strategy service
type (
	CalculateRequest struct {
		Input     Input  `json:"input"`
		Requester string `json:"requester,omitempty"`
	}
	CalculateResponse struct {
		Plan *Plan `json:"plan"`
	}
	GetPlanRequest struct {
		ID string `json:"id"`
	}
	GetPlanResponse struct {
		Plan *Plan `json:"plan"`
	}
	ListPlansRequest struct {
		Source    string `json:"source,omitempty"`
		Requester string `json:"requester,omitempty"`
		Limit     int    `json:"limit,omitempty"`
	}
	ListPlansResponse struct {
		Plans []*Plan `json:"plans"`
	}
	DeletePlanRequest struct {
		ID string `json:"id"`
	}
	DeletePlanResponse struct {
		Deleted int `json:"deleted"`
	}
	// PurgePlansRequest removes all plans created before OlderThan
	PurgePlansRequest struct {
		OlderThan time.Time `json:"olderThan"`
	}
	PurgePlansResponse struct {
		Deleted int `json:"deleted"`
	}
)
