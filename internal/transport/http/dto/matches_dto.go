package dto

import "time"

type MatchResponse struct {
	ID        string    `json:"id"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

type MatchItemResponse struct {
	ID          string          `json:"id"`
	Counterpart ProfileResponse `json:"counterpart"`
	CreatedAt   time.Time       `json:"created_at"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}

type ResolveRequest struct {
	TargetID string `json:"target_id"`
}

type ResolveResponse struct {
	OK      bool           `json:"ok"`
	Outcome string         `json:"outcome"`
	Match   *MatchResponse `json:"match,omitempty"`
}

type PairStateResponse struct {
	TargetID string `json:"target_id"`
	State    string `json:"state"`
}
