package dto

type SwipeRequest struct {
	TargetID  string `json:"target_id"`
	Direction string `json:"direction"`
}

type SwipeResponse struct {
	OK              bool           `json:"ok"`
	AlreadyRecorded bool           `json:"already_recorded"`
	Direction       string         `json:"direction"`
	MatchCreated    bool           `json:"match_created"`
	Match           *MatchResponse `json:"match,omitempty"`
}
