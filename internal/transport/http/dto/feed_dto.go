package dto

type FeedResponse struct {
	Items     []ProfileResponse `json:"items"`
	Exhausted bool              `json:"exhausted"`
}

type FeedNextResponse struct {
	Profile       *ProfileResponse `json:"profile"`
	Exhausted     bool             `json:"exhausted"`
	RetryAfterSec int64            `json:"retry_after_sec,omitempty"`
}
