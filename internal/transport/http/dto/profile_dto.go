package dto

import "time"

type ProfileResponse struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    *string   `json:"avatar_url"`
	Description  string    `json:"description,omitempty"`
	Interests    []string  `json:"interests"`
	Language     string    `json:"language,omitempty"`
	Timezone     string    `json:"timezone,omitempty"`
	Availability string    `json:"availability,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileUpdateRequest is a partial update; absent fields keep their stored value.
type ProfileUpdateRequest struct {
	DisplayName  *string   `json:"display_name"`
	AvatarURL    *string   `json:"avatar_url"`
	Description  *string   `json:"description"`
	Interests    *[]string `json:"interests"`
	Language     *string   `json:"language"`
	Timezone     *string   `json:"timezone"`
	Availability *string   `json:"availability"`
}
