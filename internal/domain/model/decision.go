package model

import (
	"time"

	"github.com/locazos/stream-mate-match/internal/domain/enums"
)

type SwipeDecision struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id"`
	TargetID  string          `json:"target_id"`
	Direction enums.Direction `json:"direction"`
	CreatedAt time.Time       `json:"created_at"`
}
