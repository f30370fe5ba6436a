package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/learnchat/internal/domain"
)

// recordEvent records an event to the store. Audit writes outlive the
// request context so a cancelled run still gets its terminal events.
func (s *Service) recordEvent(ctx context.Context, runID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payloadBytes,
	}

	return s.store.CreateEvent(context.WithoutCancel(ctx), event)
}

func (s *Service) record(ctx context.Context, runID string, eventType domain.EventType, payload interface{}) {
	if err := s.recordEvent(ctx, runID, eventType, payload); err != nil {
		s.logger.Warn("failed to record event", "runID", runID, "type", eventType, "error", err)
	}
}
