// Package usersink forwards annotation activity to a go-users ActivitySink,
// so edits to question groups land in the same audit trail as user actions.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-annotate/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Identity fields that are not UUIDs are recorded as uuid.Nil and kept
// verbatim in the record data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := cloneMap(normalized.Metadata)
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID, "actor_ref", &data),
		UserID:     parseUUID(normalized.UserID, "user_ref", &data),
		TenantID:   parseUUID(normalized.TenantID, "tenant_ref", &data),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if normalized.DocumentID != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["document_id"] = normalized.DocumentID
	}
	record.Data = data

	return h.Sink.Log(ctx, record)
}

func parseUUID(input, refKey string, data *map[string]any) uuid.UUID {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err == nil {
		return id
	}
	if *data == nil {
		*data = map[string]any{}
	}
	(*data)[refKey] = value
	return uuid.Nil
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
