package annotate

import (
	"context"
	"time"

	"github.com/goliatone/go-annotate/pkg/activity"
)

// ActivityHooks returns a copy of the configured activity hooks.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.cfg.hooks)
}

// finish logs the operation and emits event when it carries a verb. Hook
// failures never fail the operation; they are reported to the logger.
func (s *Store) finish(start time.Time, entry LogEvent, event activity.Event) {
	entry.Duration = s.since(start)
	s.cfg.logger.LogEvent(entry)
	if event.Verb == "" || !s.emitter.Enabled() {
		return
	}
	if event.ActorID == "" {
		event.ActorID = s.cfg.actorID
	}
	if event.DocumentID == "" {
		event.DocumentID = s.cfg.documentID
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.cfg.now()
	}
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.cfg.logger.LogEvent(LogEvent{Op: "activity", GroupID: entry.GroupID, CropID: entry.CropID, Err: err})
	}
}

func (s *Store) groupEventInput(group Group) activity.AnnotationEventInput {
	page, _ := group.FirstPage()
	return activity.AnnotationEventInput{
		ActorID:    s.cfg.actorID,
		GroupID:    group.ID,
		ExternalID: group.ExternalID,
		Label:      group.Label,
		Page:       page,
		Status:     string(group.Status),
		Metadata: map[string]any{
			"crops":  len(group.Crops),
			"origin": group.Origin.String(),
			"mode":   group.Mode.String(),
		},
	}
}

func (s *Store) cropEventInput(groupID int, crop Crop) activity.AnnotationEventInput {
	return activity.AnnotationEventInput{
		ActorID: s.cfg.actorID,
		GroupID: groupID,
		CropID:  crop.ID,
		Page:    crop.Anchor.Page,
	}
}
