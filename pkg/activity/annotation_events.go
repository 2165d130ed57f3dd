package activity

import (
	"strconv"
	"strings"
	"time"
)

// Verbs emitted by the annotation store.
const (
	VerbGroupCreated    = "annotation.group.created"
	VerbGroupUpdated    = "annotation.group.updated"
	VerbGroupDeleted    = "annotation.group.deleted"
	VerbGroupsRemoved   = "annotation.groups.removed"
	VerbCropAdded       = "annotation.crop.added"
	VerbCropRemoved     = "annotation.crop.removed"
	VerbCropUpdated     = "annotation.crop.updated"
	VerbHistoryUndo     = "annotation.history.undo"
	VerbHistoryRedo     = "annotation.history.redo"
	VerbSessionOpened   = "annotation.session.opened"
	VerbSessionClosed   = "annotation.session.closed"
	VerbSessionReverted = "annotation.session.reverted"
	VerbIngestApplied   = "annotation.ingest.applied"
)

// Object types carried by annotation events.
const (
	ObjectGroup   = "annotation.group"
	ObjectCrop    = "annotation.crop"
	ObjectSession = "annotation.session"
	ObjectPage    = "annotation.page"
)

// AnnotationEventInput describes the common fields for annotation events.
type AnnotationEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	DocumentID string
	Channel    string
	GroupID    int
	CropID     string
	ExternalID string
	Label      string
	Page       int
	Status     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildGroupEvent builds an event about a single group.
func BuildGroupEvent(verb string, input AnnotationEventInput) Event {
	return buildAnnotationEvent(verb, ObjectGroup, groupObjectID(input), input)
}

// BuildCropEvent builds an event about a single crop. The crop id is the
// object id; the owning group travels in metadata.
func BuildCropEvent(verb string, input AnnotationEventInput) Event {
	objectID := strings.TrimSpace(input.CropID)
	if objectID == "" {
		objectID = groupObjectID(input)
	}
	return buildAnnotationEvent(verb, ObjectCrop, objectID, input)
}

// BuildHistoryEvent builds an undo, redo or session event. The object id is
// the group being edited, or "session" when idle.
func BuildHistoryEvent(verb string, input AnnotationEventInput) Event {
	return buildAnnotationEvent(verb, ObjectSession, groupObjectID(input), input)
}

// BuildGroupsRemovedEvent builds the page scoped bulk removal event.
func BuildGroupsRemovedEvent(input AnnotationEventInput) Event {
	return buildAnnotationEvent(VerbGroupsRemoved, ObjectPage, pageObjectID(input), input)
}

// BuildIngestEvent builds the event emitted after AI proposals are merged.
func BuildIngestEvent(input AnnotationEventInput) Event {
	return buildAnnotationEvent(VerbIngestApplied, ObjectPage, pageObjectID(input), input)
}

func buildAnnotationEvent(verb, objectType, objectID string, input AnnotationEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.GroupID != 0 {
		metadata = ensureMetadata(metadata)
		metadata["group_id"] = input.GroupID
	}
	if input.CropID != "" {
		metadata = ensureMetadata(metadata)
		metadata["crop_id"] = input.CropID
	}
	if id := strings.TrimSpace(input.ExternalID); id != "" {
		metadata = ensureMetadata(metadata)
		metadata["external_id"] = id
	}
	if input.Label != "" {
		metadata = ensureMetadata(metadata)
		metadata["label"] = input.Label
	}
	if input.Page != 0 {
		metadata = ensureMetadata(metadata)
		metadata["page"] = input.Page
	}
	if input.Status != "" {
		metadata = ensureMetadata(metadata)
		metadata["status"] = input.Status
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		DocumentID: strings.TrimSpace(input.DocumentID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func groupObjectID(input AnnotationEventInput) string {
	if input.GroupID != 0 {
		return strconv.Itoa(input.GroupID)
	}
	return "session"
}

func pageObjectID(input AnnotationEventInput) string {
	return "page:" + strconv.Itoa(input.Page)
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
