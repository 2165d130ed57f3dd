package annotate

import (
	"image/color"
	"strings"

	"github.com/goliatone/go-annotate/internal/clone"
)

// NoGroup is the zero group id. Group ids start at 1, so NoGroup doubles as
// the "no active group" marker.
const NoGroup = 0

// DefaultTipo is the classification applied to groups created without one.
const DefaultTipo = "questao_completa"

// Status tracks the display lifecycle of a group.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusVerified Status = "verified"
	StatusSent     Status = "sent"
)

// Valid reports whether s is one of the known lifecycle values.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusVerified, StatusSent:
		return true
	default:
		return false
	}
}

// Tag strings recognised as behavioral switches.
const (
	TagManual   = "manual"
	TagAI       = "ia"
	TagReviewed = "revisada"
	TagSlotMode = "slot-mode"
	TagNew      = "NOVO"
)

// Origin records where a group came from.
type Origin int

const (
	OriginManual Origin = iota
	OriginAI
	OriginReviewed
)

func (o Origin) String() string {
	switch o {
	case OriginAI:
		return TagAI
	case OriginReviewed:
		return TagReviewed
	default:
		return TagManual
	}
}

// Mode selects how a group accepts new crops.
type Mode int

const (
	// ModeNormal appends every new crop.
	ModeNormal Mode = iota
	// ModeSlot keeps a single crop; adding one replaces the previous.
	ModeSlot
)

func (m Mode) String() string {
	if m == ModeSlot {
		return TagSlotMode
	}
	return "normal"
}

// Anchor locates a crop on a rendered page. The engine only reads Page; the
// geometry and Meta are forwarded untouched to renderers and exporters.
type Anchor struct {
	Page   int            `json:"page"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Clone returns a copy of a with Meta detached from the original.
func (a Anchor) Clone() Anchor {
	out := a
	out.Meta = clone.Map(a.Meta)
	return out
}

// CropData is the caller supplied part of a crop.
type CropData struct {
	Anchor Anchor `json:"anchor"`
	Tipo   string `json:"tipo,omitempty"`
}

// Crop is a single drawn region.
type Crop struct {
	ID     string `json:"id"`
	Anchor Anchor `json:"anchor"`
	Tipo   string `json:"tipo,omitempty"`
}

func (c Crop) Clone() Crop {
	out := c
	out.Anchor = c.Anchor.Clone()
	return out
}

// Group is a logical question made of one or more crops.
type Group struct {
	ID         int      `json:"id"`
	Label      string   `json:"label"`
	Crops      []Crop   `json:"crops"`
	Origin     Origin   `json:"origin"`
	Mode       Mode     `json:"mode"`
	Tags       []string `json:"tags,omitempty"`
	ExternalID string   `json:"external_id,omitempty"`
	Tipo       string   `json:"tipo"`
	Status     Status   `json:"status"`
}

// Clone returns a deep copy of g.
func (g Group) Clone() Group {
	out := g
	out.Crops = make([]Crop, len(g.Crops))
	for i := range g.Crops {
		out.Crops[i] = g.Crops[i].Clone()
	}
	if g.Tags != nil {
		out.Tags = append([]string(nil), g.Tags...)
	}
	return out
}

// HasTag reports whether tag applies to the group, either as one of the
// behavioral variants or as a cosmetic tag.
func (g Group) HasTag(tag string) bool {
	switch tag {
	case TagSlotMode:
		return g.Mode == ModeSlot
	case TagManual, TagAI, TagReviewed:
		return g.Origin.String() == tag
	}
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AllTags lists origin, mode (when slot) and cosmetic tags in that order.
func (g Group) AllTags() []string {
	tags := []string{g.Origin.String()}
	if g.Mode == ModeSlot {
		tags = append(tags, TagSlotMode)
	}
	return append(tags, g.Tags...)
}

// FirstPage returns the page of the first crop, or false for an empty group.
func (g Group) FirstPage() (int, bool) {
	if len(g.Crops) == 0 {
		return 0, false
	}
	return g.Crops[0].Anchor.Page, true
}

// GroupOptions configures CreateGroup. Behavioral tag strings in Tags are
// folded into Origin and Mode; the rest are kept as cosmetic tags.
type GroupOptions struct {
	Origin     Origin
	Mode       Mode
	Tags       []string
	ExternalID string
	Tipo       string
	Status     Status
}

// Snapshot is a deep copy of the store state used by history and revert.
type Snapshot struct {
	Groups        []Group `json:"groups"`
	ActiveGroupID int     `json:"active_group_id"`
	NextID        int     `json:"next_id"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		ActiveGroupID: s.ActiveGroupID,
		NextID:        s.NextID,
		Groups:        make([]Group, len(s.Groups)),
	}
	for i := range s.Groups {
		out.Groups[i] = s.Groups[i].Clone()
	}
	return out
}

// CropView is the flattened, render ready projection of a crop.
type CropView struct {
	Crop
	Color         color.RGBA `json:"color"`
	Status        Status     `json:"status"`
	GroupID       int        `json:"group_id"`
	IsActiveGroup bool       `json:"is_active_group"`
}

// Hex returns the view color as #rrggbb.
func (v CropView) Hex() string {
	return Hex(v.Color)
}

func buildGroup(id int, options GroupOptions) Group {
	origin, mode, cosmetic := parseTags(options.Origin, options.Mode, options.Tags)
	status := options.Status
	if !status.Valid() {
		status = StatusDraft
	}
	tipo := strings.TrimSpace(options.Tipo)
	if tipo == "" {
		tipo = DefaultTipo
	}
	return Group{
		ID:         id,
		Crops:      []Crop{},
		Origin:     origin,
		Mode:       mode,
		Tags:       cosmetic,
		ExternalID: strings.TrimSpace(options.ExternalID),
		Tipo:       tipo,
		Status:     status,
	}
}

func parseTags(origin Origin, mode Mode, tags []string) (Origin, Mode, []string) {
	var cosmetic []string
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		switch tag {
		case "":
			continue
		case TagManual:
			origin = OriginManual
		case TagAI:
			origin = OriginAI
		case TagReviewed:
			origin = OriginReviewed
		case TagSlotMode:
			mode = ModeSlot
		default:
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			cosmetic = append(cosmetic, tag)
		}
	}
	return origin, mode, cosmetic
}
