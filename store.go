package annotate

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-annotate/pkg/activity"
)

// Store owns groups and crops. Every mutation flows through it, is recorded
// in history where applicable, and notifies subscribers before returning.
//
// A Store is not safe for concurrent use; hosts serialize calls the way a UI
// event loop does.
type Store struct {
	groups  []Group
	active  int
	nextID  int
	history *History
	bus     *Bus
	palette Palette
	emitter *activity.Emitter
	cfg     storeConfig
}

// New constructs an empty store. It fails on invalid configuration: a bad
// palette, a history cap below 1 or a rejected rule function.
func New(opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, err
	}
	if cfg.historyCap < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrHistoryCap, cfg.historyCap)
	}
	palette := DefaultPalette()
	if cfg.palette != nil {
		validated, err := NewPalette(cfg.palette.colors, cfg.palette.slot)
		if err != nil {
			return nil, err
		}
		palette = validated
	}
	channel := cfg.activity.Channel
	if channel == "" {
		channel = activity.DefaultChannel
	}
	return &Store{
		groups:  []Group{},
		nextID:  1,
		history: NewHistory(cfg.historyCap),
		bus:     &Bus{},
		palette: palette,
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{Enabled: cfg.activity.Enabled, Channel: channel}),
		cfg:     cfg,
	}, nil
}

// Subscribe registers fn to run after every mutation.
func (s *Store) Subscribe(fn Listener) Subscription {
	return s.bus.Subscribe(fn)
}

// Palette returns the palette used for crop colors.
func (s *Store) Palette() Palette {
	return s.palette.clone()
}

// Groups returns a deep copy of the groups in display order.
func (s *Store) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i := range s.groups {
		out[i] = s.groups[i].Clone()
	}
	return out
}

// Len returns the number of groups.
func (s *Store) Len() int {
	return len(s.groups)
}

// Group returns a copy of the group with id.
func (s *Store) Group(id int) (Group, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Group{}, false
	}
	return s.groups[idx].Clone(), true
}

// ActiveGroupID returns the active group id, or false when idle.
func (s *Store) ActiveGroupID() (int, bool) {
	return s.active, s.active != NoGroup
}

// ActiveGroup returns a copy of the active group.
func (s *Store) ActiveGroup() (Group, bool) {
	if s.active == NoGroup {
		return Group{}, false
	}
	return s.Group(s.active)
}

// Editing reports whether a group is active.
func (s *Store) Editing() bool {
	return s.active != NoGroup
}

// NextID returns the id the next created group will receive.
func (s *Store) NextID() int {
	return s.nextID
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Groups:        s.Groups(),
		ActiveGroupID: s.active,
		NextID:        s.nextID,
	}
}

// CreateGroup appends a new group, makes it active and returns a copy.
func (s *Store) CreateGroup(options GroupOptions) Group {
	start := s.cfg.now()
	group := s.appendGroup(options)
	s.active = group.ID
	s.notify()
	s.finish(start, LogEvent{Op: "create_group", GroupID: group.ID, Changed: true},
		activity.BuildGroupEvent(activity.VerbGroupCreated, s.groupEventInput(group)))
	return group.Clone()
}

// DeleteGroup removes the group with id. Unknown ids are ignored but still
// notify.
func (s *Store) DeleteGroup(id int) {
	start := s.cfg.now()
	idx := s.indexOf(id)
	var removed Group
	if idx >= 0 {
		removed = s.groups[idx]
		s.groups = append(s.groups[:idx:idx], s.groups[idx+1:]...)
		if s.active == id {
			s.active = NoGroup
		}
		s.renumberGroups()
	}
	s.notify()
	if idx < 0 {
		s.finish(start, LogEvent{Op: "delete_group", GroupID: id}, activity.Event{})
		return
	}
	s.finish(start, LogEvent{Op: "delete_group", GroupID: id, Changed: true},
		activity.BuildGroupEvent(activity.VerbGroupDeleted, s.groupEventInput(removed)))
}

// SetActiveGroup moves the active pointer. Activating a group while idle
// opens an edit session: history is reset and the baseline captured.
// Passing NoGroup while editing closes the session. Unknown ids are
// rejected so the pointer never dangles.
func (s *Store) SetActiveGroup(id int) bool {
	start := s.cfg.now()
	if id != NoGroup && s.indexOf(id) < 0 {
		s.finish(start, LogEvent{Op: "set_active_group", GroupID: id}, activity.Event{})
		return false
	}
	verb := ""
	switch {
	case id == NoGroup && s.active != NoGroup:
		s.history.ClearBaseline()
		verb = activity.VerbSessionClosed
	case id != NoGroup && s.active == NoGroup:
		s.history.Reset()
		verb = activity.VerbSessionOpened
	}
	previous := s.active
	s.active = id
	if verb == activity.VerbSessionOpened {
		s.history.SetBaseline(s.Snapshot())
	}
	s.notify()

	event := activity.Event{}
	if verb != "" {
		target := id
		if target == NoGroup {
			target = previous
		}
		event = activity.BuildHistoryEvent(verb, activity.AnnotationEventInput{
			ActorID:  s.cfg.actorID,
			GroupID:  target,
			Metadata: map[string]any{"previous_group_id": previous},
		})
	}
	s.finish(start, LogEvent{Op: "set_active_group", GroupID: id, Changed: previous != id}, event)
	return true
}

// FindGroupByExternalID resolves an external id to a group. Exact matches
// win; otherwise ids are compared after Normalize, first hit in display
// order.
func (s *Store) FindGroupByExternalID(externalID string) (Group, bool) {
	idx := matchExternalID(s.groups, externalID)
	if idx < 0 {
		return Group{}, false
	}
	return s.groups[idx].Clone(), true
}

// RemoveGroupsByPageAndStatus drops every group whose first crop sits on
// page and whose status equals status. Groups without crops are kept.
// Returns the number of removed groups.
func (s *Store) RemoveGroupsByPageAndStatus(page int, status Status) int {
	start := s.cfg.now()
	removed := s.removeWhere(func(g *Group) bool {
		first, ok := g.FirstPage()
		return ok && first == page && g.Status == status
	})
	if len(removed) == 0 {
		s.finish(start, LogEvent{Op: "remove_groups_by_page"}, activity.Event{})
		return 0
	}
	s.notify()
	s.finish(start, LogEvent{Op: "remove_groups_by_page", Changed: true},
		activity.BuildGroupsRemovedEvent(activity.AnnotationEventInput{
			ActorID: s.cfg.actorID,
			Page:    page,
			Status:  string(status),
			Metadata: map[string]any{
				"group_ids": removed,
			},
		}))
	return len(removed)
}

// AllCrops flattens every group's crops in display order, attaching the
// group color, status, effective tipo and active flag. It never mutates and
// returns an empty list, not nil, for a store without crops.
func (s *Store) AllCrops() []CropView {
	out := make([]CropView, 0)
	for i := range s.groups {
		group := &s.groups[i]
		c := s.palette.ColorOf(group)
		for _, crop := range group.Crops {
			view := CropView{
				Crop:          crop.Clone(),
				Color:         c,
				Status:        group.Status,
				GroupID:       group.ID,
				IsActiveGroup: group.ID == s.active,
			}
			if view.Tipo == "" {
				view.Tipo = group.Tipo
			}
			out = append(out, view)
		}
	}
	return out
}

// ColorOf returns the palette color of the group with id.
func (s *Store) ColorOf(id int) (color.RGBA, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return color.RGBA{}, false
	}
	return s.palette.ColorOf(&s.groups[idx]), true
}

// SetGroupStatus changes the lifecycle status of a group.
func (s *Store) SetGroupStatus(id int, status Status) bool {
	if !status.Valid() {
		return false
	}
	return s.updateGroup("set_group_status", id, func(g *Group) bool {
		if g.Status == status {
			return false
		}
		g.Status = status
		return true
	})
}

// SetGroupMode switches a group between normal and slot mode. Entering slot
// mode keeps only the most recent crop.
func (s *Store) SetGroupMode(id int, mode Mode) bool {
	return s.updateGroup("set_group_mode", id, func(g *Group) bool {
		if g.Mode == mode {
			return false
		}
		g.Mode = mode
		if mode == ModeSlot && len(g.Crops) > 1 {
			g.Crops = g.Crops[len(g.Crops)-1:]
		}
		return true
	})
}

// SetGroupExternalID assigns or clears the external id of a group.
func (s *Store) SetGroupExternalID(id int, externalID string) bool {
	externalID = strings.TrimSpace(externalID)
	return s.updateGroup("set_group_external_id", id, func(g *Group) bool {
		if g.ExternalID == externalID {
			return false
		}
		g.ExternalID = externalID
		return true
	})
}

func (s *Store) updateGroup(op string, id int, apply func(*Group) bool) bool {
	start := s.cfg.now()
	idx := s.indexOf(id)
	if idx < 0 {
		s.finish(start, LogEvent{Op: op, GroupID: id}, activity.Event{})
		return false
	}
	candidate := s.groups[idx].Clone()
	if !apply(&candidate) {
		s.finish(start, LogEvent{Op: op, GroupID: id}, activity.Event{})
		return false
	}
	s.SaveHistory()
	s.groups[idx] = candidate
	s.notify()
	s.finish(start, LogEvent{Op: op, GroupID: id, Changed: true},
		activity.BuildGroupEvent(activity.VerbGroupUpdated, s.groupEventInput(candidate)))
	return true
}

func (s *Store) appendGroup(options GroupOptions) Group {
	group := buildGroup(s.nextID, options)
	s.nextID++
	s.groups = append(s.groups, group)
	s.renumberGroups()
	return s.groups[len(s.groups)-1]
}

// removeWhere drops matching groups, clears a dangling active pointer and
// renumbers. It does not notify.
func (s *Store) removeWhere(match func(*Group) bool) []int {
	kept := s.groups[:0:0]
	var removed []int
	for i := range s.groups {
		if match(&s.groups[i]) {
			removed = append(removed, s.groups[i].ID)
			continue
		}
		kept = append(kept, s.groups[i])
	}
	if len(removed) == 0 {
		return nil
	}
	s.groups = kept
	if s.active != NoGroup && s.indexOf(s.active) < 0 {
		s.active = NoGroup
	}
	s.renumberGroups()
	return removed
}

func (s *Store) renumberGroups() {
	for i := range s.groups {
		s.groups[i].Label = labelFor(i)
	}
}

func labelFor(index int) string {
	return "Questão " + strconv.Itoa(index+1)
}

func (s *Store) indexOf(id int) int {
	if id == NoGroup {
		return -1
	}
	for i := range s.groups {
		if s.groups[i].ID == id {
			return i
		}
	}
	return -1
}

// restore replaces the state with snapshot. The id counter never moves
// backwards so ids handed out after the snapshot are not reused.
func (s *Store) restore(snapshot Snapshot) {
	restored := snapshot.Clone()
	s.groups = restored.Groups
	s.active = restored.ActiveGroupID
	if restored.NextID > s.nextID {
		s.nextID = restored.NextID
	}
}

func (s *Store) notify() {
	s.bus.Notify(s)
}

func (s *Store) since(start time.Time) time.Duration {
	return s.cfg.now().Sub(start)
}
