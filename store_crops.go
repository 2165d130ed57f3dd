package annotate

import "github.com/goliatone/go-annotate/pkg/activity"

// AddCropToActiveGroup appends a crop to the active group. History is saved
// first. Slot-mode groups drop their previous crop. Returns false when no
// group is active.
func (s *Store) AddCropToActiveGroup(data CropData) (Crop, bool) {
	start := s.cfg.now()
	idx := s.indexOf(s.active)
	if idx < 0 {
		s.finish(start, LogEvent{Op: "add_crop_active"}, activity.Event{})
		return Crop{}, false
	}
	s.SaveHistory()
	crop := s.appendCrop(idx, data)
	s.notify()
	s.finish(start, LogEvent{Op: "add_crop_active", GroupID: s.active, CropID: crop.ID, Changed: true},
		activity.BuildCropEvent(activity.VerbCropAdded, s.cropEventInput(s.active, crop)))
	return crop.Clone(), true
}

// AddCropToGroup appends a crop to an explicit group regardless of the
// active pointer. It does not save history; bulk callers snapshot around
// their own batch. Returns false for unknown groups.
func (s *Store) AddCropToGroup(groupID int, data CropData) (Crop, bool) {
	start := s.cfg.now()
	idx := s.indexOf(groupID)
	if idx < 0 {
		s.finish(start, LogEvent{Op: "add_crop", GroupID: groupID}, activity.Event{})
		return Crop{}, false
	}
	crop := s.appendCrop(idx, data)
	s.notify()
	s.finish(start, LogEvent{Op: "add_crop", GroupID: groupID, CropID: crop.ID, Changed: true},
		activity.BuildCropEvent(activity.VerbCropAdded, s.cropEventInput(groupID, crop)))
	return crop.Clone(), true
}

// RemoveLastCropFromActiveGroup pops the newest crop of the active group.
func (s *Store) RemoveLastCropFromActiveGroup() bool {
	start := s.cfg.now()
	idx := s.indexOf(s.active)
	if idx < 0 || len(s.groups[idx].Crops) == 0 {
		s.finish(start, LogEvent{Op: "remove_last_crop", GroupID: s.active}, activity.Event{})
		return false
	}
	s.SaveHistory()
	crops := s.groups[idx].Crops
	last := crops[len(crops)-1]
	s.groups[idx].Crops = crops[: len(crops)-1 : len(crops)-1]
	s.notify()
	s.finish(start, LogEvent{Op: "remove_last_crop", GroupID: s.active, CropID: last.ID, Changed: true},
		activity.BuildCropEvent(activity.VerbCropRemoved, s.cropEventInput(s.active, last)))
	return true
}

// UpdateCrop replaces the anchor of a crop in the active group. Crops of
// other groups are not considered.
func (s *Store) UpdateCrop(cropID string, anchor Anchor) bool {
	start := s.cfg.now()
	idx := s.indexOf(s.active)
	if idx < 0 || cropID == "" {
		s.finish(start, LogEvent{Op: "update_crop", CropID: cropID}, activity.Event{})
		return false
	}
	pos := -1
	for i, crop := range s.groups[idx].Crops {
		if crop.ID == cropID {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.finish(start, LogEvent{Op: "update_crop", GroupID: s.active, CropID: cropID}, activity.Event{})
		return false
	}
	s.SaveHistory()
	s.groups[idx].Crops[pos].Anchor = anchor.Clone()
	updated := s.groups[idx].Crops[pos]
	s.notify()
	s.finish(start, LogEvent{Op: "update_crop", GroupID: s.active, CropID: cropID, Changed: true},
		activity.BuildCropEvent(activity.VerbCropUpdated, s.cropEventInput(s.active, updated)))
	return true
}

// appendCrop assigns a fresh id and appends to the group at idx, clearing a
// slot-mode group first.
func (s *Store) appendCrop(idx int, data CropData) Crop {
	crop := Crop{
		ID:     s.cfg.cropID(),
		Anchor: data.Anchor.Clone(),
		Tipo:   data.Tipo,
	}
	group := &s.groups[idx]
	if group.Mode == ModeSlot {
		group.Crops = []Crop{}
	}
	group.Crops = append(group.Crops, crop)
	return crop
}
