package state

// Marker is a user-placed point annotation at a specific timestamp and,
// optionally, a measurement position.
type Marker struct {
	ID         int64          `json:"id"`
	Timestamp  float64        `json:"timestamp"`
	PositionID string         `json:"positionId,omitempty"`
	Note       string         `json:"note,omitempty"`
	Color      string         `json:"color,omitempty"`
	Metrics    *MarkerMetrics `json:"metrics,omitempty"`
}

// MarkersState holds all markers, the monotonic id counter and the current
// selection. SelectedID is 0 when nothing is selected; ids start at 1.
type MarkersState struct {
	Items      []Marker `json:"items"`
	SelectedID int64    `json:"selectedId"`
	NextID     int64    `json:"nextId"`
}

// ByID returns the marker with the given id.
func (s MarkersState) ByID(id int64) (Marker, bool) {
	for _, m := range s.Items {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

func defaultMarkersState() MarkersState {
	return MarkersState{NextID: 1}
}

func reduceMarkers(s MarkersState, a Action) MarkersState {
	switch a.Type {
	case TypeMarkerAdded:
		p, ok := a.Payload.(MarkerAddPayload)
		if !ok {
			return s
		}
		next := s
		next.Items = append(append([]Marker(nil), s.Items...), Marker{
			ID:         s.NextID,
			Timestamp:  p.Timestamp,
			PositionID: p.PositionID,
			Note:       p.Note,
			Color:      p.Color,
		})
		next.NextID = s.NextID + 1
		return next

	case TypeMarkerUpdated:
		p, ok := a.Payload.(MarkerUpdatePayload)
		if !ok {
			return s
		}
		return updateMarker(s, p.ID, func(m Marker) Marker {
			if p.Timestamp != nil {
				m.Timestamp = *p.Timestamp
			}
			if p.PositionID != nil {
				m.PositionID = *p.PositionID
			}
			if p.Note != nil {
				m.Note = *p.Note
			}
			if p.Color != nil {
				m.Color = *p.Color
			}
			return m
		})

	case TypeMarkerRemoved:
		p, ok := a.Payload.(IDPayload)
		if !ok {
			return s
		}
		items := make([]Marker, 0, len(s.Items))
		removed := false
		for _, m := range s.Items {
			if m.ID == p.ID {
				removed = true
				continue
			}
			items = append(items, m)
		}
		if !removed {
			return s
		}
		next := s
		next.Items = items
		if next.SelectedID == p.ID {
			next.SelectedID = 0
		}
		return next

	case TypeMarkersCleared:
		if len(s.Items) == 0 && s.SelectedID == 0 {
			return s
		}
		next := s
		next.Items = nil
		next.SelectedID = 0
		return next

	case TypeMarkerSelected:
		p, ok := a.Payload.(IDPayload)
		if !ok {
			return s
		}
		next := s
		// Selection of a non-existent id normalizes to no selection.
		if _, found := s.ByID(p.ID); found {
			next.SelectedID = p.ID
		} else {
			next.SelectedID = 0
		}
		return next

	case TypeMarkerSelectionCleared:
		if s.SelectedID == 0 {
			return s
		}
		next := s
		next.SelectedID = 0
		return next

	case TypeMarkerNoteSet:
		p, ok := a.Payload.(NotePayload)
		if !ok {
			return s
		}
		return updateMarker(s, p.ID, func(m Marker) Marker {
			m.Note = p.Note
			return m
		})

	case TypeMarkerMetricsSet:
		p, ok := a.Payload.(MarkerMetricsPayload)
		if !ok {
			return s
		}
		return updateMarker(s, p.ID, func(m Marker) Marker {
			m.Metrics = p.Metrics
			return m
		})

	case TypeMarkersReplaced:
		p, ok := a.Payload.(MarkersReplacePayload)
		if !ok {
			return s
		}
		next := s
		next.Items = append([]Marker(nil), p.Markers...)
		next.SelectedID = 0
		// Keep the counter ahead of every imported id so ids stay unique.
		for _, m := range p.Markers {
			if m.ID >= next.NextID {
				next.NextID = m.ID + 1
			}
		}
		return next

	default:
		return s
	}
}

func updateMarker(s MarkersState, id int64, apply func(Marker) Marker) MarkersState {
	idx := -1
	for i, m := range s.Items {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	items := append([]Marker(nil), s.Items...)
	items[idx] = apply(items[idx])
	next := s
	next.Items = items
	return next
}
