package state

import "sort"

// Area is one sub-interval of a decomposed region.
type Area struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Region is a user-defined time interval over which aggregate metrics are
// computed. Start < End is enforced by normalizing min/max on write. A region
// may be decomposed into multiple non-overlapping sub-areas; a nil Areas
// slice means the single implicit area [Start, End].
type Region struct {
	ID         int64          `json:"id"`
	PositionID string         `json:"positionId"`
	Start      float64        `json:"start"`
	End        float64        `json:"end"`
	Note       string         `json:"note,omitempty"`
	Metrics    *RegionMetrics `json:"metrics,omitempty"`
	Areas      []Area         `json:"areas,omitempty"`
}

// AreaList returns the region's sub-areas, materializing the implicit
// single area when none are stored.
func (r Region) AreaList() []Area {
	if len(r.Areas) > 0 {
		return r.Areas
	}
	return []Area{{Start: r.Start, End: r.End}}
}

// Contains reports whether the timestamp falls inside the region's overall
// interval (inclusive).
func (r Region) Contains(ts float64) bool {
	return ts >= r.Start && ts <= r.End
}

// AreaAt returns the index of the sub-area containing the timestamp, or -1.
func (r Region) AreaAt(ts float64) int {
	for i, a := range r.AreaList() {
		if ts >= a.Start && ts <= a.End {
			return i
		}
	}
	return -1
}

// RegionsState holds all regions, the monotonic id counter and the current
// selection. SelectedID is 0 when nothing is selected; ids start at 1.
type RegionsState struct {
	Items      []Region `json:"items"`
	SelectedID int64    `json:"selectedId"`
	NextID     int64    `json:"nextId"`
}

// ByID returns the region with the given id.
func (s RegionsState) ByID(id int64) (Region, bool) {
	for _, r := range s.Items {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

func defaultRegionsState() RegionsState {
	return RegionsState{NextID: 1}
}

func reduceRegions(s RegionsState, a Action) RegionsState {
	switch a.Type {
	case TypeRegionAdded:
		p, ok := a.Payload.(RegionAddPayload)
		if !ok {
			return s
		}
		start, end := p.Start, p.End
		if start > end {
			start, end = end, start
		}
		next := s
		next.Items = append(append([]Region(nil), s.Items...), Region{
			ID:         s.NextID,
			PositionID: p.PositionID,
			Start:      start,
			End:        end,
			Note:       p.Note,
		})
		next.NextID = s.NextID + 1
		return next

	case TypeRegionUpdated:
		p, ok := a.Payload.(RegionUpdatePayload)
		if !ok {
			return s
		}
		return updateRegion(s, p.ID, func(r Region) Region {
			if p.PositionID != nil {
				r.PositionID = *p.PositionID
			}
			if p.Start != nil {
				r.Start = *p.Start
			}
			if p.End != nil {
				r.End = *p.End
			}
			if r.Start > r.End {
				r.Start, r.End = r.End, r.Start
			}
			if p.Note != nil {
				r.Note = *p.Note
			}
			if len(p.Areas) > 0 {
				areas := append([]Area(nil), p.Areas...)
				sort.Slice(areas, func(i, j int) bool { return areas[i].Start < areas[j].Start })
				r.Areas = areas
				r.Start = areas[0].Start
				r.End = areas[len(areas)-1].End
			}
			return r
		})

	case TypeRegionRemoved:
		p, ok := a.Payload.(IDPayload)
		if !ok {
			return s
		}
		return removeRegion(s, p.ID)

	case TypeRegionsCleared:
		if len(s.Items) == 0 && s.SelectedID == 0 {
			return s
		}
		next := s
		next.Items = nil
		next.SelectedID = 0
		return next

	case TypeRegionSelected:
		p, ok := a.Payload.(IDPayload)
		if !ok {
			return s
		}
		next := s
		if _, found := s.ByID(p.ID); found {
			next.SelectedID = p.ID
		} else {
			next.SelectedID = 0
		}
		return next

	case TypeRegionSelectionCleared:
		if s.SelectedID == 0 {
			return s
		}
		next := s
		next.SelectedID = 0
		return next

	case TypeRegionNoteSet:
		p, ok := a.Payload.(NotePayload)
		if !ok {
			return s
		}
		return updateRegion(s, p.ID, func(r Region) Region {
			r.Note = p.Note
			return r
		})

	case TypeRegionMetricsSet:
		p, ok := a.Payload.(RegionMetricsPayload)
		if !ok {
			return s
		}
		return updateRegion(s, p.ID, func(r Region) Region {
			r.Metrics = p.Metrics
			return r
		})

	case TypeRegionAreaRemoved:
		p, ok := a.Payload.(RegionAreaRemovePayload)
		if !ok {
			return s
		}
		region, found := s.ByID(p.ID)
		if !found {
			return s
		}
		areas := region.AreaList()
		if p.Index < 0 || p.Index >= len(areas) {
			return s
		}
		// Removing the last remaining sub-area deletes the whole region.
		if len(areas) == 1 {
			return removeRegion(s, p.ID)
		}
		remaining := make([]Area, 0, len(areas)-1)
		remaining = append(remaining, areas[:p.Index]...)
		remaining = append(remaining, areas[p.Index+1:]...)
		return updateRegion(s, p.ID, func(r Region) Region {
			r.Areas = remaining
			r.Start = remaining[0].Start
			r.End = remaining[len(remaining)-1].End
			return r
		})

	case TypeRegionsReplaced:
		p, ok := a.Payload.(RegionsReplacePayload)
		if !ok {
			return s
		}
		next := s
		items := make([]Region, 0, len(p.Regions))
		for _, r := range p.Regions {
			if r.Start > r.End {
				r.Start, r.End = r.End, r.Start
			}
			items = append(items, r)
		}
		next.Items = items
		next.SelectedID = 0
		for _, r := range items {
			if r.ID >= next.NextID {
				next.NextID = r.ID + 1
			}
		}
		return next

	default:
		return s
	}
}

func removeRegion(s RegionsState, id int64) RegionsState {
	items := make([]Region, 0, len(s.Items))
	removed := false
	for _, r := range s.Items {
		if r.ID == id {
			removed = true
			continue
		}
		items = append(items, r)
	}
	if !removed {
		return s
	}
	next := s
	next.Items = items
	if next.SelectedID == id {
		next.SelectedID = 0
	}
	return next
}

func updateRegion(s RegionsState, id int64, apply func(Region) Region) RegionsState {
	idx := -1
	for i, r := range s.Items {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	items := append([]Region(nil), s.Items...)
	items[idx] = apply(items[idx])
	next := s
	next.Items = items
	return next
}
