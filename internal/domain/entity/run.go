package entity

import "sort"

// Reserved event names. Every run is expected to carry at most one of each;
// any other event name is an intermediate marker.
const (
	EventStart = "start"
	EventEnd   = "end"
)

// EventMark is one named point in a measured run: the event, the wall-clock
// second it maps to, and the frame that captured it.
type EventMark struct {
	Name      string  `json:"event"`
	TimeSeq   float64 `json:"time_seq"`
	FramePath string  `json:"frame_fp,omitempty"`
	ImagePath string  `json:"image_fp,omitempty"`
}

// RunResult is the canonical output of the timing generators for one run:
// event marks ordered by capture time, plus the collaborator-computed
// visual-completeness indices when available.
type RunResult struct {
	Events               []EventMark `json:"running_time_result"`
	SpeedIndex           float64     `json:"speed_index,omitempty"`
	PerceptualSpeedIndex float64     `json:"perceptual_speed_index,omitempty"`
}

// Find returns the mark with the given event name.
func (r *RunResult) Find(name string) (EventMark, bool) {
	for _, ev := range r.Events {
		if ev.Name == name {
			return ev, true
		}
	}
	return EventMark{}, false
}

// RunTime is the measured duration in seconds. A run missing either marker,
// or whose end does not follow its start, measures zero.
func (r *RunResult) RunTime() float64 {
	start, okS := r.Find(EventStart)
	end, okE := r.Find(EventEnd)
	if !okS || !okE {
		return 0
	}
	if end.TimeSeq <= start.TimeSeq {
		return 0
	}
	return end.TimeSeq - start.TimeSeq
}

// RelativeTimes maps every intermediate event to its offset from the start
// marker. Start and end themselves are excluded.
func (r *RunResult) RelativeTimes() map[string]float64 {
	start, ok := r.Find(EventStart)
	if !ok {
		return nil
	}
	rel := make(map[string]float64)
	for _, ev := range r.Events {
		if ev.Name == EventStart || ev.Name == EventEnd {
			continue
		}
		d := ev.TimeSeq - start.TimeSeq
		if d < 0 {
			d = -d
		}
		rel[ev.Name] = d
	}
	if len(rel) == 0 {
		return nil
	}
	return rel
}

// Merge folds another generator's contribution into this result. A mark with
// an already-present event name replaces the earlier one; the event sequence
// stays ordered by capture time.
func (r *RunResult) Merge(other *RunResult) {
	if other == nil {
		return
	}
	for _, ev := range other.Events {
		replaced := false
		for i := range r.Events {
			if r.Events[i].Name == ev.Name {
				r.Events[i] = ev
				replaced = true
				break
			}
		}
		if !replaced {
			r.Events = append(r.Events, ev)
		}
	}
	sort.SliceStable(r.Events, func(i, j int) bool {
		return r.Events[i].TimeSeq < r.Events[j].TimeSeq
	})
	if other.SpeedIndex != 0 {
		r.SpeedIndex = other.SpeedIndex
	}
	if other.PerceptualSpeedIndex != 0 {
		r.PerceptualSpeedIndex = other.PerceptualSpeedIndex
	}
}

// Empty reports whether no generator contributed any mark.
func (r *RunResult) Empty() bool {
	return r == nil || len(r.Events) == 0
}
