package reports

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dalemusser/codetrackr/internal/domain/models"
)

const (
	slotCount   = 12
	slotMinutes = 10
)

// Slot is one ten-minute bucket of the drill-down chart.
type Slot struct {
	Label string `json:"label"`
	Lines int64  `json:"lines"`
}

// LanguageMinutes is the time and line churn in one language inside a slot window.
type LanguageMinutes struct {
	Language string  `json:"_id"`
	Minutes  float64 `json:"minutes"`
	Lines    int64   `json:"lines"`
}

// TimeSlotReport is the ten-minute drill-down of a two hour window.
type TimeSlotReport struct {
	TotalMinutes   int64             `json:"totalMinutes"`
	TotalLines     int64             `json:"totalLines"`
	FileCount      int               `json:"fileCount"`
	Productivity   int               `json:"productivity"`
	TenMinuteSlots []Slot            `json:"tenMinuteSlots"`
	Languages      []LanguageMinutes `json:"languages"`
	ActivityCount  int               `json:"activityCount"`
}

// TimeSlotWindow returns [start, end) for the hours startHour..endHour of the
// caller's current day. endHour is normally startHour+2 but is not checked.
func TimeSlotWindow(now time.Time, startHour, endHour, tzOffset int) (time.Time, time.Time) {
	midnight := UserMidnight(now, tzOffset)
	return midnight.Add(time.Duration(startHour) * time.Hour),
		midnight.Add(time.Duration(endHour) * time.Hour)
}

// TimeSlot builds the drill-down for records that fall in a window starting
// at start. startHour only drives the slot labels.
func TimeSlot(records []models.Activity, start time.Time, startHour int) TimeSlotReport {
	rep := TimeSlotReport{
		TenMinuteSlots: SlotLabels(startHour),
		Languages:      []LanguageMinutes{},
		ActivityCount:  len(records),
	}

	var minutes float64
	files := make(map[string]struct{})
	byLang := make(map[string]int)
	for _, a := range records {
		changed := a.LinesChanged()
		minutes += float64(a.Duration) / 60
		rep.TotalLines += changed
		files[a.FileName] = struct{}{}

		idx := int(math.Floor(a.Timestamp.Sub(start).Minutes())) / slotMinutes
		if a.Timestamp.Before(start) {
			idx = -1
		}
		if idx >= 0 && idx < slotCount {
			rep.TenMinuteSlots[idx].Lines += changed
		}

		lang := a.LanguageOrUnknown()
		i, ok := byLang[lang]
		if !ok {
			i = len(rep.Languages)
			byLang[lang] = i
			rep.Languages = append(rep.Languages, LanguageMinutes{Language: lang})
		}
		rep.Languages[i].Minutes += float64(a.Duration) / 60
		rep.Languages[i].Lines += changed
	}

	sort.SliceStable(rep.Languages, func(i, j int) bool {
		return rep.Languages[i].Minutes > rep.Languages[j].Minutes
	})

	rep.TotalMinutes = int64(roundHalfUp(minutes))
	rep.FileCount = len(files)
	if len(records) > 0 {
		p := roundHalfUp(float64(rep.TotalLines) / float64(len(records)) * 2)
		rep.Productivity = int(math.Min(100, p))
	}
	return rep
}

// SlotLabels returns the twelve zero-valued slots for a window starting at
// startHour. Labels are minutes since midnight split into hours and minutes;
// the hour is not wrapped, so a window starting at 23 ends with "25:00".
func SlotLabels(startHour int) []Slot {
	slots := make([]Slot, slotCount)
	for i := range slots {
		from := startHour*60 + i*slotMinutes
		to := from + slotMinutes
		slots[i].Label = fmt.Sprintf("%02d:%02d-%02d:%02d", from/60, from%60, to/60, to%60)
	}
	return slots
}
