package fithub

import "time"

const (
	Weekdays = 7
	Weeks    = 53

	dayLayout = "2006-01-02"
)

// Grid holds the calendar days of a year indexed by [weekday][week]; the zero
// time marks an empty cell
type Grid [Weekdays][Weeks]time.Time

// Cell returns the date at the position and whether the cell holds one
func (g *Grid) Cell(weekday, week int) (time.Time, bool) {
	date := g[weekday][week]
	return date, !date.IsZero()
}

// Len returns the number of non-empty cells
func (g *Grid) Len() int {
	var n int
	for weekday := range g {
		for week := range g[weekday] {
			if !g[weekday][week].IsZero() {
				n++
			}
		}
	}
	return n
}

// BuildGrid lays out the days of year in loc as a Sunday-aligned 7x53 grid.
// Days after today or outside the year are left empty.
func BuildGrid(year int, today time.Time, loc *time.Location) *Grid {
	// days are compared by calendar date; where DST starts at midnight the
	// walk's dates carry a 01:00 wall clock from that day on
	last := day(today, loc)
	date := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	for date.Weekday() != time.Sunday {
		date = date.AddDate(0, 0, -1)
	}

	var grid Grid
	for week := 0; week < Weeks; {
		if date.Year() == year && day(date, loc) <= last {
			grid[date.Weekday()][week] = date
		}
		date = date.AddDate(0, 0, 1)
		if date.Weekday() == time.Sunday {
			week++
		}
	}
	return &grid
}

func day(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// Match returns the first workout starting on the same calendar day as date in
// loc or nil if there is none. Workouts are expected in ascending start order so
// the earliest workout of a day wins.
func Match(date time.Time, workouts []*Workout, loc *time.Location) *Workout {
	key := day(date, loc)
	for _, w := range workouts {
		if day(w.StartDate, loc) == key {
			return w
		}
	}
	return nil
}

// Join matches every cell of the grid against the workouts
func Join(year int, grid *Grid, workouts []*Workout, loc *time.Location) *Heatmap {
	// index the first workout of each day; equivalent to Match per cell
	first := make(map[string]*Workout, len(workouts))
	for _, w := range workouts {
		key := day(w.StartDate, loc)
		if _, ok := first[key]; !ok {
			first[key] = w
		}
	}

	hm := &Heatmap{Year: year, Count: len(workouts), Workouts: workouts}
	for weekday := range grid {
		for week := range grid[weekday] {
			date, ok := grid.Cell(weekday, week)
			if !ok {
				hm.Days[weekday][week] = Day{Empty: true}
				continue
			}
			d := Day{Date: date, Workout: first[day(date, loc)]}
			if d.Workout != nil {
				d.Level = Level(d.Workout.Intensity)
			}
			hm.Days[weekday][week] = d
		}
	}
	hm.Weeks = summarize(hm)
	return hm
}
