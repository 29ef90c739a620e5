package fithub

// summarize returns the workout count and mean intensity of every week column
func summarize(hm *Heatmap) []*Week {
	res := make([]*Week, Weeks)
	for wk := range res {
		var total float64
		m := &Week{Week: wk}
		for weekday := 0; weekday < Weekdays; weekday++ {
			if w := hm.Days[weekday][wk].Workout; w != nil {
				m.Workouts++
				total += w.Intensity
			}
		}
		if m.Workouts > 0 {
			m.Intensity = total / float64(m.Workouts)
		}
		res[wk] = m
	}
	return res
}
