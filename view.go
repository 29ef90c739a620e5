package fithub

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed etc/fithub.json templates/*.html
var Content embed.FS

var (
	DaysOfWeek = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	Months     = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// Renderer renders the html templates for echo
type Renderer struct {
	t *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(Content, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{t: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.t.ExecuteTemplate(w, name, data)
}

type Cell struct {
	Color string
	Title string
	Href  string
}

// Detail is the popover content of a selected workout
type Detail struct {
	Date      string
	Name      string
	Type      string
	Duration  string
	HeartRate string
	Calories  string
}

type Page struct {
	Path     string
	Error    string
	Year     int
	Years    []int
	Count    int
	Months   []string
	Days     []string
	Palette  []string
	Columns  [][]Cell
	Selected *Detail
}

// FormatDuration renders seconds as hours and minutes, omitting zero hours
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// NewDetail formats a workout for the popover
func NewDetail(w *Workout, loc *time.Location) *Detail {
	d := &Detail{
		Date:     w.StartDate.In(loc).Format("January 2, 2006"),
		Name:     w.Name,
		Type:     w.Type,
		Duration: FormatDuration(w.MovingTime),
	}
	if w.AverageHeartrate != 0 {
		d.HeartRate = fmt.Sprintf("%d bpm", int(math.Round(w.AverageHeartrate)))
	}
	if w.Calories != 0 {
		d.Calories = fmt.Sprintf("%d cal", int(math.Round(w.Calories)))
	}
	return d
}

// NewPage lays out the heatmap column by column; day selects the workout shown
// in the popover
func NewPage(path string, palette []string, years []int, hm *Heatmap, day string, loc *time.Location) *Page {
	p := &Page{
		Path:    path,
		Year:    hm.Year,
		Years:   years,
		Count:   hm.Count,
		Months:  Months,
		Days:    DaysOfWeek,
		Palette: palette,
		Columns: make([][]Cell, Weeks),
	}
	for week := 0; week < Weeks; week++ {
		col := make([]Cell, Weekdays)
		for weekday := 0; weekday < Weekdays; weekday++ {
			d := hm.Days[weekday][week]
			cell := Cell{Color: palette[d.Level]}
			if !d.Empty {
				cell.Title = d.Date.Format("Jan 2, 2006")
				if d.Workout != nil {
					key := d.Date.Format(dayLayout)
					cell.Title += " - " + d.Workout.Name
					q := url.Values{"year": {strconv.Itoa(hm.Year)}, "day": {key}}
					cell.Href = path + "/?" + q.Encode()
					if key == day {
						p.Selected = NewDetail(d.Workout, loc)
					}
				}
			}
			col[weekday] = cell
		}
		p.Columns[week] = col
	}
	return p
}
