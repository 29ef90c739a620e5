package fithub

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// Activity is the subset of a Strava activity summary used by fithub
type Activity struct {
	ID               int64     `json:"id"`
	StartDate        time.Time `json:"start_date"`
	Type             string    `json:"type"`
	Name             string    `json:"name"`
	MovingTime       int       `json:"moving_time"`
	AverageHeartrate float64   `json:"average_heartrate,omitempty"`
	Calories         float64   `json:"calories,omitempty"`
}

// Workout is an activity with its derived intensity
type Workout struct {
	Activity
	Intensity float64 `json:"intensity"`
}

type Day struct {
	Date    time.Time `json:"date"`
	Empty   bool      `json:"empty"`
	Level   int       `json:"level"`
	Workout *Workout  `json:"workout,omitempty"`
}

type Week struct {
	Week      int     `json:"week"`
	Workouts  int     `json:"workouts"`
	Intensity float64 `json:"intensity"`
}

// Heatmap is the calendar grid of a year joined with the year's workouts
type Heatmap struct {
	Year     int                  `json:"year"`
	Count    int                  `json:"count"`
	Days     [Weekdays][Weeks]Day `json:"days"`
	Weeks    []*Week              `json:"weeks"`
	Workouts []*Workout           `json:"workouts"`
}

type Config struct {
	Years    int      `json:"years" validate:"min=1,max=10"`
	Timezone string   `json:"timezone" validate:"required"`
	Palette  []string `json:"palette" validate:"len=5,dive,hexcolor"`
	CacheTTL int      `json:"cache_ttl" validate:"min=0"`
}

// NewConfig decodes and validates a json configuration
func NewConfig(b []byte) (*Config, error) {
	cfg := &Config{Years: 3, Timezone: "Local"}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location returns the time zone used for all day boundaries
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// YearOptions returns the selectable years, most recent first
func (c *Config) YearOptions(now time.Time) []int {
	years := make([]int, c.Years)
	for i := range years {
		years[i] = now.Year() - i
	}
	return years
}

// HasYear reports whether year is one of the selectable years
func (c *Config) HasYear(now time.Time, year int) bool {
	for _, y := range c.YearOptions(now) {
		if y == year {
			return true
		}
	}
	return false
}
