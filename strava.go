package fithub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// PerPage is the size of the only page of activities requested per year
	PerPage = 200
)

var ErrUnauthorized = errors.New("unauthorized")

// Fault is an error response from the Strava API
type Fault struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("strava: %d %s", f.StatusCode, f.Message)
}

// Client queries a Strava athlete's activities
type Client struct {
	baseURL string
	client  *http.Client
	loc     *time.Location
}

type Option func(*Client)

// WithBaseURL sets the Strava API root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the client used as the base of the bearer transport
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func NewClient(loc *time.Location, opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL, client: http.DefaultClient, loc: loc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DateRange returns the span of year in loc queried for activities; the end is
// clamped to now
func DateRange(year int, now time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.December, 31, 23, 59, 59, int(999*time.Millisecond), loc)
	if now.Before(end) {
		end = now
	}
	return start, end
}

// Activities returns the scored workouts of the athlete owning token for year,
// sorted by start date. Only the first PerPage activities are fetched.
func (c *Client) Activities(ctx context.Context, token string, year int, now time.Time) ([]*Workout, error) {
	after, before := DateRange(year, now, c.loc)
	q := url.Values{}
	q.Set("after", strconv.FormatInt(after.Unix(), 10))
	q.Set("before", strconv.FormatInt(before.Unix(), 10))
	q.Set("per_page", strconv.Itoa(PerPage))

	log.Info().
		Int("year", year).
		Str("after", after.Format(dayLayout)).
		Str("before", before.Format(dayLayout)).
		Msg("activities")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		fault := &Fault{StatusCode: res.StatusCode}
		if err = json.Unmarshal(body, fault); err != nil {
			fault.Message = http.StatusText(res.StatusCode)
		}
		if res.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, fault)
		}
		return nil, fault
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return nil, errors.New("activities: invalid response format")
	}

	var acts []*Activity
	if err = json.Unmarshal(body, &acts); err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	workouts := Process(acts)
	log.Info().Int("year", year).Int("n", len(workouts)).Msg("activities")
	return workouts, nil
}

// Process sorts the activities by start date and scores them
func Process(acts []*Activity) []*Workout {
	sort.SliceStable(acts, func(i, j int) bool {
		return acts[i].StartDate.Before(acts[j].StartDate)
	})
	workouts := make([]*Workout, len(acts))
	for i, act := range acts {
		workouts[i] = Score(act)
	}
	return workouts
}
