package fithub

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	ErrDenied   = "Authentication was denied or canceled."
	ErrExchange = "Failed to connect to Strava. Please try again."
)

// Scopes requested from Strava
var Scopes = []string{"read,activity:read"}

type TokenCallback func(c echo.Context, t *oauth2.Token) error

// App serves the heatmap of the authenticated athlete
type App struct {
	Config   *Config
	OAuth    *oauth2.Config
	State    string
	Path     string
	Loader   *Loader
	Board    *Board
	Location *time.Location
	Now      func() time.Time
}

// Register adds the application routes to the group
func (a *App) Register(g *echo.Group) {
	g.GET("/", a.IndexHandler())
	g.GET("/api/heatmap", a.HeatmapHandler())
	g.GET("/auth/login", LoginHandler(a.OAuth, a.State))
	g.GET("/auth/logout", a.LogoutHandler())
	g.GET("/auth/callback", AuthCallbackHandler(a.OAuth, a.State, a.Path))
}

// LoginHandler redirects to the oauth provider's credential acceptance page
func LoginHandler(c *oauth2.Config, state string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusFound, c.AuthCodeURL(state))
	}
}

func tokenCallback(path string) TokenCallback {
	return func(c echo.Context, t *oauth2.Token) error {
		s, err := LoadSession(c)
		if err != nil {
			return err
		}
		if err = s.SaveToken(t.AccessToken); err != nil {
			return err
		}
		log.Info().Msg("authenticated")
		return c.Redirect(http.StatusFound, path+"/")
	}
}

// AuthCallbackHandler receives the callback from the oauth provider and stores
// the token in the session
func AuthCallbackHandler(c *oauth2.Config, state, path string) echo.HandlerFunc {
	return AuthCallbackHandlerF(c, state, path, tokenCallback(path))
}

// AuthCallbackHandlerF receives the callback from the oauth provider with the credentials
func AuthCallbackHandlerF(c *oauth2.Config, state, path string, f TokenCallback) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if reason := ctx.QueryParam("error"); reason != "" {
			log.Warn().Str("error", reason).Msg("auth")
			return ctx.Render(http.StatusOK, "login.html", &Page{Path: path, Error: ErrDenied})
		}

		if ctx.QueryParam("state") != state {
			return echo.NewHTTPError(http.StatusBadRequest, "State invalid")
		}

		code := ctx.QueryParam("code")
		if code == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Code not found")
		}

		token, err := c.Exchange(ctx.Request().Context(), code)
		if err == nil && token.AccessToken == "" {
			err = errors.New("no access token received")
		}
		if err != nil {
			log.Error().Err(err).Msg("exchange")
			s, serr := LoadSession(ctx)
			if serr != nil {
				return serr
			}
			if serr = s.ClearToken(); serr != nil {
				return serr
			}
			return ctx.Render(http.StatusOK, "login.html", &Page{Path: path, Error: ErrExchange})
		}

		return f(ctx, token)
	}
}

// LogoutHandler forgets the token and the session's selections
func (a *App) LogoutHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := LoadSession(c)
		if err != nil {
			return err
		}
		if token, ok := s.Token(); ok {
			a.Loader.Invalidate(token, a.Config.YearOptions(a.now())...)
		}
		id, err := s.ID()
		if err != nil {
			return err
		}
		a.Board.Forget(id)
		if err = s.ClearToken(); err != nil {
			return err
		}
		return c.Redirect(http.StatusFound, a.Path+"/")
	}
}

func (a *App) year(c echo.Context, now time.Time) (int, error) {
	val := c.QueryParam("year")
	if val == "" {
		return now.Year(), nil
	}
	year, err := strconv.Atoi(val)
	if err != nil || !a.Config.HasYear(now, year) {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	return year, nil
}

// now returns the current time in the configured location
func (a *App) now() time.Time {
	return a.Now().In(a.Location)
}

// build fetches the workouts of year and joins them with the year's grid. Fetch
// failures are logged and produce a heatmap without workouts.
func (a *App) build(c echo.Context, token string, year int, now time.Time) *Heatmap {
	workouts, err := a.Loader.Load(c.Request().Context(), token, year, now)
	if err != nil {
		log.Error().Err(err).Int("year", year).Msg("fetch")
		if errors.Is(err, ErrUnauthorized) {
			log.Warn().Msg("authentication error, token may be expired")
		}
		workouts = nil
	}
	return Join(year, BuildGrid(year, now, a.Location), workouts, a.Location)
}

// heatmap selects the requested year for the session and builds its heatmap.
// The returned bool is false if a newer selection superseded this one.
func (a *App) heatmap(c echo.Context, s *Session, token string, now time.Time) (*Heatmap, bool, error) {
	year, err := a.year(c, now)
	if err != nil {
		return nil, false, err
	}
	id, err := s.ID()
	if err != nil {
		return nil, false, err
	}

	ticket := a.Board.Select(id, year)
	hm := a.build(c, token, year, now)
	if !a.Board.Resolve(ticket) {
		log.Info().Int("year", year).Uint64("generation", ticket.Generation).Msg("superseded")
		return hm, false, nil
	}
	return hm, true, nil
}

// IndexHandler renders the heatmap page or the login page without a token. A
// superseded request renders the session's latest accepted year.
func (a *App) IndexHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := LoadSession(c)
		if err != nil {
			return err
		}
		token, ok := s.Token()
		if !ok {
			return c.Render(http.StatusOK, "login.html", &Page{Path: a.Path})
		}
		now := a.now()
		hm, current, err := a.heatmap(c, s, token, now)
		if err != nil {
			return err
		}
		if !current {
			id, err := s.ID()
			if err != nil {
				return err
			}
			if year, ok := a.Board.Current(id); ok && year != hm.Year {
				hm = a.build(c, token, year, now)
			}
		}
		years := a.Config.YearOptions(now)
		page := NewPage(a.Path, a.Config.Palette, years, hm, c.QueryParam("day"), a.Location)
		return c.Render(http.StatusOK, "index.html", page)
	}
}

// HeatmapHandler returns the heatmap of the requested year as json
func (a *App) HeatmapHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := LoadSession(c)
		if err != nil {
			return err
		}
		token, ok := s.Token()
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}
		hm, current, err := a.heatmap(c, s, token, a.now())
		if err != nil {
			return err
		}
		if !current {
			return echo.NewHTTPError(http.StatusConflict, "superseded by a newer selection")
		}
		return c.JSON(http.StatusOK, hm)
	}
}
