package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/bzimmer/activity/strava"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/bzimmer/fithub"
)

func config(c *cli.Context) (*fithub.Config, error) {
	var err error
	var val []byte
	switch c.IsSet("config") {
	case true:
		log.Info().Str("file", c.String("config")).Msg("config")
		var fp *os.File
		fp, err = os.Open(c.String("config"))
		if err != nil {
			return nil, err
		}
		defer fp.Close()
		val, err = io.ReadAll(fp)
		if err != nil {
			return nil, err
		}
	case false:
		log.Info().Str("file", "etc/fithub.json").Msg("config")
		val, err = fithub.Content.ReadFile("etc/fithub.json")
		if err != nil {
			return nil, err
		}
	}
	return fithub.NewConfig(val)
}

func newEngine(c *cli.Context) (*echo.Echo, error) {
	cfg, err := config(c)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	state, err := fithub.RandomString(16)
	if err != nil {
		return nil, err
	}
	renderer, err := fithub.NewRenderer()
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(c.String("base-url"), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	maxAge := int((30 * 24 * time.Hour).Seconds())
	store := sessions.NewCookieStore([]byte(c.String("session-key")))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   u.Scheme == "https",
	}

	client := fithub.NewClient(loc, fithub.WithBaseURL(c.String("strava-url")))
	app := &fithub.App{
		Config: cfg,
		OAuth: &oauth2.Config{
			ClientID:     c.String("client-id"),
			ClientSecret: c.String("client-secret"),
			Scopes:       fithub.Scopes,
			RedirectURL:  baseURL + "/auth/callback",
			Endpoint:     strava.Endpoint()},
		State:    state,
		Path:     u.Path,
		Loader:   fithub.NewLoader(client, cfg.CacheTTL),
		Board:    fithub.NewBoard(maxAge),
		Location: loc,
		Now:      time.Now,
	}

	engine := echo.New()
	engine.HideBanner = true
	engine.Renderer = renderer
	engine.Use(middleware.Recover())
	engine.Use(middleware.RequestID())
	engine.Use(session.Middleware(store))
	engine.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			log.Info().
				Str("method", ctx.Request().Method).
				Str("path", ctx.Request().URL.Path).
				Int("status", ctx.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("request")
			return err
		}
	})
	prometheus.NewPrometheus("fithub", nil).Use(engine)

	app.Register(engine.Group(u.Path))
	return engine, nil
}

func serve(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	u, err := url.Parse(c.String("base-url"))
	if err != nil {
		return err
	}
	_, port, _ := net.SplitHostPort(u.Host)
	address := fmt.Sprintf("0.0.0.0:%s", port)
	log.Info().Str("address", address).Msg("serving")
	return engine.Start(address)
}

func function(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	log.Info().Msg("running function")
	lambda.Start(fithub.LambdaHandler(echoadapter.New(engine)))
	return nil
}

func main() {
	app := &cli.App{
		Name:     "fithub",
		HelpName: "fithub",
		Usage:    "Workout heatmap for Strava athletes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "client-id",
				Required: true,
				Usage:    "client id",
				EnvVars:  []string{"STRAVA_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:     "client-secret",
				Required: true,
				Usage:    "client secret",
				EnvVars:  []string{"STRAVA_CLIENT_SECRET"},
			},
			&cli.StringFlag{
				Name:     "session-key",
				Required: true,
				Usage:    "session keypair",
				EnvVars:  []string{"FITHUB_SESSION_KEY"},
			},
			&cli.StringFlag{
				Name:    "base-url",
				Value:   "http://localhost:9001",
				Usage:   "Base URL",
				EnvVars: []string{"BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "strava-url",
				Value:   fithub.DefaultBaseURL,
				Usage:   "Strava API URL",
				EnvVars: []string{"STRAVA_API_URL"},
			},
			&cli.BoolFlag{
				Name:    "netlify",
				Value:   false,
				Usage:   "run as a netlify function",
				EnvVars: []string{"NETLIFY"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Value: false,
				Usage: "log at debug level",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "file with fithub configuration parameters",
			},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			level := zerolog.InfoLevel
			if c.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			zerolog.DurationFieldUnit = time.Millisecond
			zerolog.DurationFieldInteger = false
			log.Logger = log.Output(
				zerolog.ConsoleWriter{
					Out:        c.App.ErrWriter,
					NoColor:    false,
					TimeFormat: time.RFC3339,
				},
			)
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("netlify") {
				return function(c)
			}
			return serve(c)
		},
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
