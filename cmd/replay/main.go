// Command replay feeds recorded skill request envelopes through the dispatch
// chain and prints what the skill would say, without starting the webhook.
//
// Usage:
//
//	go run ./cmd/replay -file requests.json
//	go run ./cmd/replay -file requests.json -mode live -strict
//
// The file holds a JSON array of request envelopes. Live mode reads the same
// environment as the service (OPENWEATHER_API_KEY, WEATHER_LAT, ...).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/weather-skill-service/internal/adapter/alexa"
	"github.com/couchcryptid/weather-skill-service/internal/adapter/openweather"
	"github.com/couchcryptid/weather-skill-service/internal/config"
	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
	"github.com/couchcryptid/weather-skill-service/internal/skill"
	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of request envelopes")
	mode := flag.String("mode", config.ModeStub, "skill mode: stub or live")
	strict := flag.Bool("strict", false, "exit non-zero if any request was answered by the exception path")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file, *mode, *strict, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(path, mode string, strict bool, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	sk, err := buildSkill(mode, logger, metrics)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	envelopes, err := loadEnvelopes(path)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tINTENT\tKIND\tEND\tSPEECH")

	failed := 0
	for i, raw := range envelopes {
		req, err := alexa.DecodeRequest(bytes.NewReader(raw))
		if err != nil {
			fmt.Fprintf(tw, "%d\t-\t-\tinvalid\t-\t%v\n", i, err)
			failed++
			continue
		}
		out := sk.Handle(context.Background(), req)
		if out.Failed() {
			failed++
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
			i, req.Type, dash(req.IntentName), out.Kind, out.Utterance.EndSession, out.Utterance.Speech)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "FATAL: write output: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "\n%d requests, %d failed\n", len(envelopes), failed)
	if strict && failed > 0 {
		return 2
	}
	return 0
}

func buildSkill(mode string, logger *slog.Logger, metrics *observability.Metrics) (*skill.Skill, error) {
	switch mode {
	case config.ModeStub:
		return skill.New(nil, skill.NewStubComposer(), domain.Coordinates{}, logger, metrics), nil
	case config.ModeLive:
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if cfg.OpenWeatherAPIKey == "" {
			return nil, fmt.Errorf("live mode requires OPENWEATHER_API_KEY")
		}
		client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
		at := domain.Coordinates{Lat: cfg.Latitude, Lon: cfg.Longitude}
		return skill.New(client, skill.NewLiveComposer(logger, metrics), at, logger, metrics), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func loadEnvelopes(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var envelopes []json.RawMessage
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return envelopes, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
