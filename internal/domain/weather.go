package domain

import (
	"context"
	"time"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Reading is an optional numeric field from the upstream payload.
// Absent is not the same as zero: Present=false means the upstream sent no
// value for it. Invalid means a value was sent but was not a number.
type Reading struct {
	Value   float64
	Present bool
	Invalid bool
}

// Known returns a present, valid reading.
func Known(v float64) Reading {
	return Reading{Value: v, Present: true}
}

// WeatherSnapshot holds current conditions for one fetch. Temperatures are
// Celsius, precipitation is millimeters over the preceding hour.
type WeatherSnapshot struct {
	StatusCode   int
	Description  string
	Temperature  Reading
	FeelsLike    Reading
	RainLastHour Reading
	SnowLastHour Reading
	ObservedAt   time.Time
}

// WeatherClient fetches current conditions for a coordinate. Failures are
// returned as *FetchError; a snapshot is only meaningful when err is nil.
type WeatherClient interface {
	Fetch(ctx context.Context, at Coordinates) (WeatherSnapshot, error)
}
