// Command rendermap writes a vegetation-loss map page for a known tile layer
// without calling the analytics service. It is used to preview template
// changes and to produce fixtures.
//
// Usage:
//
//	go run ./cmd/rendermap \
//	  -lat -3.4653 -lon -62.2159 -distance 25 -year 2020 \
//	  -tile-url 'https://tiles.example/abc/{z}/{x}/{y}' \
//	  -now 2026-06-15 -out map.html
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/render"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	lat := flag.String("lat", "", "center latitude")
	lon := flag.String("lon", "", "center longitude")
	distance := flag.String("distance", "", "study radius in km (default 10)")
	year := flag.String("year", "", "base year (default: previous year)")
	tileURL := flag.String("tile-url", "", "severity tile URL template with {z}, {x}, {y}")
	place := flag.String("place", "", "optional full place label for the legend")
	placeName := flag.String("place-name", "", "optional short place label for the marker popup")
	now := flag.String("now", "", "fixed current date (YYYY-MM-DD) for reproducible output")
	out := flag.String("out", "", "output path (default stdout)")
	flag.Parse()

	if *lat == "" || *lon == "" || *tileURL == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -lat, -lon, -tile-url")
	}

	if *now != "" {
		t, err := time.Parse(time.DateOnly, *now)
		if err != nil {
			return fmt.Errorf("invalid -now: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}
	currentYear := domain.CurrentYear()

	// Same parsing and validation as the HTTP endpoint.
	q := url.Values{"latitude": {*lat}, "longitude": {*lon}}
	if *distance != "" {
		q.Set("distance", *distance)
	}
	if *year != "" {
		q.Set("year", *year)
	}
	req, err := domain.ParseAnalysisRequest(q, currentYear)
	if err != nil {
		return err
	}
	if err := req.Validate(currentYear); err != nil {
		return err
	}

	lq := domain.NewLossQuery(req, currentYear)
	res := domain.AnalysisResult{
		RequestID:   "rendermap-" + strconv.FormatInt(domain.Now().Unix(), 10),
		Request:     req,
		Area:        lq.Area,
		CompareYear: lq.CompareYear,
		Map:         domain.LossMap{MapID: "preview", TileURL: *tileURL},
		Place:       domain.GeocodingResult{FormattedAddress: *place, PlaceName: *placeName},
	}

	renderer, err := render.New()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := renderer.RenderMap(&buf, res); err != nil {
		return err
	}

	if *out == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s (%d bytes, %d to %d)", *out, buf.Len(), req.BaseYear, lq.CompareYear)
	return nil
}
