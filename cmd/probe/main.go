// Command probe checks a running deployment end to end: liveness, readiness,
// input validation, and optionally a real analysis. It verifies status codes
// and response shapes, and exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/probe -base-url http://localhost:5000 \
//	  -analyze -lat -3.4653 -lon -62.2159 -year 2020
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// phase tracks pass/fail for a probe phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type prober struct {
	baseURL string
	client  *http.Client
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:5000", "service base URL")
	analyze := flag.Bool("analyze", false, "also run a real analysis (calls the analytics service)")
	lat := flag.Float64("lat", -3.4653, "latitude for the analysis phase")
	lon := flag.Float64("lon", -62.2159, "longitude for the analysis phase")
	distance := flag.Float64("distance", 10, "distance in km for the analysis phase")
	year := flag.Int("year", time.Now().Year()-2, "base year for the analysis phase")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-request timeout")
	flag.Parse()

	p := &prober{
		baseURL: strings.TrimRight(*baseURL, "/"),
		client:  &http.Client{Timeout: *timeout},
	}

	fmt.Printf("=== Vegetation Loss Service Probe: %s ===\n\n", p.baseURL)

	phases := []*phase{
		p.checkHealth(),
		p.checkReadiness(),
		p.checkValidation(),
	}
	if *analyze {
		phases = append(phases, p.checkAnalysis(*lat, *lon, *distance, *year))
	}

	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll probes passed.")
		return
	}
	fmt.Println("\nProbe FAILED.")
	os.Exit(1)
}

// ── Phases ──

func (p *prober) checkHealth() *phase {
	ph := &phase{name: "Health endpoint"}
	status, ctype, body, err := p.get("/health", nil)
	if err != nil {
		ph.errorf("GET /health: %v", err)
		return ph
	}
	if status != http.StatusOK {
		ph.errorf("status %d, want 200", status)
	}
	var payload map[string]string
	if err := decodeJSON(ctype, body, &payload); err != nil {
		ph.errorf("%v", err)
	} else if payload["status"] != "healthy" {
		ph.errorf("status field %q, want %q", payload["status"], "healthy")
	}
	return ph
}

func (p *prober) checkReadiness() *phase {
	ph := &phase{name: "Readiness endpoint"}
	status, _, body, err := p.get("/readyz", nil)
	if err != nil {
		ph.errorf("GET /readyz: %v", err)
		return ph
	}
	if status != http.StatusOK {
		ph.errorf("status %d, want 200: %s", status, truncate(body))
	}
	return ph
}

func (p *prober) checkValidation() *phase {
	ph := &phase{name: "Input validation (400 + JSON error)"}
	cases := []struct {
		query      url.Values
		wantPrefix string
	}{
		{url.Values{"latitude": {"95"}, "longitude": {"0"}}, "Invalid coordinates"},
		{url.Values{"latitude": {"0"}, "longitude": {"0"}, "distance": {"0"}}, "Invalid distance (0-1000 km)"},
		{url.Values{"latitude": {"0"}, "longitude": {"0"}, "year": {"2014"}}, "Invalid year (2015-"},
	}
	for _, c := range cases {
		status, ctype, body, err := p.get("/getData", c.query)
		if err != nil {
			ph.errorf("GET /getData?%s: %v", c.query.Encode(), err)
			continue
		}
		if status != http.StatusBadRequest {
			ph.errorf("%s: status %d, want 400", c.query.Encode(), status)
		}
		var payload map[string]string
		if err := decodeJSON(ctype, body, &payload); err != nil {
			ph.errorf("%s: %v", c.query.Encode(), err)
			continue
		}
		if !strings.HasPrefix(payload["error"], c.wantPrefix) {
			ph.errorf("%s: error %q, want prefix %q", c.query.Encode(), payload["error"], c.wantPrefix)
		}
	}
	return ph
}

func (p *prober) checkAnalysis(lat, lon, distance float64, year int) *phase {
	ph := &phase{name: "Analysis (HTML map)"}
	q := url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"distance":  {strconv.FormatFloat(distance, 'f', -1, 64)},
		"year":      {strconv.Itoa(year)},
	}
	start := time.Now()
	status, ctype, body, err := p.get("/getData", q)
	if err != nil {
		ph.errorf("GET /getData: %v", err)
		return ph
	}

	switch status {
	case http.StatusOK:
		if !strings.HasPrefix(ctype, "text/html") {
			ph.errorf("content type %q, want text/html", ctype)
		}
		page := string(body)
		for _, want := range []string{
			fmt.Sprintf("Vegetation Loss Analysis %d to", year),
			fmt.Sprintf("Vegetation Loss since %d", year),
			"Vegetation Loss Severity",
			"leaflet",
		} {
			if !strings.Contains(page, want) {
				ph.errorf("page missing %q", want)
			}
		}
		fmt.Printf("  analysis took %s, %d bytes\n\n", time.Since(start).Round(time.Millisecond), len(body))
	case http.StatusBadRequest:
		// No imagery is a valid answer for some places and years.
		var payload map[string]string
		if err := decodeJSON(ctype, body, &payload); err != nil {
			ph.errorf("%v", err)
		} else if !strings.HasPrefix(payload["error"], "No suitable imagery found") {
			ph.errorf("unexpected 400: %q", payload["error"])
		}
	default:
		ph.errorf("status %d: %s", status, truncate(body))
	}
	return ph
}

// ── Helpers ──

func (p *prober) get(path string, q url.Values) (int, string, []byte, error) {
	u := p.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	resp, err := p.client.Get(u)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), body, nil
}

func decodeJSON(ctype string, body []byte, v any) error {
	if !strings.HasPrefix(ctype, "application/json") {
		return fmt.Errorf("content type %q, want application/json", ctype)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
