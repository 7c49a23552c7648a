package flight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// BoundingBox is a latitude/longitude rectangle used to scope feed queries.
type BoundingBox struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// SFBayBounds is the default query region covering the San Francisco Bay Area.
var SFBayBounds = BoundingBox{
	LatMin: 37.4,
	LatMax: 38.0,
	LonMin: -122.6,
	LonMax: -121.8,
}

// OpenSkyClient implements the DataSource interface for the OpenSky Network
// REST API. Anonymous access is limited to roughly one request every ten
// seconds; the client enforces that with a rate limiter so bursts of callers
// queue instead of getting rejected upstream.
type OpenSkyClient struct {
	// baseURL is the API base URL (default: https://opensky-network.org/api)
	baseURL string

	// bounds is the query region for GetFlights
	bounds BoundingBox

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	// limiter throttles outgoing requests
	limiter *rate.Limiter
}

// DefaultOpenSkyBaseURL is the public OpenSky Network API endpoint.
const DefaultOpenSkyBaseURL = "https://opensky-network.org/api"

// NewOpenSkyClient creates an OpenSky API client scoped to the given region.
// baseURL should be DefaultOpenSkyBaseURL (or a test server URL).
func NewOpenSkyClient(baseURL string, bounds BoundingBox) *OpenSkyClient {
	return &OpenSkyClient{
		baseURL: baseURL,
		bounds:  bounds,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// GetFlights fetches all valid airborne flights inside the client's
// bounding box using the /states/all endpoint.
func (c *OpenSkyClient) GetFlights(ctx context.Context) ([]Flight, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("lamin", fmt.Sprintf("%.4f", c.bounds.LatMin))
	query.Set("lamax", fmt.Sprintf("%.4f", c.bounds.LatMax))
	query.Set("lomin", fmt.Sprintf("%.4f", c.bounds.LonMin))
	query.Set("lomax", fmt.Sprintf("%.4f", c.bounds.LonMax))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/states/all?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flight data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp openSkyStatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	return parseStates(apiResp.States), nil
}

// GetFlight returns a specific flight by ICAO24 address, or nil if it is
// not currently tracked inside the client's region.
func (c *OpenSkyClient) GetFlight(ctx context.Context, icao24 string) (*Flight, error) {
	flights, err := c.GetFlights(ctx)
	if err != nil {
		return nil, err
	}

	for i := range flights {
		if flights[i].ICAO24 == icao24 {
			return &flights[i], nil
		}
	}

	return nil, nil
}

// Close shuts down the client. The HTTP client holds no persistent
// resources, so this is a no-op kept for interface symmetry.
func (c *OpenSkyClient) Close() error {
	return nil
}

// openSkyStatesResponse mirrors the /states/all payload: a timestamp and a
// list of heterogeneous state vectors.
type openSkyStatesResponse struct {
	Time   int64           `json:"time"`
	States [][]interface{} `json:"states"`
}

// OpenSky state vector indices, per the API documentation.
const (
	stateICAO24 = iota
	stateCallsign
	stateOriginCountry
	stateTimePosition
	stateLastContact
	stateLongitude
	stateLatitude
	stateBaroAltitude
	stateOnGround
	stateVelocity
	stateTrueTrack
	stateVerticalRate
	stateSensors
	stateGeoAltitude
	stateSquawk
	stateSPI
	statePositionSource

	stateVectorLength = 17
)

// parseStates converts raw OpenSky state vectors into Flights, dropping
// entries that fail validation.
func parseStates(states [][]interface{}) []Flight {
	flights := make([]Flight, 0, len(states))

	for _, state := range states {
		if len(state) < stateVectorLength {
			continue
		}

		f := Flight{
			ICAO24:         stateString(state[stateICAO24]),
			Callsign:       strings.TrimSpace(stateString(state[stateCallsign])),
			OriginCountry:  stateString(state[stateOriginCountry]),
			TimePosition:   stateInt64(state[stateTimePosition]),
			LastContact:    stateInt64(state[stateLastContact]),
			Longitude:      stateFloat(state[stateLongitude]),
			Latitude:       stateFloat(state[stateLatitude]),
			BaroAltitude:   stateFloat(state[stateBaroAltitude]),
			OnGround:       stateBool(state[stateOnGround]),
			Velocity:       stateFloat(state[stateVelocity]),
			TrueTrack:      stateFloat(state[stateTrueTrack]),
			VerticalRate:   stateFloat(state[stateVerticalRate]),
			GeoAltitude:    stateFloat(state[stateGeoAltitude]),
			Squawk:         stateString(state[stateSquawk]),
			PositionSource: int(stateInt64(state[statePositionSource])),
		}

		if isValidFlight(&f) {
			flights = append(flights, f)
		}
	}

	return flights
}

// isValidFlight checks that a parsed flight is airborne and identifiable.
func isValidFlight(f *Flight) bool {
	// Must have position data
	if !f.HasPosition() {
		return false
	}

	// Must not be on ground (we want airborne flights)
	if f.OnGround {
		return false
	}

	// Must have a callsign (identifiable aircraft)
	if f.Callsign == "" {
		return false
	}

	// Must be meaningfully above the surface
	alt, ok := f.BestAltitude()
	if !ok || alt < 30 {
		return false
	}

	return true
}

// The OpenSky state vector mixes strings, numbers, bools and nulls, so
// each field is coerced defensively; a missing or mistyped field becomes
// the zero value or nil instead of failing the whole vector.

func stateString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stateFloat(v interface{}) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func stateInt64(v interface{}) int64 {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int64(f)
}

func stateBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
