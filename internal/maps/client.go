package maps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL        = "https://maps.googleapis.com/maps/api"
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 4 << 20
)

// Client calls the Google Maps geocoding and places web services.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Maps client. An empty baseURL uses the public endpoint.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		client:  httpClient,
	}
}

// Geocode converts a free-text address into coordinates.
func (c *Client) Geocode(ctx context.Context, address string) ([]GeocodeResult, error) {
	params := url.Values{}
	params.Set("address", address)
	body, err := c.get(ctx, "/geocode/json", params)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "results").Array()
	out := make([]GeocodeResult, 0, len(results))
	for _, r := range results {
		out = append(out, GeocodeResult{
			FormattedAddress: r.Get("formatted_address").String(),
			PlaceID:          r.Get("place_id").String(),
			Location: LatLng{
				Lat: r.Get("geometry.location.lat").Float(),
				Lng: r.Get("geometry.location.lng").Float(),
			},
		})
	}
	return out, nil
}

// NearbySearch lists places around a coordinate.
func (c *Client) NearbySearch(ctx context.Context, req NearbyRequest) ([]PlaceSummary, error) {
	params := url.Values{}
	params.Set("location", req.Location.String())
	params.Set("radius", strconv.Itoa(req.RadiusMeters))
	if t := strings.TrimSpace(req.Type); t != "" {
		params.Set("type", t)
	}
	if req.OpenNow {
		params.Set("opennow", "true")
	}
	body, err := c.get(ctx, "/place/nearbysearch/json", params)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "results").Array()
	out := make([]PlaceSummary, 0, len(results))
	for _, r := range results {
		placeID := r.Get("place_id").String()
		if placeID == "" {
			continue
		}
		summary := PlaceSummary{
			PlaceID:  placeID,
			Name:     r.Get("name").String(),
			Vicinity: r.Get("vicinity").String(),
			Location: LatLng{
				Lat: r.Get("geometry.location.lat").Float(),
				Lng: r.Get("geometry.location.lng").Float(),
			},
		}
		for _, t := range r.Get("types").Array() {
			summary.Types = append(summary.Types, t.String())
		}
		out = append(out, summary)
	}
	return out, nil
}

// PlaceDetails fetches the given fields for one place.
func (c *Client) PlaceDetails(ctx context.Context, placeID string, fields []string) (PlaceDetails, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return PlaceDetails{}, fmt.Errorf("maps: place details: empty place id")
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	body, err := c.get(ctx, "/place/details/json", params)
	if err != nil {
		return PlaceDetails{}, err
	}

	result := gjson.GetBytes(body, "result")
	details := PlaceDetails{
		PlaceID: placeID,
		Name:    result.Get("name").String(),
		Phone:   result.Get("formatted_phone_number").String(),
		Address: result.Get("formatted_address").String(),
		Website: result.Get("website").String(),
	}
	if result.Exists() {
		details.Raw = []byte(result.Raw)
	}
	return details, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if ctx == nil {
		ctx = context.Background()
	}
	params.Set("key", c.apiKey)

	requestCtx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("maps: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("maps: request %s failed: %w", endpoint, err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("maps: close response body failed")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("maps: read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("maps: %s unexpected status %d", endpoint, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("maps: %s returned invalid json", endpoint)
	}

	switch status := gjson.GetBytes(body, "status").String(); status {
	case StatusOK, StatusZeroResults:
		return body, nil
	default:
		return nil, &APIError{
			Status:  status,
			Message: gjson.GetBytes(body, "error_message").String(),
		}
	}
}
