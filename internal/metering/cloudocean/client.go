// Package cloudocean implements the metering Source against the Cloud
// Ocean HTTP API.
package cloudocean

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"go.uber.org/zap"
)

type consumptionEntry struct {
	MeasuringPointID string  `json:"measuring_point_id"`
	ConsumptionKWh   float64 `json:"consumption_kwh"`
}

type consumptionResponse struct {
	Data []consumptionEntry `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 12 * time.Second},
		log:     log.Named("cloudocean"),
	}
}

// ModuleConsumption fetches total kWh per measuring point for the given
// range. Malformed measuring-point ids are rejected before any network
// call.
func (c *Client) ModuleConsumption(
	ctx context.Context,
	moduleID string,
	measuringPointIDs []string,
	start, end time.Time,
) (map[string]float64, error) {
	if _, err := uuid.Parse(moduleID); err != nil {
		return nil, meteringdomain.ErrInvalidMeasuringPoint
	}
	for _, id := range measuringPointIDs {
		if _, err := uuid.Parse(id); err != nil {
			return nil, meteringdomain.ErrInvalidMeasuringPoint
		}
	}

	values := url.Values{}
	values.Set("start", start.UTC().Format(time.RFC3339))
	values.Set("end", end.UTC().Format(time.RFC3339))
	values.Set("measuring_points", strings.Join(measuringPointIDs, ","))

	endpoint := fmt.Sprintf("%s/api/v1/modules/%s/consumption?%s", c.baseURL, moduleID, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("consumption fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", meteringdomain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", meteringdomain.ErrSourceUnavailable, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", meteringdomain.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload consumptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", meteringdomain.ErrSourceUnavailable, err)
	}

	result := make(map[string]float64, len(payload.Data))
	for _, entry := range payload.Data {
		result[entry.MeasuringPointID] = entry.ConsumptionKWh
	}
	return result, nil
}
