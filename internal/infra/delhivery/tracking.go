package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Tracking is the normalized view of a package's current position.
type Tracking struct {
	Status     string      `json:"status"`
	StatusCode string      `json:"statusCode"`
	Location   string      `json:"location"`
	Timestamp  string      `json:"timestamp"`
	Scans      []TrackScan `json:"scans"`
}

type TrackScan struct {
	Status    string `json:"status"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Remarks   string `json:"remarks"`
}

// Track fetches tracking for one waybill and normalizes the carrier's
// nested envelope into a flat DTO.
func (c *Client) Track(ctx context.Context, waybill string) (Tracking, error) {
	if !c.configured {
		return Tracking{}, errNotConfigured
	}

	u := fmt.Sprintf("%s/api/v1/packages/?waybill=%s", c.baseURL, url.QueryEscape(waybill))
	body, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return Tracking{}, err
	}
	return parseTracking(body)
}

type trackEnvelope struct {
	ShipmentData []struct {
		Shipment struct {
			Status struct {
				Status         string `json:"Status"`
				StatusCode     string `json:"StatusCode"`
				StatusLocation string `json:"StatusLocation"`
				StatusDateTime string `json:"StatusDateTime"`
			} `json:"Status"`
			Scans []struct {
				ScanDetail struct {
					Scan            string `json:"Scan"`
					ScannedLocation string `json:"ScannedLocation"`
					ScanDateTime    string `json:"ScanDateTime"`
					Instructions    string `json:"Instructions"`
				} `json:"ScanDetail"`
			} `json:"Scans"`
		} `json:"Shipment"`
	} `json:"ShipmentData"`
}

func parseTracking(body []byte) (Tracking, error) {
	var env trackEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.ShipmentData) > 0 {
		sh := env.ShipmentData[0].Shipment
		t := Tracking{
			Status:     sh.Status.Status,
			StatusCode: sh.Status.StatusCode,
			Location:   sh.Status.StatusLocation,
			Timestamp:  sh.Status.StatusDateTime,
		}
		for _, s := range sh.Scans {
			t.Scans = append(t.Scans, TrackScan{
				Status:    s.ScanDetail.Scan,
				Location:  s.ScanDetail.ScannedLocation,
				Timestamp: s.ScanDetail.ScanDateTime,
				Remarks:   s.ScanDetail.Instructions,
			})
		}
		return t, nil
	}

	// Staging sometimes returns a flat object with a scans array instead.
	var flat struct {
		Status string `json:"status"`
		Scans  []struct {
			Status   string `json:"status"`
			Location string `json:"location"`
			Time     string `json:"time"`
		} `json:"scans"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && (flat.Status != "" || len(flat.Scans) > 0) {
		t := Tracking{Status: flat.Status}
		for _, s := range flat.Scans {
			t.Scans = append(t.Scans, TrackScan{Status: s.Status, Location: s.Location, Timestamp: s.Time})
		}
		return t, nil
	}

	return Tracking{}, fmt.Errorf("no tracking data in carrier response")
}
