package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"carrierwave-activities/models"

	"gorm.io/gorm"
)

const rbnSpotsURL = "https://www.vailrerbn.com/api/v1/spots?limit=500"

// RbnAggregator polls the Vail ReRBN CW skimmer feed. RBN spots carry SNR
// and CW speed but no program reference.
type RbnAggregator struct {
	DB         *gorm.DB
	URL        string
	HTTPClient *http.Client
}

func NewRbnAggregator(db *gorm.DB) *RbnAggregator {
	return &RbnAggregator{
		DB:  db,
		URL: rbnSpotsURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rbnSpot struct {
	ID        int64     `json:"id"`
	Callsign  string    `json:"callsign"`
	Frequency float64   `json:"frequency"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
	SNR       *int16    `json:"snr"`
	Spotter   *string   `json:"spotter"`
	Speed     *int16    `json:"speed"`
}

type rbnResponse struct {
	Spots []rbnSpot `json:"spots"`
}

// Start polls every 30 seconds until the context is cancelled.
func (a *RbnAggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	log.Println("[RBN] aggregator started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[RBN] aggregator stopped")
			return
		case <-ticker.C:
			if err := a.fetchAndUpsert(ctx); err != nil {
				log.Printf("[RBN] aggregator error: %v", err)
			}
		}
	}
}

func (a *RbnAggregator) fetchAndUpsert(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch RBN spots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("RBN API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response rbnResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode RBN response: %w", err)
	}

	upserted := 0
	for i := range response.Spots {
		if err := upsertAggregatedSpot(a.DB, a.mapSpot(&response.Spots[i])); err != nil {
			log.Printf("[RBN] upsert error for %s: %v", response.Spots[i].Callsign, err)
			continue
		}
		upserted++
	}

	log.Printf("[RBN] upserted %d/%d spots", upserted, len(response.Spots))
	return nil
}

func (a *RbnAggregator) mapSpot(spot *rbnSpot) *models.Spot {
	externalID := strconv.FormatInt(spot.ID, 10)
	return &models.Spot{
		Callsign:     spot.Callsign,
		Source:       models.SpotSourceRbn,
		ExternalID:   &externalID,
		FrequencyKHz: spot.Frequency,
		Mode:         spot.Mode,
		Spotter:      spot.Spotter,
		SNR:          spot.SNR,
		WPM:          spot.Speed,
		SpottedAt:    spot.Timestamp,
		ExpiresAt:    spot.Timestamp.Add(10 * time.Minute),
	}
}
