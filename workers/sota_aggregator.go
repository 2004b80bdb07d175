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

const sotaSpotsURL = "https://api2.sota.org.uk/api/spots/-1"

// SotaAggregator polls the SOTA spot feed. Upstream quirks: frequency is in
// MHz and "callsign" is the spotter, not the activator.
type SotaAggregator struct {
	DB         *gorm.DB
	URL        string
	HTTPClient *http.Client
}

func NewSotaAggregator(db *gorm.DB) *SotaAggregator {
	return &SotaAggregator{
		DB:  db,
		URL: sotaSpotsURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sotaSpot struct {
	ID                int64   `json:"id"`
	Callsign          string  `json:"callsign"`
	ActivatorCallsign string  `json:"activatorCallsign"`
	Frequency         string  `json:"frequency"`
	Mode              string  `json:"mode"`
	AssociationCode   string  `json:"associationCode"`
	SummitCode        string  `json:"summitCode"`
	SummitDetails     *string `json:"summitDetails"`
	TimeStamp         string  `json:"timeStamp"`
	Comments          *string `json:"comments"`
}

// Start polls every 90 seconds until the context is cancelled.
func (a *SotaAggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(90 * time.Second)
	defer ticker.Stop()

	log.Println("[SOTA] aggregator started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[SOTA] aggregator stopped")
			return
		case <-ticker.C:
			if err := a.fetchAndUpsert(ctx); err != nil {
				log.Printf("[SOTA] aggregator error: %v", err)
			}
		}
	}
}

func (a *SotaAggregator) fetchAndUpsert(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch SOTA spots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("SOTA API returned status %d: %s", resp.StatusCode, string(body))
	}

	var spots []sotaSpot
	if err := json.NewDecoder(resp.Body).Decode(&spots); err != nil {
		return fmt.Errorf("failed to decode SOTA response: %w", err)
	}

	upserted := 0
	for i := range spots {
		spot, err := a.mapSpot(&spots[i])
		if err != nil {
			log.Printf("[SOTA] parse error id=%d: %v", spots[i].ID, err)
			continue
		}
		if err := upsertAggregatedSpot(a.DB, spot); err != nil {
			log.Printf("[SOTA] upsert error for %s: %v", spots[i].ActivatorCallsign, err)
			continue
		}
		upserted++
	}

	log.Printf("[SOTA] upserted %d/%d spots", upserted, len(spots))
	return nil
}

func (a *SotaAggregator) mapSpot(spot *sotaSpot) (*models.Spot, error) {
	// Frequency arrives in MHz, convert to kHz.
	frequencyMHz, err := strconv.ParseFloat(spot.Frequency, 64)
	if err != nil {
		return nil, fmt.Errorf("bad frequency %q: %w", spot.Frequency, err)
	}

	spottedAt, err := parseNaiveUTC(spot.TimeStamp)
	if err != nil {
		return nil, fmt.Errorf("bad timeStamp %q: %w", spot.TimeStamp, err)
	}

	externalID := strconv.FormatInt(spot.ID, 10)
	reference := fmt.Sprintf("%s/%s", spot.AssociationCode, spot.SummitCode)
	return &models.Spot{
		Callsign:      spot.ActivatorCallsign,
		ProgramSlug:   strPtr("sota"),
		Source:        models.SpotSourceSota,
		ExternalID:    &externalID,
		FrequencyKHz:  frequencyMHz * 1000.0,
		Mode:          spot.Mode,
		Reference:     &reference,
		ReferenceName: spot.SummitDetails,
		Spotter:       strPtr(spot.Callsign),
		Comments:      spot.Comments,
		SpottedAt:     spottedAt,
		ExpiresAt:     spottedAt.Add(30 * time.Minute),
	}, nil
}
