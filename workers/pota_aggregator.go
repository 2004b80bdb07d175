package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carrierwave-activities/models"

	"gorm.io/gorm"
)

const potaSpotsURL = "https://api.pota.app/spot/activator"

// PotaAggregator polls the POTA activator spot feed and mirrors it into the
// spots table.
type PotaAggregator struct {
	DB         *gorm.DB
	URL        string
	HTTPClient *http.Client
}

func NewPotaAggregator(db *gorm.DB) *PotaAggregator {
	return &PotaAggregator{
		DB:  db,
		URL: potaSpotsURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// potaSpot is the upstream JSON shape from the POTA activator endpoint.
type potaSpot struct {
	SpotID       int64   `json:"spotId"`
	Activator    string  `json:"activator"`
	Frequency    string  `json:"frequency"`
	Mode         string  `json:"mode"`
	Reference    string  `json:"reference"`
	ParkName     *string `json:"parkName"`
	SpotTime     string  `json:"spotTime"`
	Spotter      *string `json:"spotter"`
	Comments     *string `json:"comments"`
	LocationDesc *string `json:"locationDesc"`
	// Seconds until the spot expires. Absent or 0 means the 30 min default.
	Expire *int64 `json:"expire"`
}

// Start polls every 60 seconds until the context is cancelled.
func (a *PotaAggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	log.Println("[POTA] aggregator started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[POTA] aggregator stopped")
			return
		case <-ticker.C:
			if err := a.fetchAndUpsert(ctx); err != nil {
				log.Printf("[POTA] aggregator error: %v", err)
			}
		}
	}
}

func (a *PotaAggregator) fetchAndUpsert(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch POTA spots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POTA API returned status %d: %s", resp.StatusCode, string(body))
	}

	var spots []potaSpot
	if err := json.NewDecoder(resp.Body).Decode(&spots); err != nil {
		return fmt.Errorf("failed to decode POTA response: %w", err)
	}

	upserted := 0
	for i := range spots {
		spot, err := a.mapSpot(&spots[i])
		if err != nil {
			log.Printf("[POTA] parse error spotId=%d: %v", spots[i].SpotID, err)
			continue
		}
		if err := upsertAggregatedSpot(a.DB, spot); err != nil {
			log.Printf("[POTA] upsert error for %s: %v", spots[i].Activator, err)
			continue
		}
		upserted++
	}

	log.Printf("[POTA] upserted %d/%d spots", upserted, len(spots))
	return nil
}

func (a *PotaAggregator) mapSpot(spot *potaSpot) (*models.Spot, error) {
	frequencyKHz, err := strconv.ParseFloat(spot.Frequency, 64)
	if err != nil {
		return nil, fmt.Errorf("bad frequency %q: %w", spot.Frequency, err)
	}

	spottedAt, err := parseNaiveUTC(spot.SpotTime)
	if err != nil {
		return nil, fmt.Errorf("bad spotTime %q: %w", spot.SpotTime, err)
	}

	expiresAt := time.Now().UTC().Add(30 * time.Minute)
	if spot.Expire != nil && *spot.Expire > 0 {
		expiresAt = time.Now().UTC().Add(time.Duration(*spot.Expire) * time.Second)
	}

	// locationDesc like "US-WY" splits into country / state.
	var countryCode, stateAbbr *string
	if spot.LocationDesc != nil {
		parts := strings.SplitN(*spot.LocationDesc, "-", 2)
		countryCode = strPtr(parts[0])
		if len(parts) == 2 {
			stateAbbr = strPtr(parts[1])
		}
	}

	externalID := strconv.FormatInt(spot.SpotID, 10)
	return &models.Spot{
		Callsign:      spot.Activator,
		ProgramSlug:   strPtr("pota"),
		Source:        models.SpotSourcePota,
		ExternalID:    &externalID,
		FrequencyKHz:  frequencyKHz,
		Mode:          spot.Mode,
		Reference:     strPtr(spot.Reference),
		ReferenceName: spot.ParkName,
		Spotter:       spot.Spotter,
		LocationDesc:  spot.LocationDesc,
		CountryCode:   countryCode,
		StateAbbr:     stateAbbr,
		Comments:      spot.Comments,
		SpottedAt:     spottedAt,
		ExpiresAt:     expiresAt,
	}, nil
}
