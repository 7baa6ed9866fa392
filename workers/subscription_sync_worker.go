// workers/subscription_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"community-hub-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillingSyncClient polls the billing service for subscription changes and
// mirrors them locally. The billing service owns the source of truth; the
// mirror only gates member-only surfaces.
type BillingSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewBillingSyncClient(db *gorm.DB) *BillingSyncClient {
	baseURL := os.Getenv("BILLING_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("BILLING_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("HUB_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("HUB_SERVICE_TOKEN environment variable is required for billing sync")
	}

	return &BillingSyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *BillingSyncClient) GetChangedSubscriptions(ctx context.Context, since time.Time) ([]models.SubscriptionMirror, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/subscriptions", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call billing service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("billing service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Subscriptions []models.SubscriptionMirror `json:"subscriptions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode billing service response: %w", err)
	}

	return response.Subscriptions, nil
}

// PollSubscriptions persists billing changes into subscription_mirrors
func PollSubscriptions(ctx context.Context, client *BillingSyncClient, pollInterval time.Duration) {
	log.Println("Starting subscription polling (DB-backed)...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Subscription polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()

			subs, err := client.GetChangedSubscriptions(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling subscriptions: %v", err)
				continue
			}

			count := len(subs)
			if count == 0 {
				continue
			}

			// Bulk upsert in one statement (PostgreSQL ON CONFLICT)
			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "user_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"plan",
						"status",
						"current_period_end",
						"canceled_at",
						"updated_at",
					}),
				},
			).Create(&subs).Error; err != nil {
				log.Printf("❌ Failed to upsert %d subscription(s): %v", count, err)
				// Do NOT advance lastSyncTime on failure; retry same window next tick
				continue
			}

			lastSyncTime = logTime
			log.Printf("✅ Upserted %d subscription(s) into subscription_mirrors.", count)
		}
	}
}

// GetSubscriptionForUser queries the local mirror
func GetSubscriptionForUser(db *gorm.DB, userID string) (models.SubscriptionMirror, bool, error) {
	var sub models.SubscriptionMirror
	if err := db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return sub, false, nil
		}
		return sub, false, err
	}
	return sub, true, nil
}
