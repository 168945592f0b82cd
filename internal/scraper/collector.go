package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

// Collector turns saved room pages or live campus map URLs into a metadata snapshot.
type Collector struct {
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewCollector constructs a Collector. A nil client uses a client with a 15s timeout.
func NewCollector(client *http.Client, logger *zap.Logger) *Collector {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{client: client, logger: logger, now: time.Now}
}

// Collect parses every source and keeps the last record per building and room. Sources
// that fail to load or parse are logged and skipped; an error is returned only when no
// source produced a record.
func (c *Collector) Collect(ctx context.Context, sources []string, label string) (*models.MetadataSnapshot, error) {
	index := make(map[string]int)
	snapshot := &models.MetadataSnapshot{
		FetchedAt: models.FlexString(c.now().UTC().Format(time.RFC3339)),
		Source:    models.FlexString(label),
		Rooms:     []models.RoomMetadataRecord{},
	}
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := c.load(ctx, source)
		if err != nil {
			c.logger.Warn("room page skipped", zap.String("source", source), zap.Error(err))
			continue
		}
		key := strings.ToUpper(record.BuildingCode.String()) + "|" + models.PadRoomNumber(record.RoomNumber.String())
		if i, ok := index[key]; ok {
			snapshot.Rooms[i] = record
			continue
		}
		index[key] = len(snapshot.Rooms)
		snapshot.Rooms = append(snapshot.Rooms, record)
	}
	if len(snapshot.Rooms) == 0 && len(sources) > 0 {
		return nil, fmt.Errorf("no room pages could be parsed from %d sources", len(sources))
	}
	return snapshot, nil
}

func (c *Collector) load(ctx context.Context, source string) (models.RoomMetadataRecord, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return c.fetch(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return models.RoomMetadataRecord{}, err
	}
	defer f.Close()
	return ParseRoomPage(f, "")
}

func (c *Collector) fetch(ctx context.Context, pageURL string) (models.RoomMetadataRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return models.RoomMetadataRecord{}, err
	}
	req.Header.Set("User-Agent", "uf-rooms-metadata/1.0")
	resp, err := c.client.Do(req)
	if err != nil {
		return models.RoomMetadataRecord{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.RoomMetadataRecord{}, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	return ParseRoomPage(resp.Body, pageURL)
}
