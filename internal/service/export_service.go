package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uf-rooms-api/internal/dto"
	"github.com/noah-isme/uf-rooms-api/internal/models"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/export"
)

var availabilityCSVHeaders = []string{"building_code", "building_name", "room", "size", "capacity", "day", "period", "start", "end"}

var icsWeekdays = map[string]string{
	"M":  "MO",
	"T":  "TU",
	"W":  "WE",
	"TH": "TH",
	"F":  "FR",
	"S":  "SA",
	"SU": "SU",
}

type availabilityReader interface {
	Loaded() bool
	Location() *time.Location
	Query(ctx context.Context, query dto.AvailabilityQuery) (*models.AvailabilityDataset, *models.TimeContext, error)
	Building(ctx context.Context, code string) (*models.BuildingAvailability, *models.TimeContext, error)
	Room(ctx context.Context, code, roomNumber string) (*dto.RoomResponse, *models.TimeContext, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders availability as CSV, PDF and iCalendar downloads.
type ExportService struct {
	availability availabilityReader
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	calendar     *export.CalendarExporter
	logger       *zap.Logger
	now          func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(availability availabilityReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	pdf := export.NewPDFExporter()
	pdf.Widths = map[string]float64{"Room": 1, "Size": 1, "Capacity": 1, "M": 2, "T": 2, "W": 2, "TH": 2, "F": 2, "S": 2, "SU": 2}
	return &ExportService{
		availability: availability,
		csv:          export.NewCSVExporter(),
		pdf:          pdf,
		calendar:     export.NewCalendarExporter(""),
		logger:       logger,
		now:          time.Now,
	}
}

// AvailabilityCSV flattens the filtered dataset into one row per open period.
func (s *ExportService) AvailabilityCSV(ctx context.Context, query dto.AvailabilityQuery) (*ExportFile, error) {
	if !s.availability.Loaded() {
		return nil, appErrors.ErrNotReady
	}
	dataset, _, err := s.availability.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0)
	for _, building := range dataset.Buildings {
		for _, room := range building.Rooms {
			capacity := ""
			if room.Metadata != nil && room.Metadata.Capacity != nil {
				capacity = strconv.Itoa(*room.Metadata.Capacity)
			}
			for _, size := range SortedSizes(room) {
				for _, period := range room.Availability[size].Periods {
					rows = append(rows, map[string]string{
						"building_code": building.Code,
						"building_name": building.Name,
						"room":          room.RoomNumber,
						"size":          size,
						"capacity":      capacity,
						"day":           period.Day,
						"period":        period.Period,
						"start":         period.Start,
						"end":           period.End,
					})
				}
			}
		}
	}

	content, err := s.csv.Render(export.Dataset{Headers: availabilityCSVHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("availability-%s.csv", s.now().UTC().Format("20060102")),
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

// BuildingSchedulePDF renders a weekly grid of open periods for every room of a building.
func (s *ExportService) BuildingSchedulePDF(ctx context.Context, code string) (*ExportFile, error) {
	if !s.availability.Loaded() {
		return nil, appErrors.ErrNotReady
	}
	building, _, err := s.availability.Building(ctx, code)
	if err != nil {
		return nil, err
	}

	headers := append([]string{"Room", "Size", "Capacity"}, weekSequence[:]...)
	rows := make([]map[string]string, 0, len(building.Rooms))
	for _, room := range building.Rooms {
		capacity := ""
		if room.Metadata != nil && room.Metadata.Capacity != nil {
			capacity = strconv.Itoa(*room.Metadata.Capacity)
		}
		for _, size := range SortedSizes(room) {
			row := map[string]string{"Room": room.RoomNumber, "Size": size, "Capacity": capacity}
			byDay := make(map[string][]string)
			for _, period := range room.Availability[size].Periods {
				day := canonicalDay(period.Day)
				byDay[day] = append(byDay[day], period.Period)
			}
			for day, codes := range byDay {
				row[day] = strings.Join(codes, ", ")
			}
			rows = append(rows, row)
		}
	}

	title := building.Code
	if building.Name != "" {
		title = fmt.Sprintf("%s - %s", building.Code, building.Name)
	}
	subtitle := fmt.Sprintf("Open periods as of %s", s.now().UTC().Format("2006-01-02 15:04 MST"))
	content, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, title, subtitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-schedule.pdf", strings.ToLower(building.Code)),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// RoomCalendar renders the open periods of one room and bucket as weekly recurring events.
// An empty size selects the room's smallest bucket.
func (s *ExportService) RoomCalendar(ctx context.Context, code, roomNumber, size string) (*ExportFile, error) {
	if !s.availability.Loaded() {
		return nil, appErrors.ErrNotReady
	}
	loc := s.availability.Location()
	if loc == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "campus timezone unavailable")
	}
	result, _, err := s.availability.Room(ctx, code, roomNumber)
	if err != nil {
		return nil, err
	}
	room := result.Room

	size = normalizeSizeKey(size)
	if size == "" {
		sizes := SortedSizes(room)
		if len(sizes) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room has no availability")
		}
		size = sizes[0]
	}
	entry, ok := room.Availability[size]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "size bucket not found")
	}

	buildingCode := result.Building.Code
	place := strings.TrimSpace(buildingCode + " " + room.RoomNumber)
	now := s.now().In(loc)
	events := make([]export.CalendarEvent, 0, len(entry.Periods))
	for _, period := range entry.Periods {
		day := canonicalDay(period.Day)
		weekday, known := icsWeekdays[day]
		if !known {
			s.logger.Debug("skipping period with unknown day", zap.String("day", period.Day), zap.String("room", place))
			continue
		}
		start, end := nextOccurrence(now, dayIndex(day), period.StartMinutes, period.EndMinutes)
		events = append(events, export.CalendarEvent{
			UID:         fmt.Sprintf("%s-%s-%s-%s-%s@ufrooms", buildingCode, room.RoomNumber, size, day, period.Period),
			Summary:     fmt.Sprintf("%s open (period %s)", place, period.Period),
			Location:    place,
			Description: fmt.Sprintf("Size %s, %s to %s", size, period.Start, period.End),
			Start:       start,
			End:         end,
			Weekday:     weekday,
		})
	}

	content, err := s.calendar.Render(place+" availability", loc, events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s-%s.ics", strings.ToLower(buildingCode), room.RoomNumber, strings.ToLower(size)),
		ContentType: "text/calendar; charset=utf-8",
		Content:     content,
	}, nil
}

// nextOccurrence returns the first start on or after today's date for the given week index.
func nextOccurrence(now time.Time, day, startMinutes, endMinutes int) (time.Time, time.Time) {
	today := dayIndex(weekdayCodes[now.Weekday()])
	offset := (day - today + len(weekSequence)) % len(weekSequence)
	y, m, d := now.Date()
	loc := now.Location()
	start := time.Date(y, m, d+offset, startMinutes/60, startMinutes%60, 0, 0, loc)
	end := time.Date(y, m, d+offset, endMinutes/60, endMinutes%60, 0, 0, loc)
	return start, end
}
