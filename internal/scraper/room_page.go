package scraper

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/uf-rooms-api/internal/models"
)

var (
	campusURLPattern = regexp.MustCompile(`https://campusmap\.ufl\.edu/[^"'\s\\]+`)
	titlePattern     = regexp.MustCompile(`\(([A-Za-z0-9]+)\)\s*(?:Room\s*)?([A-Za-z0-9-]+)\s*$`)
	digitsPattern    = regexp.MustCompile(`\d+`)
)

// ParseRoomPage extracts room metadata from a campus map room detail page. sourceURL is
// used to resolve relative image links and as the detail URL when the page has no
// canonical link.
func ParseRoomPage(r io.Reader, sourceURL string) (models.RoomMetadataRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.RoomMetadataRecord{}, fmt.Errorf("parse room page: %w", err)
	}

	var base *url.URL
	if sourceURL != "" {
		base, _ = url.Parse(sourceURL)
	}
	record := models.RoomMetadataRecord{FeatureFlags: map[string]bool{}}

	building, room := roomIdentity(doc)
	if building == "" || room == "" {
		return models.RoomMetadataRecord{}, fmt.Errorf("room page %s has no building code or room number", sourceURL)
	}
	record.BuildingCode = models.FlexString(building)
	record.RoomNumber = models.FlexString(room)

	for label, value := range detailPairs(doc) {
		key := strings.ToLower(label)
		switch {
		case strings.Contains(key, "capacity"):
			if digits := digitsPattern.FindString(value); digits != "" {
				record.Capacity = models.FlexString(digits)
			}
		default:
			if flag, ok := parseYesNo(value); ok {
				record.FeatureFlags[featureKey(label)] = flag
			}
		}
	}

	doc.Find(".room-features li, ul.features li").Each(func(_ int, s *goquery.Selection) {
		if text := collapse(s.Text()); text != "" {
			record.Features = append(record.Features, text)
		}
	})

	doc.Find(".room-gallery img, .gallery img").Each(func(_ int, s *goquery.Selection) {
		if src := resolve(base, s.AttrOr("src", "")); src != "" {
			record.Gallery = append(record.Gallery, src)
		}
	})
	record.Photo = resolve(base, doc.Find("img.room-photo").First().AttrOr("src", ""))
	if record.Photo == "" && len(record.Gallery) > 0 {
		record.Photo = record.Gallery[0]
	}

	record.DetailURL = resolve(base, doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	if record.DetailURL == "" {
		record.DetailURL = sourceURL
	}
	if len(record.FeatureFlags) == 0 {
		record.FeatureFlags = nil
	}
	return record, nil
}

// ExtractCampusURLs lists the distinct campus map links referenced in a script or page.
func ExtractCampusURLs(text string) []string {
	seen := make(map[string]struct{})
	for _, match := range campusURLPattern.FindAllString(text, -1) {
		seen[match] = struct{}{}
	}
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// roomIdentity prefers data attributes and falls back to a "Name (CODE) 0101" heading.
func roomIdentity(doc *goquery.Document) (string, string) {
	node := doc.Find("[data-building-code]").First()
	building := strings.TrimSpace(node.AttrOr("data-building-code", ""))
	room := strings.TrimSpace(doc.Find("[data-room-number]").First().AttrOr("data-room-number", ""))
	if building == "" {
		building = collapse(doc.Find(".building-code").First().Text())
	}
	if room == "" {
		room = collapse(doc.Find(".room-number").First().Text())
	}
	if building != "" && room != "" {
		return strings.ToUpper(building), strings.ToUpper(room)
	}

	heading := collapse(doc.Find("h1").First().Text())
	if heading == "" {
		heading = collapse(doc.Find("title").Text())
	}
	if m := titlePattern.FindStringSubmatch(heading); m != nil {
		if building == "" {
			building = m[1]
		}
		if room == "" {
			room = m[2]
		}
	}
	return strings.ToUpper(building), strings.ToUpper(room)
}

// detailPairs collects label/value pairs from definition lists and two-column tables.
func detailPairs(doc *goquery.Document) map[string]string {
	pairs := make(map[string]string)
	doc.Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.TrimSuffix(collapse(dt.Text()), ":")
		value := collapse(dt.NextFiltered("dd").Text())
		if label != "" {
			pairs[label] = value
		}
	})
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		label := strings.TrimSuffix(collapse(cells.Eq(0).Text()), ":")
		if label != "" {
			pairs[label] = collapse(cells.Eq(1).Text())
		}
	})
	return pairs
}

func parseYesNo(value string) (bool, bool) {
	return models.FlexString(value).Bool()
}

// featureKey turns "Document Camera" into "documentCamera".
func featureKey(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	var b strings.Builder
	for i, word := range words {
		word = strings.ToLower(word)
		if i > 0 {
			word = strings.ToUpper(word[:1]) + word[1:]
		}
		b.WriteString(word)
	}
	return b.String()
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil || parsed.IsAbs() {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
