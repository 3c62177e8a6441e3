package holidaysource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	defaultNagerURL    = "https://date.nager.at"
	defaultHTTPTimeout = 10 * time.Second
	defaultCacheTTL    = 24 * time.Hour
)

// NagerSource implements Source using the date.nager.at public holiday API
type NagerSource struct {
	baseURL    string
	country    string
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[int]*cachedYear
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
}

type cachedYear struct {
	data      []Suggestion
	fetchedAt time.Time
}

// nagerHoliday represents one element of the PublicHolidays response
type nagerHoliday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Types       []string `json:"types"`
}

// NewNagerSource creates a new NagerSource instance
func NewNagerSource(baseURL, country string, cacheTTL time.Duration, logger *zap.Logger) *NagerSource {
	if baseURL == "" {
		baseURL = defaultNagerURL
	}
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &NagerSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		country: strings.ToUpper(country),
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:   logger,
		cache:    make(map[int]*cachedYear),
		cacheTTL: cacheTTL,
	}
}

// Holidays returns the country-wide public holidays of year
func (ns *NagerSource) Holidays(ctx context.Context, year int) ([]Suggestion, error) {
	ns.cacheMu.RLock()
	if cached, ok := ns.cache[year]; ok {
		if time.Since(cached.fetchedAt) < ns.cacheTTL {
			ns.cacheMu.RUnlock()
			ns.logger.Debug("Using cached holidays", zap.Int("year", year))
			return append([]Suggestion(nil), cached.data...), nil
		}
	}
	ns.cacheMu.RUnlock()

	suggestions, err := ns.fetchYear(ctx, year)
	if err != nil {
		return nil, err
	}

	ns.cacheMu.Lock()
	ns.cache[year] = &cachedYear{
		data:      suggestions,
		fetchedAt: time.Now(),
	}
	ns.cacheMu.Unlock()

	return append([]Suggestion(nil), suggestions...), nil
}

// fetchYear fetches one year from the API
func (ns *NagerSource) fetchYear(ctx context.Context, year int) ([]Suggestion, error) {
	// Build URL: https://date.nager.at/api/v3/PublicHolidays/2025/IN
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", ns.baseURL, year, ns.country)

	ns.logger.Debug("Fetching public holidays",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ns.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 204 means the country code is unknown to the API
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	suggestions := ns.toSuggestions(year, raw)

	ns.logger.Info("Public holidays fetched",
		zap.Int("year", year),
		zap.String("country", ns.country),
		zap.Int("received", len(raw)),
		zap.Int("kept", len(suggestions)))

	return suggestions, nil
}

// toSuggestions keeps country-wide holidays of year, one per date
func (ns *NagerSource) toSuggestions(year int, raw []nagerHoliday) []Suggestion {
	seen := make(map[string]bool, len(raw))
	suggestions := make([]Suggestion, 0, len(raw))

	for _, h := range raw {
		if !h.Global {
			continue
		}

		date, err := dateutil.ParseDate(h.Date)
		if err != nil || date.Year() != year {
			ns.logger.Warn("Skipping holiday with unexpected date",
				zap.String("date", h.Date),
				zap.String("name", h.Name))
			continue
		}

		key := dateutil.FormatDate(date)
		if seen[key] {
			continue
		}
		seen[key] = true

		text := h.Name
		if text == "" {
			text = h.LocalName
		}

		suggestions = append(suggestions, Suggestion{
			Date:       key,
			ReasonType: reasonTypeFor(h.Types),
			ReasonText: text,
		})
	}

	sortSuggestions(suggestions)
	return suggestions
}

// reasonTypeFor maps the API holiday types to a reason type
func reasonTypeFor(types []string) holiday.ReasonType {
	for _, t := range types {
		switch t {
		case "Public", "Bank":
			return holiday.ReasonNational
		}
	}
	return holiday.ReasonSpecial
}
