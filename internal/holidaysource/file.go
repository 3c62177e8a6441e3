package holidaysource

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/pkg/dateutil"
	"go.uber.org/zap"
)

// FileSource implements Source using a local text file
type FileSource struct {
	filePath string
	logger   *zap.Logger
	mu       sync.RWMutex
	loaded   bool
	data     map[int][]Suggestion // key: year
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
		data:     make(map[int][]Suggestion),
	}
}

// Load loads holiday data from file
func (fs *FileSource) Load() error {
	file, err := os.Open(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to open holiday file: %w", err)
	}
	defer file.Close()

	data := make(map[int][]Suggestion)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD TYPE reason text
		// Example: 2025-08-15 NATIONAL Independence Day
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 {
			fs.logger.Warn("Invalid line format", zap.String("line", line))
			continue
		}

		date, err := dateutil.ParseDate(parts[0])
		if err != nil {
			fs.logger.Warn("Failed to parse date", zap.String("date", parts[0]), zap.Error(err))
			continue
		}

		reasonType, err := holiday.ParseReasonType(parts[1])
		if err != nil {
			fs.logger.Warn("Unknown reason type", zap.String("type", parts[1]))
			continue
		}

		text := strings.TrimSpace(parts[2])
		if text == "" {
			fs.logger.Warn("Missing reason text", zap.String("line", line))
			continue
		}

		data[date.Year()] = append(data[date.Year()], Suggestion{
			Date:       dateutil.FormatDate(date),
			ReasonType: reasonType,
			ReasonText: text,
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading holiday file: %w", err)
	}

	for year := range data {
		sortSuggestions(data[year])
	}

	fs.mu.Lock()
	fs.data = data
	fs.loaded = true
	fs.mu.Unlock()

	fs.logger.Info("Holiday file loaded",
		zap.String("file", fs.filePath),
		zap.Int("years", len(data)))

	return nil
}

// Holidays returns the suggestions for year, loading the file on first use
func (fs *FileSource) Holidays(_ context.Context, year int) ([]Suggestion, error) {
	fs.mu.RLock()
	loaded := fs.loaded
	fs.mu.RUnlock()

	if !loaded {
		if err := fs.Load(); err != nil {
			return nil, err
		}
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	suggestions, ok := fs.data[year]
	if !ok {
		return nil, fmt.Errorf("year not found in holiday file: %d", year)
	}

	return append([]Suggestion(nil), suggestions...), nil
}

func sortSuggestions(s []Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Date < s[j].Date
	})
}
