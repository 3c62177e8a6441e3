package holidaysource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/holiday-console/internal/holiday"
	"go.uber.org/zap"
)

const nagerPayload = `[
  {"date":"2025-01-26","localName":"Republic Day","name":"Republic Day","countryCode":"IN","global":true,"types":["Public"]},
  {"date":"2025-08-15","localName":"Independence Day","name":"Independence Day","countryCode":"IN","global":true,"types":["Public"]},
  {"date":"2025-08-15","localName":"Parsi New Year","name":"Parsi New Year","countryCode":"IN","global":true,"types":["Optional"]},
  {"date":"2025-03-14","localName":"Holi","name":"Holi","countryCode":"IN","global":false,"types":["Public"]},
  {"date":"2025-10-02","localName":"Gandhi Jayanti","name":"","countryCode":"IN","global":true,"types":["Observance"]}
]`

func newNagerServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/api/v3/PublicHolidays/2025/IN" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, nagerPayload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNagerSource_Holidays(t *testing.T) {
	var hits int32
	srv := newNagerServer(t, &hits)
	src := NewNagerSource(srv.URL, "in", time.Hour, zap.NewNop())

	got, err := src.Holidays(context.Background(), 2025)
	require.NoError(t, err)

	want := []Suggestion{
		{Date: "2025-01-26", ReasonType: holiday.ReasonNational, ReasonText: "Republic Day"},
		{Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"},
		{Date: "2025-10-02", ReasonType: holiday.ReasonSpecial, ReasonText: "Gandhi Jayanti"},
	}
	assert.Equal(t, want, got)

	// Second call is served from cache
	_, err = src.Holidays(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

}

func TestNagerSource_CacheExpires(t *testing.T) {
	var hits int32
	srv := newNagerServer(t, &hits)
	src := NewNagerSource(srv.URL, "IN", time.Nanosecond, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := src.Holidays(context.Background(), 2025)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestNagerSource_StatusError(t *testing.T) {
	var hits int32
	srv := newNagerServer(t, &hits)
	src := NewNagerSource(srv.URL, "IN", time.Hour, zap.NewNop())

	_, err := src.Holidays(context.Background(), 2031)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func writeHolidayFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holidays.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_Holidays(t *testing.T) {
	path := writeHolidayFile(t, `# national holidays
2025-08-15 NATIONAL Independence Day
2025-01-26 national Republic Day
2025-10-20 FESTIVAL Diwali
2024-12-25 FESTIVAL Christmas
not-a-date NATIONAL Broken
2025-05-01 PARTY Unknown type
2025-06-01 OTHER
`)
	src := NewFileSource(path, zap.NewNop())

	got, err := src.Holidays(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01-26", got[0].Date)
	assert.Equal(t, holiday.ReasonNational, got[0].ReasonType)
	assert.Equal(t, "Independence Day", got[1].ReasonText)
	assert.Equal(t, holiday.ReasonFestival, got[2].ReasonType)

	got2024, err := src.Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, got2024, 1)

	_, err = src.Holidays(context.Background(), 2026)
	assert.Error(t, err)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.txt"), zap.NewNop())
	_, err := src.Holidays(context.Background(), 2025)
	assert.Error(t, err)
}

type stubSource struct {
	suggestions []Suggestion
	err         error
	calls       int
}

func (s *stubSource) Holidays(_ context.Context, _ int) ([]Suggestion, error) {
	s.calls++
	return s.suggestions, s.err
}

func TestCompositeSource(t *testing.T) {
	fallbackData := []Suggestion{{Date: "2025-08-15", ReasonType: holiday.ReasonNational, ReasonText: "Independence Day"}}

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubSource{suggestions: []Suggestion{{Date: "2025-01-26"}}}
		fallback := &stubSource{suggestions: fallbackData}
		cs := NewCompositeSource(primary, fallback, zap.NewNop())

		got, err := cs.Holidays(context.Background(), 2025)
		require.NoError(t, err)
		assert.Equal(t, "2025-01-26", got[0].Date)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("falls back on primary error", func(t *testing.T) {
		primary := &stubSource{err: errors.New("offline")}
		fallback := &stubSource{suggestions: fallbackData}
		cs := NewCompositeSource(primary, fallback, zap.NewNop())

		got, err := cs.Holidays(context.Background(), 2025)
		require.NoError(t, err)
		assert.Equal(t, fallbackData, got)
	})

	t.Run("both fail", func(t *testing.T) {
		primaryErr := errors.New("offline")
		cs := NewCompositeSource(&stubSource{err: primaryErr}, &stubSource{err: errors.New("no file")}, zap.NewNop())

		_, err := cs.Holidays(context.Background(), 2025)
		require.Error(t, err)
		assert.ErrorIs(t, err, primaryErr)
	})
}
