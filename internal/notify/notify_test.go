package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, zap.NewNop())

	c.Info("Please select a branch first")
	c.Success("Holiday saved")
	c.Error("Failed to save holiday")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Please select a branch first")
	assert.True(t, strings.HasPrefix(lines[1], "✅"))
	assert.True(t, strings.HasPrefix(lines[2], "❌"))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Info("a")
	r.Error("b")
	r.Info("c")

	assert.Equal(t, 2, r.Count(LevelInfo))
	assert.Equal(t, 1, r.Count(LevelError))
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, Notification{Level: LevelInfo, Message: "c"}, last)
	assert.Len(t, r.All(), 3)
}

func TestPromptConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompt(strings.NewReader(tt.input), &out)

			got, err := p.Confirm("Remove all 3 weekend holidays for year 2025?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Remove all 3 weekend holidays for year 2025?")
		})
	}
}

func TestAutoConfirm(t *testing.T) {
	ok, err := AutoConfirm(true).Confirm("anything")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = AutoConfirm(false).Confirm("anything")
	assert.False(t, ok)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(0).String())
}
