package holiday

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReasonType(t *testing.T) {
	tests := []struct {
		input   string
		want    ReasonType
		wantErr bool
	}{
		{"NATIONAL", ReasonNational, false},
		{"national", ReasonNational, false},
		{" Bundh ", ReasonBundh, false},
		{"weekend", ReasonWeekend, false},
		{"holiday", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReasonType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReasonType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordValidate(t *testing.T) {
	valid := Record{ID: "1", BranchID: "b1", Date: "2025-08-15", ReasonType: ReasonNational, ReasonText: "Independence Day"}
	assert.NoError(t, valid.Validate())

	badDate := valid
	badDate.Date = "2025-13-01"
	assert.ErrorIs(t, badDate.Validate(), ErrInvalidDate)

	badType := valid
	badType.ReasonType = "PARTY"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidReasonType)

	blankText := valid
	blankText.ReasonText = "   "
	assert.ErrorIs(t, blankText.Validate(), ErrEmptyReasonText)
}
