package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		total     string
		paid      string
		status    Status
		overpaid  string
		remaining string
	}{
		{"exact", "100", "100", StatusSuccessful, "0", "0"},
		{"overpaid", "100", "150", StatusSuccessful, "50", "0"},
		{"underpaid", "100", "70", StatusPending, "0", "30"},
		{"nothing paid", "100", "0", StatusPending, "0", "100"},
		{"cents exact", "19.99", "19.99", StatusSuccessful, "0", "0"},
		{"cents over", "19.99", "20.00", StatusSuccessful, "0.01", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(dec(tt.total), dec(tt.paid))

			assert.Equal(t, tt.status, out.Status)
			assert.True(t, dec(tt.overpaid).Equal(out.Overpaid), "overpaid = %s", out.Overpaid)
			assert.True(t, dec(tt.remaining).Equal(out.Remaining), "remaining = %s", out.Remaining)
		})
	}
}

func TestClassify_OneDeltaAtMost(t *testing.T) {
	out := Classify(dec("42"), dec("42"))
	assert.False(t, out.Overpaid.IsPositive() && out.Remaining.IsPositive())
}
