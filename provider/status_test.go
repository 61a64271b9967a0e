package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTable_Resolve(t *testing.T) {
	table := StatusTable{
		Success: []string{"COMPLETE"},
		Pending: []string{"PENDING", "AMBIGUOUS"},
	}

	tests := []struct {
		value    string
		expected PaymentStatus
	}{
		{"COMPLETE", StatusSuccess},
		{"PENDING", StatusPending},
		{"AMBIGUOUS", StatusPending},
		{"complete", StatusFailed},
		{"CANCELED", StatusFailed},
		{"", StatusFailed},
		{"NOT_FOUND", StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.Resolve(tt.value))
		})
	}
}

func TestStatusTable_EmptyIsAlwaysFailed(t *testing.T) {
	assert.Equal(t, StatusFailed, StatusTable{}.Resolve("SUCCESS"))
}

func TestAnySuccess(t *testing.T) {
	assert.Equal(t, StatusFailed, AnySuccess())
	assert.Equal(t, StatusFailed, AnySuccess(false, false, false))
	assert.Equal(t, StatusSuccess, AnySuccess(false, true, false))
	assert.Equal(t, StatusSuccess, AnySuccess(true, true))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
	assert.Equal(t, "", FirstNonEmpty())
}
