package officina

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	require.Equal(t, CategoryUrgent, Classify("1", strPtr("car won't start")))
	require.Equal(t, CategoryAppointment, Classify("1", strPtr("can still drive")))
	require.Equal(t, CategoryAppointment, Classify("1", nil))
	require.Equal(t, CategoryAppointment, Classify("2", strPtr("anything")))
	require.Equal(t, CategoryAppointment, Classify("2", nil))
	require.Equal(t, CategoryQuote, Classify("3", strPtr("anything")))
	require.Equal(t, CategoryQuote, Classify("3", nil))
	require.Equal(t, CategoryAppointment, Classify("", nil))
	require.Equal(t, CategoryAppointment, Classify("7", nil))
}
