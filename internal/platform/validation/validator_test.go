package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduleDeliveryPayload(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(ScheduleDeliveryPayload{TruckIDs: []int64{1, 2}}))

	err := v.Struct(ScheduleDeliveryPayload{TruckIDs: []int64{1, 1}})
	require.Error(t, err)
	require.Contains(t, Fields(err), "TruckIDs")

	err = v.Struct(ScheduleDeliveryPayload{})
	require.Error(t, err)
}

func TestFields_PlainError(t *testing.T) {
	require.Equal(t, map[string]string{}, Fields(nil))
}
