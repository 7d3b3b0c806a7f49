package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpeakerSlotBounded(t *testing.T) {
	ids := []string{"", "a", "PA_abc123", "PA_zzz999", "участник", "a-very-long-session-identifier-0000000001"}
	for _, id := range ids {
		slot := SpeakerSlot(id)
		require.GreaterOrEqual(t, slot, 0, "id %q", id)
		require.Less(t, slot, SpeakerSlots, "id %q", id)
	}
}

func TestSpeakerSlotDeterministic(t *testing.T) {
	require.Equal(t, SpeakerSlot("PA_abc123"), SpeakerSlot("PA_abc123"))
}

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleHost, ParseRole("HOST"))
	require.Equal(t, RoleCoHost, ParseRole("CO_HOST"))
	require.Equal(t, RoleParticipant, ParseRole("guest"))
	require.Equal(t, RoleParticipant, ParseRole(""))
}
