package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_FollowsTheForwardChain(t *testing.T) {
	chain := []Status{Pending, Accepted, Preparing, Ready, InDelivery, Completed}
	for i := 0; i < len(chain)-1; i++ {
		n, ok := Next(chain[i])
		require.True(t, ok, "expected %s to advance", chain[i])
		assert.Equal(t, chain[i+1], n)
	}
}

func TestNext_TerminalStates(t *testing.T) {
	for _, s := range []Status{Completed, Cancelled} {
		_, ok := Next(s)
		assert.False(t, ok, "%s must be terminal", s)
		assert.True(t, IsTerminal(s))
		assert.False(t, CanAdvance(s))
	}
}

func TestCanTransition_Policies(t *testing.T) {
	tests := []struct {
		name   string
		from   Status
		to     Status
		policy CancelPolicy
		want   bool
	}{
		{"forward step", Pending, Accepted, CancelFromPending, true},
		{"skipping a step", Pending, Preparing, CancelFromPending, false},
		{"backwards", Ready, Preparing, CancelFromPending, false},
		{"cancel from pending, strict", Pending, Cancelled, CancelFromPending, true},
		{"cancel from preparing, strict", Preparing, Cancelled, CancelFromPending, false},
		{"cancel from preparing, any_active", Preparing, Cancelled, CancelFromAnyActive, true},
		{"cancel from completed, any_active", Completed, Cancelled, CancelFromAnyActive, false},
		{"cancel from cancelled, any_active", Cancelled, Cancelled, CancelFromAnyActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to, tt.policy))
		})
	}
}

func TestParseCancelPolicy(t *testing.T) {
	assert.Equal(t, CancelFromAnyActive, ParseCancelPolicy("any_active"))
	assert.Equal(t, CancelFromPending, ParseCancelPolicy("pending_only"))
	assert.Equal(t, CancelFromPending, ParseCancelPolicy(""))
}

func TestActionLabel_SplitsByOrderType(t *testing.T) {
	assert.Equal(t, "Listo para recoger", ActionLabel(Ready, OrderTypePickup))
	assert.Equal(t, "Enviar a domicilio", ActionLabel(Ready, OrderTypeDelivery))
	assert.Equal(t, "Aceptar pedido", ActionLabel(Pending, OrderTypeDelivery))
	assert.Equal(t, "", ActionLabel(Completed, OrderTypePickup))
}

func TestRank_StaleDetection(t *testing.T) {
	assert.Less(t, Rank(Accepted), Rank(Ready))
	assert.Equal(t, -1, Rank(Cancelled))
	assert.Equal(t, -1, Rank(Status("bogus")))
}

func TestDisplayMetadata_CoversEveryState(t *testing.T) {
	for _, s := range []Status{Pending, Accepted, Preparing, Ready, InDelivery, Completed, Cancelled} {
		assert.NotEmpty(t, DisplayLabel(s), "label for %s", s)
		assert.NotEmpty(t, DisplayColor(s), "color for %s", s)
	}
}
