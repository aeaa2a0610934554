package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportActionable(t *testing.T) {
	r := Report{Records: []FusedRecord{
		{Action: ActionNone},
		{Action: ActionMomentumTrade},
		{Action: ActionMixedSignal},
	}}
	got := r.Actionable()
	assert.Len(t, got, 2)
	assert.Equal(t, ActionMomentumTrade, got[0].Action)

	latest, ok := r.Latest()
	assert.True(t, ok)
	assert.Equal(t, ActionMixedSignal, latest.Action)

	_, ok = Report{}.Latest()
	assert.False(t, ok)
}
