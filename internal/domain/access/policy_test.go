package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestStateOf(t *testing.T) {
	tests := []struct {
		name string
		sc   SiteControl
		want State
	}{
		{name: "live", sc: SiteControl{IsLive: true}, want: Live},
		{name: "manual", sc: SiteControl{PausedReason: strPtr(ReasonManual)}, want: PausedManual},
		{name: "overdue", sc: SiteControl{PausedReason: strPtr(ReasonInvoiceOverdue)}, want: PausedOverdue},
		{name: "paused without reason", sc: SiteControl{}, want: PausedManual},
		{name: "unknown reason", sc: SiteControl{PausedReason: strPtr("maintenance")}, want: PausedManual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sc.State())
		})
	}
}

func TestLiveColumnsClearReason(t *testing.T) {
	isLive, reason := Live.Columns()
	assert.True(t, isLive)
	assert.Nil(t, reason)

	isLive, reason = PausedOverdue.Columns()
	assert.False(t, isLive)
	require.NotNil(t, reason)
	assert.Equal(t, ReasonInvoiceOverdue, *reason)

	isLive, reason = PausedManual.Columns()
	assert.False(t, isLive)
	require.NotNil(t, reason)
	assert.Equal(t, ReasonManual, *reason)
}

func TestNext(t *testing.T) {
	live := SiteControl{IsLive: true, AutoPauseEnabled: true}
	liveNoAuto := SiteControl{IsLive: true}
	manual := SiteControl{PausedReason: strPtr(ReasonManual), AutoPauseEnabled: true}
	overdue := SiteControl{PausedReason: strPtr(ReasonInvoiceOverdue), AutoPauseEnabled: true}

	tests := []struct {
		name    string
		sc      SiteControl
		trigger Trigger
		want    State
		illegal bool
	}{
		{name: "auto pause live site", sc: live, trigger: AutoPause, want: PausedOverdue},
		{name: "auto pause disabled", sc: liveNoAuto, trigger: AutoPause, illegal: true},
		{name: "auto pause never downgrades manual", sc: manual, trigger: AutoPause, illegal: true},
		{name: "auto pause already overdue", sc: overdue, trigger: AutoPause, illegal: true},
		{name: "auto resume overdue", sc: overdue, trigger: AutoResume, want: Live},
		{name: "auto resume never lifts manual", sc: manual, trigger: AutoResume, illegal: true},
		{name: "auto resume live site", sc: live, trigger: AutoResume, illegal: true},
		{name: "manual pause live", sc: live, trigger: ManualPause, want: PausedManual},
		{name: "manual pause takes over overdue", sc: overdue, trigger: ManualPause, want: PausedManual},
		{name: "manual resume manual", sc: manual, trigger: ManualResume, want: Live},
		{name: "manual resume overdue", sc: overdue, trigger: ManualResume, want: Live},
		{name: "unknown trigger", sc: live, trigger: Trigger("reboot"), illegal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Next(tt.sc, tt.trigger)
			if tt.illegal {
				require.ErrorIs(t, err, ErrIllegalTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sc.State(), tr.From)
			assert.Equal(t, tt.want, tr.To)
		})
	}
}

func TestTransitionLiveness(t *testing.T) {
	assert.True(t, Transition{From: Live, To: PausedOverdue}.ChangesLiveness())
	assert.True(t, Transition{From: PausedManual, To: Live}.ChangesLiveness())
	assert.False(t, Transition{From: PausedOverdue, To: PausedManual}.ChangesLiveness())
	assert.True(t, Transition{From: Live, To: Live}.IsNoop())
}

func TestNewSiteControlStartsLive(t *testing.T) {
	sc := NewSiteControl(uuid.New(), false)
	assert.Equal(t, Live, sc.State())
	assert.False(t, sc.AutoPauseEnabled)
}
