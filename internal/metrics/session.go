// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_rotations_total",
		Help: "Total number of automatic rotation advances",
	})

	lockoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_lockouts_total",
		Help: "Lockout transitions by trigger",
	}, []string{"reason"}) // reason=inactivity|daily|wake|boot

	unlockAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_unlock_attempts_total",
		Help: "Unlock attempts by result",
	}, []string{"result"}) // result=success|failure

	homeReturnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_home_returns_total",
		Help: "Home-return transitions by trigger",
	}, []string{"trigger"}) // trigger=timeout|answer

	extensionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_extensions_total",
		Help: "Extension grants by source",
	}, []string{"source"}) // source=pause|prompt

	dialogConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_dialog_conflicts_total",
		Help: "Refused dialog opens because another dialog was already open",
	}, []string{"requested", "open"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_commands_total",
		Help: "Dispatched commands by outcome",
	}, []string{"command", "outcome"}) // outcome=ok|locked|dialog_open|rejected

	hiddenAccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_hidden_access_total",
		Help: "Hidden view access attempts by result",
	}, []string{"result"}) // result=granted|denied|disabled

	mediaQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_media_queries_total",
		Help: "Media query completions by result",
	}, []string{"result"}) // result=playing|idle|error|stale|dropped

	powerActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_power_actions_total",
		Help: "Power menu actions by action and outcome",
	}, []string{"action", "outcome"})

	lockedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_locked",
		Help: "Whether the session is locked (1) or not (0)",
	})

	hiddenGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_showing_hidden",
		Help: "Whether a hidden view is in the foreground (1) or not (0)",
	})

	mediaPlayingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_media_playing",
		Help: "Whether the foreground view reports playing media (1) or not (0)",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kiosk_tick_duration_seconds",
		Help:    "Controller tick processing time",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
)

// IncRotation records one automatic rotation advance.
func IncRotation() { rotationsTotal.Inc() }

// IncLockout records a lock transition by trigger.
func IncLockout(reason string) { lockoutsTotal.WithLabelValues(reason).Inc() }

// IncUnlockAttempt records an unlock attempt outcome.
func IncUnlockAttempt(success bool) {
	unlockAttemptsTotal.WithLabelValues(outcome(success, "success", "failure")).Inc()
}

// IncHomeReturn records a home-return transition.
func IncHomeReturn(trigger string) { homeReturnsTotal.WithLabelValues(trigger).Inc() }

// IncExtension records an extension grant.
func IncExtension(source string) { extensionsTotal.WithLabelValues(source).Inc() }

// IncDialogConflict records a refused dialog open.
func IncDialogConflict(requested, open string) {
	dialogConflictsTotal.WithLabelValues(requested, open).Inc()
}

// IncCommand records a dispatched command outcome.
func IncCommand(command, result string) { commandsTotal.WithLabelValues(command, result).Inc() }

// IncHiddenAccess records a hidden access attempt.
func IncHiddenAccess(result string) { hiddenAccessTotal.WithLabelValues(result).Inc() }

// IncMediaQuery records a media query completion.
func IncMediaQuery(result string) { mediaQueriesTotal.WithLabelValues(result).Inc() }

// IncPowerAction records a power menu action.
func IncPowerAction(action, result string) { powerActionsTotal.WithLabelValues(action, result).Inc() }

// SetLocked updates the locked gauge.
func SetLocked(locked bool) { lockedGauge.Set(boolToFloat(locked)) }

// SetShowingHidden updates the hidden gauge.
func SetShowingHidden(hidden bool) { hiddenGauge.Set(boolToFloat(hidden)) }

// SetMediaPlaying updates the media gauge.
func SetMediaPlaying(playing bool) { mediaPlayingGauge.Set(boolToFloat(playing)) }

// ObserveTick records the processing time of one tick.
func ObserveTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
