// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"testing"
	"time"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotation_SkipsManualSites(t *testing.T) {
	h := newHarness(t, testSettings(10, 0, 20))

	h.step(10 * time.Second)
	assert.Equal(t, "site-2", h.c.Snapshot().ViewID)

	h.step(19 * time.Second)
	assert.Equal(t, "site-2", h.c.Snapshot().ViewID)
	h.step(time.Second)
	assert.Equal(t, "site-0", h.c.Snapshot().ViewID)

	assert.Equal(t, []string{"site-0", "site-2", "site-0"}, h.display.attaches())
}

func TestRotation_BlockedByOpenDialog(t *testing.T) {
	h := newHarness(t, testSettings(10, 10))
	require.NoError(t, h.send(CmdShowPauseDialog))

	h.step(30 * time.Second)
	assert.Equal(t, []string{"site-0"}, h.display.attaches())

	require.NoError(t, h.c.Dispatch(Command{Name: CmdCloseDialog, Dialog: DialogPause}))
	h.step(time.Second)
	assert.Equal(t, "site-1", h.c.Snapshot().ViewID, "elapsed time still counts once the dialog closes")
}

func TestIdleDialog_CancelledAfterInactivityTimeout(t *testing.T) {
	t.Run("pause dialog", func(t *testing.T) {
		s := testSettings(10, 10)
		s.InactivityTimeout = time.Minute
		h := newHarness(t, s)
		require.NoError(t, h.send(CmdShowPauseDialog))

		h.step(59 * time.Second)
		assert.Equal(t, DialogPause, h.c.st.dialog)
		assert.Equal(t, []string{"site-0"}, h.display.attaches())

		h.step(time.Second)
		assert.Equal(t, DialogNone, h.c.st.dialog)
		assert.Equal(t, 1, h.display.count("dialog-close", string(DialogPause)))
		assert.True(t, h.c.st.extensionUntil.IsZero(), "an abandoned dialog grants nothing")
		assert.Equal(t, "site-1", h.c.Snapshot().ViewID, "rotation resumes")
	})
	t.Run("pin dialog", func(t *testing.T) {
		s := testSettings(0, -1)
		s.Hidden.PIN = "1234"
		s.InactivityTimeout = time.Minute
		h := newHarness(t, s)
		require.NoError(t, h.send(CmdToggleHidden))
		require.Equal(t, DialogPIN, h.c.st.dialog)

		h.step(time.Minute)
		assert.Equal(t, DialogNone, h.c.st.dialog)
		assert.False(t, h.c.st.showingHidden)
		assert.Equal(t, "site-0", h.c.Snapshot().ViewID)
	})
}

func TestRotation_SuspendedWhileHidden(t *testing.T) {
	s := testSettings(10, -1)
	s.Hidden.PIN = config.NoPINSentinel
	h := newHarness(t, s)

	require.NoError(t, h.send(CmdToggleHidden))
	require.NoError(t, h.c.Dispatch(Command{Name: CmdPINSubmit}))
	h.step(time.Minute)
	assert.Equal(t, ForegroundHidden, h.c.Snapshot().Foreground)
	assert.Equal(t, "site-1", h.c.Snapshot().ViewID)
	assert.Zero(t, h.querier.queries, "hidden views are never queried")
}

func TestMedia_PlayingBlocksRotationThenGrace(t *testing.T) {
	h := newHarness(t, testSettings(10, 10))
	h.querier.setPlaying(true)

	h.step(22 * time.Second)
	assert.True(t, h.c.Snapshot().MediaPlaying)
	assert.Equal(t, []string{"site-0"}, h.display.attaches())

	h.querier.setPlaying(false)
	h.step(3 * time.Second)
	assert.False(t, h.c.Snapshot().MediaPlaying)
	assert.Equal(t, []string{"site-0"}, h.display.attaches(), "grace period after playback stops")

	h.step(6 * time.Second)
	assert.Equal(t, []string{"site-0", "site-1"}, h.display.attaches())
	assert.False(t, h.c.Snapshot().MediaPlaying, "media state resets on attach")
}

func TestMedia_StaleReportIgnored(t *testing.T) {
	h := newHarness(t, testSettings(10, 10))
	h.querier.manual = true

	h.step(time.Second)
	require.Equal(t, 1, h.querier.queries)

	require.NoError(t, h.send(CmdTabNext))
	h.querier.answer(true)
	h.step(time.Second)

	assert.False(t, h.c.st.mediaPlaying)
	assert.Equal(t, "site-1", h.c.Snapshot().ViewID)
}

func TestMedia_UnansweredQueryAbandoned(t *testing.T) {
	h := newHarness(t, testSettings(10, 10))
	h.querier.manual = true

	h.step(time.Second)
	assert.Equal(t, 1, h.querier.queries)
	h.step(5 * time.Second)
	assert.Equal(t, 1, h.querier.queries, "still waiting within twice the query timeout")
	h.step(time.Second)
	assert.Equal(t, 2, h.querier.queries)
}

func TestMedia_NotQueriedOnManualView(t *testing.T) {
	h := newHarness(t, testSettings(0))
	h.step(10 * time.Second)
	assert.Zero(t, h.querier.queries)
}

func TestCloseDialog_Idempotent(t *testing.T) {
	h := newHarness(t, testSettings(60))
	require.NoError(t, h.send(CmdShowPauseDialog))
	require.True(t, h.c.closeDialog(DialogPause))

	before := h.c.st
	assert.False(t, h.c.closeDialog(DialogPause))
	assert.False(t, h.c.closeDialog(DialogInactivity))
	assert.False(t, h.c.closeDialog(DialogNone))
	if diff := cmp.Diff(before, h.c.st, cmp.AllowUnexported(state{})); diff != "" {
		t.Fatalf("state changed on redundant close (-before +after):\n%s", diff)
	}
	assert.Equal(t, 1, h.display.count("dialog-close", ""))
}

func TestDialog_SingleSlot(t *testing.T) {
	s := testSettings(60, -1)
	s.Hidden.PIN = "1234"
	h := newHarness(t, s)

	require.NoError(t, h.send(CmdShowPauseDialog))
	assert.ErrorIs(t, h.c.openDialog(DialogPIN, nil), ErrDialogOpen)
	assert.Equal(t, DialogPause, h.c.st.dialog)

	for _, name := range []CommandName{CmdTabNext, CmdTabPrev, CmdToggleHidden, CmdShowPauseDialog} {
		assert.ErrorIs(t, h.send(name), ErrDialogOpen, name)
	}
	assert.Equal(t, []string{"site-0"}, h.display.attaches())
}

func TestDispatch_BlockedCommandSkipsActivity(t *testing.T) {
	h := newHarness(t, testSettings(60, 60))
	require.NoError(t, h.send(CmdShowPauseDialog))
	h.step(5 * time.Second)

	require.ErrorIs(t, h.send(CmdTabNext), ErrDialogOpen)
	assert.Equal(t, testStart, h.c.st.lastUserInteraction)
}

func TestDispatch_FailedCommandStillCountsAsActivity(t *testing.T) {
	h := newHarness(t, testSettings(0))
	h.step(5 * time.Second)

	require.ErrorIs(t, h.send(CmdShowPauseDialog), ErrNotRotating)
	assert.Equal(t, h.clk.Now(), h.c.st.lastUserInteraction)
}

func TestDispatch_UnknownAndAliases(t *testing.T) {
	h := newHarness(t, testSettings(10, 10))

	assert.ErrorIs(t, h.send("teleport"), ErrUnknownCommand)
	assert.False(t, Known("teleport"))
	assert.True(t, Known(CmdSwipeRight))
	assert.Equal(t, CmdTabNext, Canonical(CmdSwipeLeft))
	assert.Equal(t, CmdUserActivity, Canonical(CmdActivityPing))

	require.NoError(t, h.send(CmdSwipeLeft))
	assert.Equal(t, "site-1", h.c.Snapshot().ViewID)
	require.NoError(t, h.send(CmdSwipeRight))
	assert.Equal(t, "site-0", h.c.Snapshot().ViewID)
	require.NoError(t, h.send(CmdActivityPing))
}

func TestDispatch_BeforeStart(t *testing.T) {
	c, err := New(Options{Settings: testSettings(10)})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Dispatch(Command{Name: CmdTabNext}), ErrControllerStopped)
}

func TestCloseDialogCommand_RejectsLockoutAndUnknown(t *testing.T) {
	h := newHarness(t, testSettings(60))
	assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdCloseDialog, Dialog: DialogLockout}), ErrInvalidArgument)
	assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdCloseDialog, Dialog: "settings"}), ErrInvalidArgument)
	require.NoError(t, h.c.Dispatch(Command{Name: CmdCloseDialog, Dialog: DialogPIN}))
}

func TestPauseSelect_Validation(t *testing.T) {
	h := newHarness(t, testSettings(60))

	assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdPauseSelect, Minutes: 15}), ErrNoDialog)

	require.NoError(t, h.send(CmdShowPauseDialog))
	assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdPauseSelect, Minutes: 121}), ErrExtensionTooLong)
	assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdPauseSelect, Minutes: -5}), ErrInvalidExtension)
	assert.Equal(t, DialogPause, h.c.st.dialog, "invalid selections keep the dialog open")
	assert.True(t, h.c.st.extensionUntil.IsZero())

	require.NoError(t, h.c.Dispatch(Command{Name: CmdPauseSelect, Minutes: 120}))
	assert.Equal(t, h.clk.Now().Add(120*time.Minute), h.c.st.extensionUntil)
	assert.False(t, h.c.st.extensionCoversLockout, "lockout disabled")
}

func TestNavigation_ClearsExtension(t *testing.T) {
	h := newHarness(t, testSettings(60, 60))
	require.NoError(t, h.send(CmdShowPauseDialog))
	require.NoError(t, h.c.Dispatch(Command{Name: CmdPauseSelect, Minutes: 30}))
	require.NotNil(t, h.c.Snapshot().ExtensionUntil)

	require.NoError(t, h.send(CmdTabNext))
	assert.Nil(t, h.c.Snapshot().ExtensionUntil)
	assert.Equal(t, "site-1", h.c.Snapshot().ViewID)

	h.step(60 * time.Second)
	assert.Equal(t, "site-0", h.c.Snapshot().ViewID, "rotation resumes from the navigated view")
}

func TestNavigation_SoleViewDoesNotReattach(t *testing.T) {
	h := newHarness(t, testSettings(60))
	h.step(30 * time.Second)

	require.NoError(t, h.send(CmdTabNext))
	assert.Equal(t, []string{"site-0"}, h.display.attaches())
	assert.Equal(t, h.clk.Now(), h.c.st.siteStartTime)
}

func TestHidden(t *testing.T) {
	hiddenSettings := func(pin string) func() config.Settings {
		return func() config.Settings {
			s := testSettings(10, 10, -1, -1)
			s.Hidden.PIN = pin
			return s
		}
	}

	t.Run("disabled without pin", func(t *testing.T) {
		h := newHarness(t, hiddenSettings("")())
		assert.ErrorIs(t, h.send(CmdToggleHidden), ErrHiddenDisabled)
		assert.Equal(t, DialogNone, h.c.st.dialog)
		assert.Equal(t, []string{"hidden:false:disabled"}, h.auditor.events)
	})

	t.Run("no hidden views", func(t *testing.T) {
		s := testSettings(10)
		s.Hidden.PIN = "1234"
		h := newHarness(t, s)
		assert.ErrorIs(t, h.send(CmdToggleHidden), ErrNoHiddenViews)
	})

	t.Run("wrong pin keeps the dialog", func(t *testing.T) {
		h := newHarness(t, hiddenSettings("1234")())
		require.NoError(t, h.send(CmdToggleHidden))

		err := h.c.Dispatch(Command{Name: CmdPINSubmit, PIN: "0000"})
		require.ErrorIs(t, err, ErrPINIncorrect)
		assert.Equal(t, DialogPIN, h.c.st.dialog)
		assert.Equal(t, 1, h.display.count("broadcast", BroadcastPINIncorrect))

		require.NoError(t, h.c.Dispatch(Command{Name: CmdPINSubmit, PIN: " 1234 "}))
		assert.Equal(t, ForegroundHidden, h.c.Snapshot().Foreground)
		assert.Equal(t, []string{"hidden:false:pin_incorrect", "hidden:true:"}, h.auditor.events)
	})

	t.Run("cycles and wraps to normal", func(t *testing.T) {
		h := newHarness(t, hiddenSettings("1234")())
		require.NoError(t, h.send(CmdTabNext))
		require.NoError(t, h.send(CmdToggleHidden))
		require.NoError(t, h.c.Dispatch(Command{Name: CmdPINSubmit, PIN: "1234"}))
		require.NoError(t, h.send(CmdToggleHidden))
		require.NoError(t, h.send(CmdToggleHidden))

		assert.Equal(t, []string{"site-0", "site-1", "site-2", "site-3", "site-1"}, h.display.attaches())
		assert.Equal(t, ForegroundNormal, h.c.Snapshot().Foreground)
		assert.Equal(t, DialogNone, h.c.st.dialog)
	})

	t.Run("tabs stay inside the hidden set", func(t *testing.T) {
		h := newHarness(t, hiddenSettings(config.NoPINSentinel)())
		require.NoError(t, h.send(CmdToggleHidden))
		require.NoError(t, h.send(CmdPINSubmit))

		require.NoError(t, h.send(CmdTabNext))
		assert.Equal(t, "site-3", h.c.Snapshot().ViewID)
		require.NoError(t, h.send(CmdTabNext))
		assert.Equal(t, "site-2", h.c.Snapshot().ViewID)
		require.NoError(t, h.send(CmdTabPrev))
		assert.Equal(t, "site-3", h.c.Snapshot().ViewID)
		assert.Equal(t, 1, h.c.Snapshot().HiddenIndex)
	})

	t.Run("force return restores the normal view", func(t *testing.T) {
		h := newHarness(t, hiddenSettings(config.NoPINSentinel)())
		require.NoError(t, h.send(CmdTabNext))
		require.NoError(t, h.send(CmdToggleHidden))
		require.NoError(t, h.send(CmdPINSubmit))
		require.NoError(t, h.send(CmdForceReturn))

		assert.Equal(t, "site-1", h.c.Snapshot().ViewID)
		assert.Equal(t, -1, h.c.Snapshot().HiddenIndex)
	})

	t.Run("force return closes an open pin dialog", func(t *testing.T) {
		h := newHarness(t, hiddenSettings("1234")())
		require.NoError(t, h.send(CmdToggleHidden))
		require.NoError(t, h.send(CmdForceReturn))
		assert.Equal(t, DialogNone, h.c.st.dialog)
		assert.Equal(t, ForegroundNormal, h.c.Snapshot().Foreground)
	})
}

func TestInactivityPrompt(t *testing.T) {
	promptSettings := func() config.Settings {
		s := testSettings(0, 0, -1)
		s.HomeIndex = 0
		s.InactivityTimeout = time.Minute
		s.PromptTimeout = 15 * time.Second
		s.Hidden.PIN = config.NoPINSentinel
		return s
	}

	t.Run("not raised on home", func(t *testing.T) {
		h := newHarness(t, promptSettings())
		h.step(5 * time.Minute)
		assert.Equal(t, DialogNone, h.c.st.dialog)
	})

	t.Run("go home", func(t *testing.T) {
		h := newHarness(t, promptSettings())
		require.NoError(t, h.send(CmdTabNext))
		h.step(time.Minute)
		require.Equal(t, DialogInactivity, h.c.st.dialog)
		require.NotNil(t, h.c.Snapshot().PromptDeadline)

		require.NoError(t, h.c.Dispatch(Command{Name: CmdInactivityResponse, Response: ResponseGoHome}))
		assert.Equal(t, "site-0", h.c.Snapshot().ViewID)
		assert.Nil(t, h.c.Snapshot().PromptDeadline)
	})

	t.Run("activity closes the prompt", func(t *testing.T) {
		h := newHarness(t, promptSettings())
		require.NoError(t, h.send(CmdTabNext))
		h.step(time.Minute)
		require.Equal(t, DialogInactivity, h.c.st.dialog)

		require.NoError(t, h.send(CmdUserActivity))
		assert.Equal(t, DialogNone, h.c.st.dialog)
		assert.True(t, h.c.st.promptDeadline.IsZero())
		assert.Equal(t, "site-1", h.c.Snapshot().ViewID)
	})

	t.Run("unanswered prompt from hidden returns home", func(t *testing.T) {
		h := newHarness(t, promptSettings())
		require.NoError(t, h.send(CmdToggleHidden))
		require.NoError(t, h.send(CmdPINSubmit))
		require.Equal(t, ForegroundHidden, h.c.Snapshot().Foreground)

		h.step(time.Minute)
		require.Equal(t, DialogInactivity, h.c.st.dialog)
		h.step(14 * time.Second)
		assert.Equal(t, ForegroundHidden, h.c.Snapshot().Foreground)
		h.step(time.Second)

		snap := h.c.Snapshot()
		assert.Equal(t, ForegroundNormal, snap.Foreground)
		assert.Equal(t, "site-0", snap.ViewID)
		assert.Equal(t, DialogNone, snap.Dialog)
	})

	t.Run("invalid responses", func(t *testing.T) {
		h := newHarness(t, promptSettings())
		assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdInactivityResponse, Response: ResponseGoHome}), ErrNoDialog)

		require.NoError(t, h.send(CmdTabNext))
		h.step(time.Minute)
		assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdInactivityResponse, Response: "maybe"}), ErrInvalidArgument)
		assert.ErrorIs(t, h.c.Dispatch(Command{Name: CmdInactivityResponse, Response: ResponseExtend, Minutes: 121}), ErrExtensionTooLong)
		assert.Equal(t, DialogInactivity, h.c.st.dialog, "rejected answers keep the prompt open")
		assert.Nil(t, h.c.Snapshot().ExtensionUntil)

		require.NoError(t, h.c.Dispatch(Command{Name: CmdInactivityResponse, Response: ResponseExtend, Minutes: 30}))
		assert.Equal(t, DialogNone, h.c.st.dialog)
	})

	t.Run("extend zero closes without extension", func(t *testing.T) {
		h := newHarness(t, promptSettings())
		require.NoError(t, h.send(CmdTabNext))
		h.step(time.Minute)

		require.NoError(t, h.c.Dispatch(Command{Name: CmdInactivityResponse, Response: ResponseExtend}))
		assert.Equal(t, DialogNone, h.c.st.dialog)
		assert.Nil(t, h.c.Snapshot().ExtensionUntil)
	})
}

func TestKeyboard(t *testing.T) {
	t.Run("auto closes", func(t *testing.T) {
		h := newHarness(t, testSettings(0))
		require.NoError(t, h.send(CmdShowKeyboard))
		assert.True(t, h.c.Snapshot().KeyboardOpen)

		h.step(29 * time.Second)
		assert.True(t, h.c.Snapshot().KeyboardOpen)
		h.step(time.Second)
		assert.False(t, h.c.Snapshot().KeyboardOpen)
		assert.Equal(t, 1, h.display.count("broadcast", BroadcastKeyboardAutoClose))
	})

	t.Run("activity keeps it open", func(t *testing.T) {
		h := newHarness(t, testSettings(0))
		require.NoError(t, h.send(CmdShowKeyboard))
		h.step(20 * time.Second)
		require.NoError(t, h.send(CmdUserActivity))
		h.step(29 * time.Second)
		assert.True(t, h.c.Snapshot().KeyboardOpen)
		h.step(time.Second)
		assert.False(t, h.c.Snapshot().KeyboardOpen)
	})

	t.Run("toggle", func(t *testing.T) {
		h := newHarness(t, testSettings(0))
		require.NoError(t, h.send(CmdShowKeyboard))
		require.NoError(t, h.send(CmdShowKeyboard))
		assert.False(t, h.c.Snapshot().KeyboardOpen)
		assert.Equal(t, 2, h.display.count("broadcast", BroadcastKeyboardState))
	})

	t.Run("disabled", func(t *testing.T) {
		s := testSettings(0)
		s.KeyboardEnabled = false
		h := newHarness(t, s)
		assert.ErrorIs(t, h.send(CmdShowKeyboard), ErrKeyboardDisabled)

		sig, ok := h.display.last("signal")
		require.True(t, ok)
		assert.Equal(t, SignalKeyboardButton, sig.name)
		assert.False(t, sig.value)
	})
}

func TestViewSignals(t *testing.T) {
	h := newHarness(t, testSettings(10, 0))
	assert.Equal(t, 1, h.display.count("signal", SignalPauseButton))

	h.c.NotifyViewReloaded("site-0")
	h.c.NotifyViewReloaded("site-9")
	h.c.Tick()
	assert.Equal(t, 2, h.display.count("signal", SignalPauseButton))

	require.NoError(t, h.send(CmdTabNext))
	sig := h.display.calls[len(h.display.calls)-2]
	assert.Equal(t, call{op: "signal", view: "site-1", name: SignalPauseButton, value: false}, sig)
}

func TestSnapshot_ChangesSignalled(t *testing.T) {
	h := newHarness(t, testSettings(10, 10))
	drain := func() bool {
		select {
		case <-h.c.Changes():
			return true
		default:
			return false
		}
	}
	assert.True(t, drain())

	h.step(time.Second)
	assert.False(t, drain(), "a plain tick changes nothing observable")

	require.NoError(t, h.send(CmdTabNext))
	assert.True(t, drain())
	assert.Equal(t, 1, h.c.Snapshot().NormalIndex)
	assert.Equal(t, 1, h.c.Snapshot().SiteIndex)
}
