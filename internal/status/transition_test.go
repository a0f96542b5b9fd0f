package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-status/internal/apperr"
)

func TestTransition_Table(t *testing.T) {
	type row struct {
		from       Status
		sig        Signal
		want       Status
		changed    bool
		outOfOrder bool
	}

	rows := []row{
		// SENT
		{Pending, SigSent, Emailed, true, false},
		{Emailed, SigSent, Emailed, false, false},
		{EmailOpened, SigSent, EmailOpened, false, false},
		{Replied, SigSent, Replied, false, false},
		{Interested, SigSent, Interested, false, false},
		{NotInterested, SigSent, NotInterested, false, false},

		// OPENED
		{Pending, SigOpened, Pending, false, true},
		{Emailed, SigOpened, EmailOpened, true, false},
		{EmailOpened, SigOpened, EmailOpened, false, false},
		{Replied, SigOpened, Replied, false, false},
		{Interested, SigOpened, Interested, false, false},
		{NotInterested, SigOpened, NotInterested, false, false},

		// REPLIED
		{Pending, SigReplied, Pending, false, true},
		{Emailed, SigReplied, Replied, true, false},
		{EmailOpened, SigReplied, Replied, true, false},
		{Replied, SigReplied, Replied, false, false},
		{Interested, SigReplied, Interested, false, false},
		{NotInterested, SigReplied, NotInterested, false, false},
	}

	for _, r := range rows {
		t.Run(string(r.from)+"/"+r.sig.String(), func(t *testing.T) {
			got := Transition(r.from, r.sig)
			assert.Equal(t, r.want, got.Next)
			assert.Equal(t, r.changed, got.Changed)
			assert.Equal(t, r.outOfOrder, got.OutOfOrder)
		})
	}
}

func TestTransition_ManualOverridesEverything(t *testing.T) {
	for _, from := range All {
		for _, target := range All {
			got := Transition(from, Manual(target))
			assert.Equal(t, target, got.Next, "%s -> MANUAL(%s)", from, target)
			assert.Equal(t, from != target, got.Changed)
			assert.False(t, got.OutOfOrder)
		}
	}
}

func TestTransition_IsDeterministic(t *testing.T) {
	signals := []Signal{SigSent, SigOpened, SigReplied, Manual(Interested)}
	for _, from := range All {
		for _, sig := range signals {
			assert.Equal(t, Transition(from, sig), Transition(from, sig))
		}
	}
}

func TestTransition_RejectsGarbage(t *testing.T) {
	assert.Equal(t, Outcome{Next: Emailed}, Transition(Emailed, Manual("ARCHIVED")))
	assert.Equal(t, Outcome{Next: Emailed}, Transition(Emailed, Signal{Kind: "CLICKED"}))
}

func TestTerminalStatusesIgnoreAutomaticSignals(t *testing.T) {
	for _, s := range []Status{Interested, NotInterested} {
		require.True(t, s.IsTerminal())
		for _, sig := range []Signal{SigSent, SigOpened, SigReplied} {
			assert.Equal(t, s, Next(s, sig))
		}
	}
	assert.False(t, Replied.IsTerminal())
}

func TestParse(t *testing.T) {
	for _, s := range All {
		got, err := Parse(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := Parse("  REPLIED ")
	require.NoError(t, err)
	assert.Equal(t, Replied, got)

	for _, bad := range []string{"", "pending", "ARCHIVED", "EMAIL OPENED"} {
		_, err := Parse(bad)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "Parse(%q)", bad)
	}
}
