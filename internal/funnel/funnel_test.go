package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(jobID, status string, offsetHours int) HistoryEntry {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return HistoryEntry{
		JobID:      jobID,
		StatusName: status,
		ChangedAt:  base.Add(time.Duration(offsetHours) * time.Hour),
	}
}

func ladderStep(t *testing.T, ladder []StepConversion, from string) StepConversion {
	t.Helper()
	for _, step := range ladder {
		if step.From == from {
			return step
		}
	}
	t.Fatalf("step %q not in ladder", from)
	return StepConversion{}
}

func TestBuildSequences(t *testing.T) {
	t.Run("orders by timestamp and dedups revisits", func(t *testing.T) {
		entries := []HistoryEntry{
			entry("J1", "Estimating", 2),
			entry("J1", "Lead", 1),
			entry("J1", "Estimating", 5), // revisit, only first index counts
			entry("J1", "Signed Contract", 4),
		}
		seqs := BuildSequences(entries)
		assert.Equal(t, []string{"Lead", "Estimating", "Signed Contract"}, seqs["J1"])
	})

	t.Run("timestamp ties keep insertion order", func(t *testing.T) {
		entries := []HistoryEntry{
			entry("J1", "Lead", 1),
			entry("J1", "Contacting", 1),
			entry("J1", "Estimating", 1),
		}
		seqs := BuildSequences(entries)
		assert.Equal(t, []string{"Lead", "Contacting", "Estimating"}, seqs["J1"])
	})

	t.Run("jobs without history are absent", func(t *testing.T) {
		seqs := BuildSequences([]HistoryEntry{entry("J1", "Lead", 0)})
		_, ok := seqs["J2"]
		assert.False(t, ok)
		assert.Len(t, seqs, 1)
	})
}

func TestConversionLadder(t *testing.T) {
	flow := []string{"Lead", "Estimating", "Signed Contract", "Pre-Production"}

	t.Run("forward transition counts attempt and conversion", func(t *testing.T) {
		seqs := BuildSequences([]HistoryEntry{
			entry("J1", "Lead", 0),
			entry("J1", "Estimating", 1),
			entry("J1", "Signed Contract", 2),
		})
		ladder := ConversionLadder(seqs, flow)

		step := ladderStep(t, ladder, "Lead")
		assert.Equal(t, 1, step.Attempts)
		assert.Equal(t, 1, step.Conversions)
		assert.Equal(t, 100, step.Rate())

		step = ladderStep(t, ladder, "Estimating")
		assert.Equal(t, 1, step.Attempts)
		assert.Equal(t, 1, step.Conversions)

		// Reached "Signed Contract" but never "Pre-Production"
		step = ladderStep(t, ladder, "Signed Contract")
		assert.Equal(t, 1, step.Attempts)
		assert.Equal(t, 0, step.Conversions)
		assert.Equal(t, 0, step.Rate())
	})

	t.Run("reversed order is not a conversion", func(t *testing.T) {
		// Estimating before Lead: Lead->Estimating pair still gets the
		// attempt but no conversion (no Estimating strictly after Lead).
		seqs := BuildSequences([]HistoryEntry{
			entry("J1", "Estimating", 0),
			entry("J1", "Lead", 1),
		})
		ladder := ConversionLadder(seqs, flow)

		step := ladderStep(t, ladder, "Lead")
		assert.Equal(t, 1, step.Attempts)
		assert.Equal(t, 0, step.Conversions)
	})

	t.Run("skipped from step means no attempt", func(t *testing.T) {
		seqs := BuildSequences([]HistoryEntry{
			entry("J1", "Signed Contract", 0),
		})
		ladder := ConversionLadder(seqs, flow)

		step := ladderStep(t, ladder, "Lead")
		assert.Equal(t, 0, step.Attempts)
		assert.Equal(t, 0, step.Rate())
	})

	t.Run("regression does not break other jobs", func(t *testing.T) {
		seqs := BuildSequences([]HistoryEntry{
			entry("J1", "Lead", 0),
			entry("J1", "Estimating", 1),
			entry("J2", "Lead", 0),
			entry("J2", "Hold", 1), // regressed, never estimated
		})
		ladder := ConversionLadder(seqs, flow)

		step := ladderStep(t, ladder, "Lead")
		assert.Equal(t, 2, step.Attempts)
		assert.Equal(t, 1, step.Conversions)
		assert.Equal(t, 50, step.Rate())
	})

	t.Run("rates stay within 0..100", func(t *testing.T) {
		seqs := BuildSequences([]HistoryEntry{
			entry("J1", "Lead", 0),
			entry("J1", "Estimating", 1),
			entry("J2", "Lead", 0),
			entry("J3", "Lead", 0),
		})
		for _, step := range ConversionLadder(seqs, flow) {
			rate := step.Rate()
			assert.GreaterOrEqual(t, rate, 0)
			assert.LessOrEqual(t, rate, 100)
		}
	})
}

func TestConversionLadder_SpecExample(t *testing.T) {
	// History [(J1,Lead,t0),(J1,Estimating,t1),(J1,Signed Contract,t2)]
	seqs := BuildSequences([]HistoryEntry{
		entry("J1", "Lead", 0),
		entry("J1", "Estimating", 1),
		entry("J1", "Signed Contract", 2),
	})
	flow := []string{"Lead", "Estimating", "Signed Contract", "Pre-Production"}
	ladder := ConversionLadder(seqs, flow)
	require.Len(t, ladder, 3)

	assert.Equal(t, StepConversion{From: "Lead", To: "Estimating", Attempts: 1, Conversions: 1}, ladder[0])
	assert.Equal(t, 100, ladder[0].Rate())
	assert.Equal(t, StepConversion{From: "Estimating", To: "Signed Contract", Attempts: 1, Conversions: 1}, ladder[1])
	assert.Equal(t, 100, ladder[1].Rate())
	assert.Equal(t, StepConversion{From: "Signed Contract", To: "Pre-Production", Attempts: 1, Conversions: 0}, ladder[2])
	assert.Equal(t, 0, ladder[2].Rate())
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, Rate(0, 0))
	assert.Equal(t, 0, Rate(5, 0))
	assert.Equal(t, 50, Rate(1, 2))
	assert.Equal(t, 33, Rate(1, 3))
	assert.Equal(t, 67, Rate(2, 3))
	assert.Equal(t, 100, Rate(3, 3))
}

func TestProgressionCounts(t *testing.T) {
	seqs := map[string][]string{
		"J1": {"Lead", "Estimating", "Signed Contract"},
		"J2": {"Lead"},
	}
	attempts, conversions := ProgressionCounts(seqs)

	assert.Equal(t, 2, attempts["Lead"])
	assert.Equal(t, 1, conversions["Lead"]) // J2 stalled at Lead
	assert.Equal(t, 1, attempts["Estimating"])
	assert.Equal(t, 1, conversions["Estimating"])
	assert.Equal(t, 1, attempts["Signed Contract"])
	assert.Equal(t, 0, conversions["Signed Contract"]) // last in sequence
}
