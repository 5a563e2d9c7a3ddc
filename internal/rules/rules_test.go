package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/techexlab/pois/internal/rules"
)

func TestMatches_emptyMatcherAlwaysMatches(t *testing.T) {
	assert.True(t, rules.Matches(rules.Match{}, rules.Facts{}))
}

func TestMatches_allOfAnd(t *testing.T) {
	m := rules.Match{AllOf: []rules.Condition{{SCTE35SegmentationType: "0x34"}}}
	assert.True(t, rules.Matches(m, rules.Facts{"scte35.segmentation_type_id": "0x34"}))
	assert.False(t, rules.Matches(m, rules.Facts{"scte35.segmentation_type_id": "0x30"}))
	assert.False(t, rules.Matches(m, rules.Facts{}))
}

func TestMatches_anyOfGlob(t *testing.T) {
	m := rules.Match{AnyOf: []rules.Condition{{AcquisitionSignalID: "ACQ-*-OUT"}}}
	assert.True(t, rules.Matches(m, rules.Facts{"acquisitionSignalID": "ACQ-123-OUT"}))
	assert.False(t, rules.Matches(m, rules.Facts{"acquisitionSignalID": "ACQ-OUT-EXTRA"}))
}

func TestMatches_commandCaseInsensitive(t *testing.T) {
	m := rules.Match{AllOf: []rules.Condition{{SCTE35Command: "unknown"}}}
	assert.True(t, rules.Matches(m, rules.Facts{"scte35.command": "Unknown"}))
}

func TestMatches_utcBetween(t *testing.T) {
	m := rules.Match{AllOf: []rules.Condition{{UTCBetween: &rules.UTCBetween{Start: "2024-01-01T00:00:00Z"}}}}
	assert.True(t, rules.Matches(m, rules.Facts{"utcPoint": "2024-06-01T00:00:00Z"}))
	assert.False(t, rules.Matches(m, rules.Facts{"utcPoint": "2023-01-01T00:00:00Z"}))
}

func TestFirstMatch_priorityOrder(t *testing.T) {
	rs := []rules.Rule{
		{ID: 2, Priority: 10, Enabled: true, Match: rules.Match{}, Action: "noop"},
		{ID: 1, Priority: 0, Enabled: true, Match: rules.Match{}, Action: "delete"},
	}
	got := rules.FirstMatch(rs, rules.Facts{})
	assert.NotNil(t, got)
	assert.Equal(t, "delete", got.Action)
}

func TestFirstMatch_tieBrokenByID(t *testing.T) {
	rs := []rules.Rule{
		{ID: 5, Priority: 0, Enabled: true, Match: rules.Match{AllOf: []rules.Condition{{SCTE35Command: "nope"}}}, Action: "a"},
		{ID: 3, Priority: 0, Enabled: true, Match: rules.Match{}, Action: "b"},
	}
	got := rules.FirstMatch(rs, rules.Facts{})
	assert.Equal(t, "b", got.Action)
}

func TestFirstMatch_disabledSkipped(t *testing.T) {
	rs := []rules.Rule{
		{ID: 1, Priority: 0, Enabled: false, Match: rules.Match{}, Action: "delete"},
	}
	assert.Nil(t, rules.FirstMatch(rs, rules.Facts{}))
}

func TestFirstMatch_none(t *testing.T) {
	rs := []rules.Rule{
		{ID: 1, Priority: 0, Enabled: true, Match: rules.Match{AllOf: []rules.Condition{{SCTE35Command: "nope"}}}, Action: "delete"},
	}
	assert.Nil(t, rules.FirstMatch(rs, rules.Facts{"scte35.command": "time_signal"}))
}
