package esam_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techexlab/pois/internal/esam"
)

const sampleEvent = `<?xml version="1.0"?>
<sig:SignalProcessingEvent xmlns:sig="urn:cablelabs:iptvservices:esam:xsd:signal:1">
  <sig:AcquiredSignal acquisitionSignalID="ACQ-123-OUT">
    <sig:UTCPoint utcPoint="2024-01-01T00:00:00Z"/>
    <sig:BinaryData signalType="SCTE35">/DARAAAAAAAAAP/wAAAAAHpPv/8=</sig:BinaryData>
  </sig:AcquiredSignal>
</sig:SignalProcessingEvent>`

func TestParseEvent(t *testing.T) {
	sig, err := esam.ParseEvent(strings.NewReader(sampleEvent))
	require.NoError(t, err)
	assert.Equal(t, "ACQ-123-OUT", sig.AcquisitionSignalID)
	assert.Equal(t, "2024-01-01T00:00:00Z", sig.UTCPoint)
	assert.Equal(t, "/DARAAAAAAAAAP/wAAAAAHpPv/8=", sig.BinaryBase64)
}

func TestParseEvent_missingAcquisitionSignalID(t *testing.T) {
	_, err := esam.ParseEvent(strings.NewReader(`<SignalProcessingEvent/>`))
	assert.ErrorIs(t, err, esam.ErrMissingAcquisitionSignalID)
}

func TestNotification_XML_passthrough(t *testing.T) {
	n := esam.Notification{
		Action:                   "noop",
		AcquisitionSignalID:      "ACQ-123-OUT",
		AcquisitionPointIdentity: "pois-1",
		SCTE35Base64:             "/DARAAAAAAAAAP/wAAAAAHpPv/8=",
		Now:                      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	out := n.XML()
	assert.Contains(t, out, `action="noop"`)
	assert.Contains(t, out, `acquisitionSignalID="ACQ-123-OUT"`)
	assert.Contains(t, out, "pass-through")
	assert.Contains(t, out, `<sig:BinaryData signalType="SCTE35">/DARAAAAAAAAAP/wAAAAAHpPv/8=</sig:BinaryData>`)
	assert.Contains(t, out, `utcPoint="2024-01-01T00:00:04Z"`)
}

func TestNotification_XML_delete(t *testing.T) {
	n := esam.Notification{Action: "delete", AcquisitionSignalID: "x", Now: time.Now()}
	out := n.XML()
	assert.Contains(t, out, "filtered signal")
	assert.NotContains(t, out, "BinaryData")
}
