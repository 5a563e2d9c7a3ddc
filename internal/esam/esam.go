// Package esam parses CableLabs ESAM SignalProcessingEvent XML into a fact
// map and builds the SignalProcessingNotification response.
package esam

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrMissingAcquisitionSignalID is returned when the inbound event carries no
// AcquiredSignal acquisitionSignalID attribute.
var ErrMissingAcquisitionSignalID = errors.New("missing acquisitionSignalID")

// ResponseLead is the hard-coded lead time added to the wall clock when
// stamping UTCPoint on an outbound notification.
const ResponseLead = 4 * time.Second

// Signal holds the facts extracted from one inbound ESAM request, before
// SCTE-35 decoding enriches it further.
type Signal struct {
	AcquisitionSignalID string
	UTCPoint            string
	BinaryBase64         string
}

// ParseEvent extracts the fields POIS needs from a SignalProcessingEvent
// document. Namespace is ignored; matching is by local name suffix so any
// prefix (or none) is accepted.
func ParseEvent(r io.Reader) (*Signal, error) {
	dec := xml.NewDecoder(r)
	sig := &Signal{}
	var inBinaryData bool
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("esam: parse event: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			switch {
			case strings.HasSuffix(local, "AcquiredSignal"):
				sig.AcquisitionSignalID = attr(t, "acquisitionSignalID")
			case strings.HasSuffix(local, "UTCPoint"):
				sig.UTCPoint = attr(t, "utcPoint")
			case strings.HasSuffix(local, "BinaryData"):
				inBinaryData = true
				text.Reset()
			}
		case xml.CharData:
			if inBinaryData {
				text.Write(t)
			}
		case xml.EndElement:
			if strings.HasSuffix(t.Name.Local, "BinaryData") && inBinaryData {
				sig.BinaryBase64 = strings.TrimSpace(text.String())
				inBinaryData = false
			}
		}
	}

	if sig.AcquisitionSignalID == "" {
		return nil, ErrMissingAcquisitionSignalID
	}
	return sig, nil
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
