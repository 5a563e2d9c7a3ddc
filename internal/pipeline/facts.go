package pipeline

import (
	"fmt"
	"time"

	"github.com/techexlab/pois/internal/esam"
	"github.com/techexlab/pois/internal/rules"
	"github.com/techexlab/pois/pkg/scte35"
)

var commandNames = map[uint32]string{
	scte35.SpliceNullType:           "splice_null",
	scte35.SpliceScheduleType:       "splice_schedule",
	scte35.SpliceInsertType:         "splice_insert",
	scte35.TimeSignalType:           "time_signal",
	scte35.BandwidthReservationType: "bandwidth_reservation",
	scte35.PrivateCommandType:       "private_command",
}

// factsFromSignal builds the request's fact map from the parsed ESAM
// envelope, enriching it with the decoded SCTE-35 payload when the Base64
// is present and decodable. A decode failure leaves
// scte35.command="unknown" and does not fail the request.
func factsFromSignal(sig *esam.Signal) rules.Facts {
	f := rules.Facts{
		"acquisitionSignalID": sig.AcquisitionSignalID,
		"scte35.command":      "unknown",
	}
	if sig.UTCPoint == "" {
		f["utcPoint"] = "1970-01-01T00:00:00Z"
	} else if _, err := time.Parse(time.RFC3339, sig.UTCPoint); err == nil {
		f["utcPoint"] = sig.UTCPoint
	}
	if sig.BinaryBase64 != "" {
		f["scte35_b64"] = sig.BinaryBase64
	}

	if sig.BinaryBase64 == "" {
		return f
	}
	sis, err := scte35.DecodeBase64(sig.BinaryBase64)
	if err != nil || sis == nil || sis.SpliceCommand == nil {
		return f
	}

	if name, ok := commandNames[sis.SpliceCommand.Type()]; ok {
		f["scte35.command"] = name
	}

	switch cmd := sis.SpliceCommand.(type) {
	case *scte35.TimeSignal:
		if cmd.SpliceTime.PTSTime != nil {
			f["scte35.pts_time"] = fmt.Sprint(*cmd.SpliceTime.PTSTime)
		}
	case *scte35.SpliceInsert:
		if cmd.Program != nil && cmd.Program.SpliceTime.PTSTime != nil {
			f["scte35.pts_time"] = fmt.Sprint(*cmd.Program.SpliceTime.PTSTime)
		}
	}

	for _, d := range sis.SpliceDescriptors {
		sd, ok := d.(*scte35.SegmentationDescriptor)
		if !ok {
			continue
		}
		f["scte35.segmentation_type_id"] = fmt.Sprintf("0x%02X", sd.SegmentationTypeID)
		f["scte35.segmentation_type_name"] = sd.Name()
		if len(sd.SegmentationUPIDs) > 0 {
			u := sd.SegmentationUPIDs[0]
			f["scte35.segmentation_upid"] = u.ASCIIValue()
			f["scte35.upid_type_name"] = u.Name()
		}
		break
	}

	return f
}
