package esam

import (
	"fmt"
	"strings"
	"time"
)

// Notification is the outbound SignalProcessingNotification: the POIS's
// pass-through/replace/delete decision for one acquired signal.
type Notification struct {
	Action                   string
	AcquisitionSignalID      string
	AcquisitionPointIdentity string
	SCTE35Base64             string
	Now                      time.Time
}

var noteByAction = map[string]string{
	"delete": "filtered signal",
	"replace": "replaced signal",
}

func noteFor(action string) string {
	if n, ok := noteByAction[action]; ok {
		return n
	}
	return "pass-through"
}

// XML renders n as a SignalProcessingNotification document. All values are
// XML-escaped.
func (n Notification) XML() string {
	utcPoint := n.Now.Add(ResponseLead).UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(`<sig:SignalProcessingNotification xmlns:sig="urn:cablelabs:iptvservices:esam:xsd:signal:1" xmlns:core="urn:cablelabs:iptvservices:esam:xsd:core:1" xmlns:common="urn:cablelabs:md:xsd:common:1.0">`)
	b.WriteString(`<sig:StatusCode classCode="0"><sig:Note>`)
	b.WriteString(escape(noteFor(n.Action)))
	b.WriteString(`</sig:Note></sig:StatusCode>`)
	fmt.Fprintf(&b, `<sig:ResponseSignal action=%q acquisitionSignalID=%q acquisitionPointIdentity=%q>`,
		escapeAttr(n.Action), escapeAttr(n.AcquisitionSignalID), escapeAttr(n.AcquisitionPointIdentity))
	fmt.Fprintf(&b, `<sig:UTCPoint utcPoint=%q/>`, escapeAttr(utcPoint))
	if (n.Action == "replace" || n.Action == "noop") && n.SCTE35Base64 != "" {
		fmt.Fprintf(&b, `<sig:BinaryData signalType="SCTE35">%s</sig:BinaryData>`, escape(n.SCTE35Base64))
	}
	b.WriteString(`</sig:ResponseSignal>`)
	b.WriteString(`</sig:SignalProcessingNotification>`)
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
