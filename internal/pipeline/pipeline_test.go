package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/techexlab/pois/internal/eventlog"
	"github.com/techexlab/pois/internal/pipeline"
	"github.com/techexlab/pois/internal/store"
	"github.com/techexlab/pois/pkg/scte35"
)

func buildTimeSignalSeg34(t *testing.T) string {
	t.Helper()
	sis, err := scte35.BuildTimeSignalAdvanced(nil, &scte35.BuildOptions{
		SegmentationTypeID: 0x34,
		UPIDType:           scte35.SegmentationUPIDTypeUUID,
		UPIDValue:          []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)
	b64, err := sis.Base64()
	require.NoError(t, err)
	return b64
}

func newFixture(t *testing.T) (*store.Store, *pipeline.Pipeline) {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := pipeline.New(s, s, eventlog.New(s.DB(), true), pipeline.Config{
		AcquisitionPointIdentity:  "pois-go-test",
		DefaultSegmentationTypeID: 0x10,
	}, nil)
	return s, p
}

func esamRequest(acqID, utcPoint, binaryB64 string) string {
	return `<sig:SignalProcessingEvent xmlns:sig="urn:cablelabs:iptvservices:esam:xsd:signal:1">
		<sig:AcquiredSignal acquisitionSignalID="` + acqID + `"/>
		<sig:UTCPoint utcPoint="` + utcPoint + `"/>
		<sig:BinaryData signalType="SCTE35">` + binaryB64 + `</sig:BinaryData>
	</sig:SignalProcessingEvent>`
}

const passthroughB64 = "/DA0AAAAAAAA///wBQb+cr0AUAAeAhxDVUVJSAAAjn/PAAGlmbAICAAAAAAsoKGKNAIAAODGUg=="

func TestProcess_passthrough(t *testing.T) {
	ctx := context.Background()
	s, p := newFixture(t)

	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "default"})
	require.NoError(t, err)
	_, err = s.UpsertRule(ctx, mustChannelID(t, ctx, s, "default"), 0, store.UpsertRule{
		Name: "passthrough", Priority: -1, Action: "noop", MatchJSON: "{}",
	})
	require.NoError(t, err)

	req := pipeline.Request{Body: strings.NewReader(esamRequest("ACQ-1", "2024-01-01T00:00:00Z", passthroughB64))}
	res, err := p.Process(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 200, res.HTTPStatus)
	require.Contains(t, res.NotificationXML, `action="noop"`)
	require.Contains(t, res.NotificationXML, passthroughB64)
}

func TestProcess_typeIDDelete(t *testing.T) {
	ctx := context.Background()
	s, p := newFixture(t)

	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "cnn"})
	require.NoError(t, err)
	cid := mustChannelID(t, ctx, s, "cnn")
	_, err = s.UpsertRule(ctx, cid, 0, store.UpsertRule{
		Name: "kill-ppo", Priority: 0, Action: "delete",
		MatchJSON: `{"allOf":[{"scte35.segmentation_type_id":"0x34"}]}`,
	})
	require.NoError(t, err)

	timeSignalWithSegType34 := buildTimeSignalSeg34(t)
	req := pipeline.Request{
		ChannelHint: "cnn",
		Body:        strings.NewReader(esamRequest("ACQ-2", "2024-01-01T00:00:00Z", timeSignalWithSegType34)),
	}
	res, err := p.Process(ctx, req)
	require.NoError(t, err)
	require.Contains(t, res.NotificationXML, `action="delete"`)
	require.NotContains(t, res.NotificationXML, "BinaryData")
	require.Contains(t, res.NotificationXML, "filtered signal")
}

func TestProcess_globMatch(t *testing.T) {
	ctx := context.Background()
	s, p := newFixture(t)

	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "glob"})
	require.NoError(t, err)
	cid := mustChannelID(t, ctx, s, "glob")
	_, err = s.UpsertRule(ctx, cid, 0, store.UpsertRule{
		Name: "glob-out", Priority: -1, Action: "delete",
		MatchJSON: `{"anyOf":[{"acquisitionSignalID":"ACQ-*-OUT"}]}`,
	})
	require.NoError(t, err)

	req1 := pipeline.Request{ChannelHint: "glob", Body: strings.NewReader(esamRequest("ACQ-123-OUT", "2024-01-01T00:00:00Z", passthroughB64))}
	res1, err := p.Process(ctx, req1)
	require.NoError(t, err)
	require.Contains(t, res1.NotificationXML, `action="delete"`)

	req2 := pipeline.Request{ChannelHint: "glob", Body: strings.NewReader(esamRequest("ACQ-OUT-EXTRA", "2024-01-01T00:00:00Z", passthroughB64))}
	res2, err := p.Process(ctx, req2)
	require.NoError(t, err)
	require.Contains(t, res2.NotificationXML, `action="noop"`)
}

func TestProcess_unknownChannel(t *testing.T) {
	ctx := context.Background()
	_, p := newFixture(t)

	req := pipeline.Request{ChannelHint: "unknown", Body: strings.NewReader(esamRequest("ACQ-3", "2024-01-01T00:00:00Z", ""))}
	_, err := p.Process(ctx, req)
	require.ErrorIs(t, err, pipeline.ErrUnknownChannel)
}

func TestProcess_decodeFailureRuleStillRuns(t *testing.T) {
	ctx := context.Background()
	s, p := newFixture(t)

	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "bad"})
	require.NoError(t, err)
	cid := mustChannelID(t, ctx, s, "bad")
	_, err = s.UpsertRule(ctx, cid, 0, store.UpsertRule{
		Name: "unknown-cmd", Priority: -1, Action: "delete",
		MatchJSON: `{"allOf":[{"scte35.command":"unknown"}]}`,
	})
	require.NoError(t, err)

	notFC := "AQIDBAUGBwgJ" // valid base64, not an 0xFC splice_info_section
	req := pipeline.Request{ChannelHint: "bad", Body: strings.NewReader(esamRequest("ACQ-4", "2024-01-01T00:00:00Z", notFC))}
	res, err := p.Process(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 200, res.HTTPStatus)
	require.Contains(t, res.NotificationXML, `action="delete"`)
}

func TestDryRun_doesNotLog(t *testing.T) {
	ctx := context.Background()
	s, p := newFixture(t)

	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "dry"})
	require.NoError(t, err)
	cid := mustChannelID(t, ctx, s, "dry")
	_, err = s.UpsertRule(ctx, cid, 0, store.UpsertRule{
		Name: "kill-ppo", Priority: 0, Action: "delete",
		MatchJSON: `{"allOf":[{"scte35.segmentation_type_id":"0x34"}]}`,
	})
	require.NoError(t, err)

	var before int
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM esam_events").Scan(&before))

	timeSignalWithSegType34 := buildTimeSignalSeg34(t)
	res, err := p.DryRun(ctx, "dry", strings.NewReader(esamRequest("ACQ-5", "2024-01-01T00:00:00Z", timeSignalWithSegType34)))
	require.NoError(t, err)
	require.Equal(t, "delete", res.Action)
	require.NotNil(t, res.MatchedRuleID)

	var after int
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM esam_events").Scan(&after))
	require.Equal(t, before, after)
}

func mustChannelID(t *testing.T, ctx context.Context, s *store.Store, name string) int64 {
	t.Helper()
	c, err := s.FindChannel(ctx, name)
	require.NoError(t, err)
	return c.ID
}
