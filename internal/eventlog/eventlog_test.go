package eventlog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techexlab/pois/internal/eventlog"
	"github.com/techexlab/pois/internal/store"
)

func TestInsertAndRecent(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	l := eventlog.New(s.DB(), false)
	_, err = l.Insert(ctx, eventlog.Record{
		ChannelName:         "default",
		AcquisitionSignalID: "ACQ-1",
		UTCPoint:            "2024-01-01T00:00:00Z",
		Action:              "noop",
		ResponseStatus:      200,
		RawRequest:          ptr("<xml/>"),
	})
	require.NoError(t, err)

	recs, err := l.Recent(ctx, 10, 0, eventlog.Filters{}, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "ACQ-1", recs[0].AcquisitionSignalID)
	require.Nil(t, recs[0].RawRequest, "raw payload retention is off by default")
}

func TestInsert_rawPayloadRetention(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	l := eventlog.New(s.DB(), true)
	id, err := l.Insert(ctx, eventlog.Record{
		ChannelName:         "default",
		AcquisitionSignalID: "ACQ-1",
		UTCPoint:            "2024-01-01T00:00:00Z",
		Action:              "noop",
		ResponseStatus:      200,
		RawRequest:          ptr("<xml/>"),
	})
	require.NoError(t, err)

	rec, err := l.Detail(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec.RawRequest)
	require.Equal(t, "<xml/>", *rec.RawRequest)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	l := eventlog.New(s.DB(), false)
	for _, action := range []string{"noop", "delete", "noop"} {
		_, err := l.Insert(ctx, eventlog.Record{
			ChannelName: "default", AcquisitionSignalID: "x", UTCPoint: "2024-01-01T00:00:00Z",
			Action: action, ResponseStatus: 200,
		})
		require.NoError(t, err)
	}

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalEvents)
	require.Equal(t, int64(2), stats.ActionCounts["noop"])
}

func TestDetail_notFound(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	l := eventlog.New(s.DB(), false)
	_, err = l.Detail(ctx, 999)
	require.ErrorIs(t, err, eventlog.ErrNotFound)
}

func ptr(s string) *string { return &s }
