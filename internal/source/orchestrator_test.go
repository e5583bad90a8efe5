package source_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/internal/source/mocks"
	"github.com/vmunix/codarr/pkg/ident"
	"go.uber.org/mock/gomock"
)

// testLogger returns a discard logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAdapter(ctrl *gomock.Controller, name string, priority int, format source.IDFormat) *mocks.MockAdapter {
	m := mocks.NewMockAdapter(ctrl)
	m.EXPECT().Name().Return(name).AnyTimes()
	m.EXPECT().Priority().Return(priority).AnyTimes()
	m.EXPECT().PreferredIDFormat().Return(format).AnyTimes()
	return m
}

func parsed(t *testing.T, filename string) *ident.ParsedIdentifier {
	t.Helper()
	id, err := ident.Parse(filename, ident.Config{})
	require.NoError(t, err)
	return id
}

func record(src, id string) *source.Record {
	return &source.Record{Source: src, ID: id, Title: "Some Title"}
}

func TestOrchestrator_ShortCircuit(t *testing.T) {
	ctrl := gomock.NewController(t)

	first := newAdapter(ctrl, "first", 1, source.FormatDisplay)
	second := newAdapter(ctrl, "second", 2, source.FormatDisplay)
	first.EXPECT().Query(gomock.Any(), "ABP-001").Return(record("first", "ABP-001"), nil)
	second.EXPECT().Query(gomock.Any(), gomock.Any()).Times(0)

	reg, err := source.NewRegistry(second, first)
	require.NoError(t, err)

	orch := source.NewOrchestrator(reg, time.Second, testLogger())
	res, err := orch.Resolve(context.Background(), parsed(t, "ABP-001.mp4"))

	require.NoError(t, err)
	assert.Equal(t, "first", res.Source)
	assert.Len(t, res.Attempts, 1)
}

func TestOrchestrator_FallsBackInPriorityOrder(t *testing.T) {
	ctrl := gomock.NewController(t)

	a := newAdapter(ctrl, "a", 1, source.FormatDisplay)
	b := newAdapter(ctrl, "b", 2, source.FormatDisplay)
	gomock.InOrder(
		a.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, source.NewError(source.KindNotFound, "a", "")),
		b.EXPECT().Query(gomock.Any(), gomock.Any()).Return(record("b", "ABP-001"), nil),
	)

	reg, err := source.NewRegistry(a, b)
	require.NoError(t, err)

	res, err := source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(context.Background(), parsed(t, "ABP-001.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "b", res.Source)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, source.KindNotFound, res.Attempts[0].Kind)
	assert.Empty(t, res.Attempts[1].Kind)
}

func TestOrchestrator_PassesPreferredIDFormat(t *testing.T) {
	ctrl := gomock.NewController(t)

	content := newAdapter(ctrl, "content", 1, source.FormatContent)
	display := newAdapter(ctrl, "display", 2, source.FormatDisplay)
	content.EXPECT().Query(gomock.Any(), "abp00001").Return(nil, source.NewError(source.KindNotFound, "content", ""))
	display.EXPECT().Query(gomock.Any(), "ABP-001").Return(record("display", "ABP-001"), nil)

	reg, err := source.NewRegistry(content, display)
	require.NoError(t, err)

	_, err = source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(context.Background(), parsed(t, "ABP-001.mp4"))
	require.NoError(t, err)
}

func TestOrchestrator_Exhaustion(t *testing.T) {
	ctrl := gomock.NewController(t)

	a := newAdapter(ctrl, "a", 1, source.FormatDisplay)
	b := newAdapter(ctrl, "b", 2, source.FormatDisplay)
	c := newAdapter(ctrl, "c", 3, source.FormatDisplay)
	a.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, source.NewError(source.KindNotFound, "a", ""))
	b.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, source.NewError(source.KindAuthRequired, "b", "cookie missing"))
	c.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	reg, err := source.NewRegistry(c, b, a)
	require.NoError(t, err)

	res, err := source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(context.Background(), parsed(t, "ABP-001.mp4"))
	assert.Nil(t, res)

	var agg *source.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 3)
	assert.Equal(t, "a", agg.Failures[0].Source)
	assert.Equal(t, source.KindNotFound, agg.Failures[0].Kind)
	assert.Equal(t, "b", agg.Failures[1].Source)
	assert.Equal(t, source.KindAuthRequired, agg.Failures[1].Kind)
	assert.Equal(t, "c", agg.Failures[2].Source)
	assert.Equal(t, source.KindNetwork, agg.Failures[2].Kind)
	assert.Equal(t, "ABP-001", agg.ID)
}

func TestOrchestrator_InvalidRecordIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)

	a := newAdapter(ctrl, "a", 1, source.FormatDisplay)
	a.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&source.Record{ID: "ABP-001"}, nil)

	reg, err := source.NewRegistry(a)
	require.NoError(t, err)

	_, err = source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(context.Background(), parsed(t, "ABP-001.mp4"))

	var agg *source.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.True(t, agg.AllKind(source.KindNotFound))
	assert.Equal(t, "no source has this title", agg.Reason())
}

func TestOrchestrator_AdapterTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)

	slow := newAdapter(ctrl, "slow", 1, source.FormatDisplay)
	fast := newAdapter(ctrl, "fast", 2, source.FormatDisplay)
	slow.EXPECT().Query(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) (*source.Record, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	fast.EXPECT().Query(gomock.Any(), gomock.Any()).Return(record("fast", "ABP-001"), nil)

	reg, err := source.NewRegistry(slow, fast)
	require.NoError(t, err)

	res, err := source.NewOrchestrator(reg, 20*time.Millisecond, testLogger()).Resolve(context.Background(), parsed(t, "ABP-001.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "fast", res.Source)
	assert.Equal(t, source.KindNetwork, res.Attempts[0].Kind)
}

func TestOrchestrator_ParentCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)

	a := newAdapter(ctrl, "a", 1, source.FormatDisplay)
	a.EXPECT().Query(gomock.Any(), gomock.Any()).Times(0)

	reg, err := source.NewRegistry(a)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(ctx, parsed(t, "ABP-001.mp4"))
	assert.ErrorIs(t, err, context.Canceled)

	var agg *source.AggregateError
	assert.False(t, errors.As(err, &agg), "cancellation is not an aggregate failure")
}

func TestOrchestrator_CancelledMidQuery(t *testing.T) {
	ctrl := gomock.NewController(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newAdapter(ctrl, "a", 1, source.FormatDisplay)
	b := newAdapter(ctrl, "b", 2, source.FormatDisplay)
	a.EXPECT().Query(gomock.Any(), gomock.Any()).DoAndReturn(func(qctx context.Context, _ string) (*source.Record, error) {
		cancel()
		<-qctx.Done()
		return nil, qctx.Err()
	})
	b.EXPECT().Query(gomock.Any(), gomock.Any()).Times(0)

	reg, err := source.NewRegistry(a, b)
	require.NoError(t, err)

	_, err = source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(ctx, parsed(t, "ABP-001.mp4"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_EmptyRegistry(t *testing.T) {
	reg, err := source.NewRegistry()
	require.NoError(t, err)

	_, err = source.NewOrchestrator(reg, time.Second, testLogger()).Resolve(context.Background(), parsed(t, "ABP-001.mp4"))

	var agg *source.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Empty(t, agg.Failures)
	assert.Equal(t, "no sources configured", agg.Reason())
}
