package query

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/wpilogviewer/internal/logtest"
	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/value"
)

func loadEntries(t *testing.T) (speed, names, wheels *index.Entry) {
	t.Helper()

	data := logtest.New().
		Start(1, "speed", "double", "", 100).
		Value(1, 110, logtest.Double(1)).
		Value(1, 120, logtest.Double(4)).
		Value(1, 130, logtest.Double(2.5)).
		Value(1, 140, logtest.Double(-3)).
		Start(2, "names", "string[]", "", 100).
		Value(2, 110, logtest.Strings("a")).
		Start(3, "wheels", "int64[]", "", 100).
		Value(3, 110, logtest.Int64s(1, 10)).
		Value(3, 120, logtest.Int64s(2)).
		Value(3, 130, logtest.Int64s(3, 30)).
		Bytes()

	idx, _, err := index.Load(context.Background(), bytes.NewReader(data), index.LoadOptions{})
	require.NoError(t, err)

	var ok bool
	speed, ok = idx.EntryAt(1, 100)
	require.True(t, ok)
	names, ok = idx.EntryAt(2, 100)
	require.True(t, ok)
	wheels, ok = idx.EntryAt(3, 100)
	require.True(t, ok)
	return speed, names, wheels
}

func timestamps(records []value.Record) []uint64 {
	out := make([]uint64, 0, len(records))
	for _, r := range records {
		out = append(out, r.Timestamp)
	}
	return out
}

func TestCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{"equality", Condition{Operator: "=", Value: 25}, false},
		{"range", Condition{Operator: ">=", Value: 18}, false},
		{"not equal", Condition{Operator: "!=", Value: 0}, false},
		{"empty operator", Condition{Value: 25}, true},
		{"invalid operator", Condition{Operator: "~", Value: 25}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		expr    string
		want    Condition
		wantErr bool
	}{
		{">=1.5", Condition{Operator: ">=", Value: 1.5}, false},
		{"< -2", Condition{Operator: "<", Value: -2}, false},
		{"!=0", Condition{Operator: "!=", Value: 0}, false},
		{"=3", Condition{Operator: "=", Value: 3}, false},
		{" > 1e3 ", Condition{Operator: ">", Value: 1000}, false},
		{"1.5", Condition{}, true},
		{">=", Condition{}, true},
		{">=abc", Condition{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_Match(t *testing.T) {
	c := Condition{Operator: "<=", Value: 2}
	assert.True(t, c.Match(2))
	assert.True(t, c.Match(-1))
	assert.False(t, c.Match(2.0001))
	assert.False(t, c.Match(math.NaN()))
	assert.False(t, Condition{Operator: "?"}.Match(0))
}

func TestExtractors(t *testing.T) {
	x, err := ScalarExtractor{}.Extract(value.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, 1.0, x)

	x, err = ScalarExtractor{}.Extract(value.Float(0.5))
	require.NoError(t, err)
	assert.Equal(t, 0.5, x)

	_, err = ScalarExtractor{}.Extract(value.String("x"))
	assert.ErrorIs(t, err, ErrNotNumeric)

	x, err = ElementExtractor{Index: 1}.Extract(value.DoubleArray{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, x)

	x, err = ElementExtractor{Index: 0}.Extract(value.BoolArray{false})
	require.NoError(t, err)
	assert.Equal(t, 0.0, x)

	_, err = ElementExtractor{Index: 2}.Extract(value.Int64Array{1})
	assert.EqualError(t, err, "element 2 out of range for array of 1")

	_, err = ElementExtractor{Index: 0}.Extract(value.Double(1))
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestSimpleEngine_Execute(t *testing.T) {
	speed, names, wheels := loadEntries(t)
	engine := NewSimpleEngine()
	ctx := context.Background()

	t.Run("time range", func(t *testing.T) {
		it, err := engine.Execute(ctx, speed, Query{From: 115, To: 130})
		require.NoError(t, err)
		records, err := Collect(it)
		require.NoError(t, err)
		assert.Equal(t, []uint64{120, 130}, timestamps(records))
	})

	t.Run("condition", func(t *testing.T) {
		it, err := engine.Execute(ctx, speed, Query{To: math.MaxUint64, Condition: &Condition{Operator: ">", Value: 1}})
		require.NoError(t, err)
		records, err := Collect(it)
		require.NoError(t, err)
		assert.Equal(t, []uint64{120, 130}, timestamps(records))
	})

	t.Run("element condition skips short arrays", func(t *testing.T) {
		it, err := engine.Execute(ctx, wheels, Query{
			To:        math.MaxUint64,
			Condition: &Condition{Operator: ">=", Value: 10},
			Extractor: ElementExtractor{Index: 1},
		})
		require.NoError(t, err)
		records, err := Collect(it)
		require.NoError(t, err)
		assert.Equal(t, []uint64{110, 130}, timestamps(records))
	})

	t.Run("non numeric never matches", func(t *testing.T) {
		it, err := engine.Execute(ctx, names, Query{To: math.MaxUint64, Condition: &Condition{Operator: "!=", Value: 0}})
		require.NoError(t, err)
		assert.False(t, it.Next())
		assert.Equal(t, value.Record{}, it.Record())
	})

	t.Run("invalid queries", func(t *testing.T) {
		_, err := engine.Execute(ctx, speed, Query{From: 2, To: 1})
		assert.Error(t, err)

		_, err = engine.Execute(ctx, speed, Query{To: 1, Condition: &Condition{Operator: "=="}})
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := engine.Execute(cancelled, speed, Query{To: math.MaxUint64, Condition: &Condition{Operator: ">", Value: 0}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSimpleEngine_Stats(t *testing.T) {
	speed, names, _ := loadEntries(t)
	engine := NewSimpleEngine()
	ctx := context.Background()

	stats, err := engine.Stats(ctx, speed, Query{To: math.MaxUint64})
	require.NoError(t, err)
	assert.Equal(t, Stats{Count: 4, Min: -3, Max: 4, Mean: 1.125, First: 110, Last: 140}, stats)

	stats, err = engine.Stats(ctx, speed, Query{From: 120, To: 130, Condition: &Condition{Operator: "<", Value: 3}})
	require.NoError(t, err)
	assert.Equal(t, Stats{Count: 1, Min: 2.5, Max: 2.5, Mean: 2.5, First: 130, Last: 130}, stats)

	stats, err = engine.Stats(ctx, names, Query{To: math.MaxUint64})
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 1}, stats)
}
