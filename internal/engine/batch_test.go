package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/generator"
	"github.com/xtding233/loto-backend/internal/history"
)

func TestSuggest(t *testing.T) {
	e, _ := newTestEngine(t, csvRows(25))
	require.NoError(t, e.ReloadHistory())

	// every number is drawn 15 times; 16, 17 and 18 have been out longest
	g, err := e.Suggest(0)
	require.NoError(t, err)
	assert.Equal(t, history.SetOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 16, 17, 18), g.Numbers)
	assert.Equal(t, generator.OriginHot, g.Origins[1])
	assert.Equal(t, generator.OriginHot, g.Origins[10])
	assert.Equal(t, generator.OriginCold, g.Origins[16])
	assert.Equal(t, generator.OriginNeutral, g.Origins[12])
	assert.Len(t, g.Origins, 15)

	again, err := e.Suggest(15)
	require.NoError(t, err)
	assert.Equal(t, g, again)

	big, err := e.Suggest(18)
	require.NoError(t, err)
	assert.Equal(t, 18, big.Numbers.Len())
	assert.True(t, big.Numbers.Has(13))

	_, err = e.Suggest(21)
	assert.Equal(t, KindInvalid, Classify(err))
}

func TestSuggestEmptyHistory(t *testing.T) {
	e, _ := newTestEngine(t, "")
	require.NoError(t, e.ReloadHistory())
	g, err := e.Suggest(0)
	require.NoError(t, err)
	assert.Equal(t, history.SetOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15), g.Numbers)
	assert.Len(t, g.Origins, 15)
}

func TestGenerateBatch(t *testing.T) {
	e, _ := newTestEngine(t, csvRows(40))
	require.NoError(t, e.ReloadHistory())

	seed := uint64(3)
	b, err := e.GenerateBatch(map[int]int{17: 1, 15: 2, 16: 0}, config.Overrides{Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{15: 2, 17: 1}, b.Requested)
	require.Len(t, b.Games, b.Produced[15]+b.Produced[17])
	assert.Equal(t, 0, b.Shortfall())

	prevSize := 0
	for i, g := range b.Games {
		assert.GreaterOrEqual(t, g.Size, prevSize, "smallest size first")
		prevSize = g.Size
		assert.Equal(t, g.Size, g.Numbers.Len())
		assert.Equal(t, g.Size, g.Even+g.Odd)
		assert.Equal(t, g.Numbers.Sum(), g.Sum)
		assert.Equal(t, i+1, g.Record.Index)
		assert.Equal(t, g.Numbers, g.Record.Numbers)
	}

	again, err := e.GenerateBatch(map[int]int{15: 2, 17: 1}, config.Overrides{Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestGenerateBatchValidation(t *testing.T) {
	e, _ := newTestEngine(t, csvRows(10))
	require.NoError(t, e.ReloadHistory())
	s := e.Settings()
	s.Generator.MaxCount = 5
	require.NoError(t, e.ApplySettings(s))

	for name, q := range map[string]map[int]int{
		"empty":         {},
		"all zero":      {15: 0},
		"negative":      {15: -1},
		"bad size":      {14: 1},
		"over max":      {15: 3, 16: 3},
		"huge quantity": {15: 1 << 31},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.GenerateBatch(q, config.Overrides{})
			assert.Equal(t, KindInvalid, Classify(err))
		})
	}
}

func TestGenerateRejectsHugeCount(t *testing.T) {
	e, _ := newTestEngine(t, csvRows(5))
	require.NoError(t, e.ReloadHistory())
	count := 1 << 31
	_, err := e.Generate(config.Overrides{Count: &count})
	assert.ErrorIs(t, err, generator.ErrInvalidParams)
	assert.Equal(t, KindInvalid, Classify(err))
}

func TestSummaryAllowedRunFollowsMedianSetting(t *testing.T) {
	// draw 1 has runs of 2, 3 and 10; draw 2 has runs of 2 and 13
	body := "1;d;1;2;4;5;6;8;9;10;11;12;13;14;15;16;17\n" +
		"2;d;1;2;4;5;6;7;8;9;10;11;12;13;14;15;16\n"
	e, _ := newTestEngine(t, body)
	require.NoError(t, e.ReloadHistory())

	// distinct lengths 2, 3, 10, 13: median 6.5
	assert.Equal(t, 6, e.Summary().AllowedRun)

	s := e.Settings()
	s.Generator.RunMedian = generator.RunMedianObservations
	require.NoError(t, e.ApplySettings(s))
	// observations 2, 2, 3, 10, 13: median 3
	assert.Equal(t, 4, e.Summary().AllowedRun)
}
