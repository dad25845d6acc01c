package barbuffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

var barBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func closedBar(i int, close float64) models.Bar {
	return models.Bar{
		OpenTime: barBase.Add(time.Duration(i) * 5 * time.Minute),
		Open:     close - 1,
		High:     close + 1,
		Low:      close - 2,
		Close:    close,
		Volume:   10,
		Closed:   true,
	}
}

func TestApplyAccumulatesClosedBars(t *testing.T) {
	b := New(10)

	for i := 0; i < 3; i++ {
		finalized, err := b.Apply(closedBar(i, float64(100+i)))
		require.NoError(t, err)
		require.Len(t, finalized, 1)
		require.True(t, finalized[0].Closed)
	}

	require.Equal(t, 3, b.Len())
	s := b.Series(false)
	require.Equal(t, []float64{100, 101, 102}, s.Closes)

	ts, ok := b.LastClosedTime()
	require.True(t, ok)
	require.Equal(t, barBase.Add(10*time.Minute), ts)
}

func TestApplyMergesActiveBarUpdates(t *testing.T) {
	b := New(10)

	open := models.Bar{OpenTime: barBase, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 5}
	finalized, err := b.Apply(open)
	require.NoError(t, err)
	require.Empty(t, finalized)
	require.Equal(t, 0, b.Len())

	update := models.Bar{OpenTime: barBase, Open: 100, High: 103, Low: 98, Close: 102, Volume: 9}
	finalized, err = b.Apply(update)
	require.NoError(t, err)
	require.Empty(t, finalized)

	bars := b.Bars(true)
	require.Len(t, bars, 1)
	require.Equal(t, 103.0, bars[0].High)
	require.Equal(t, 98.0, bars[0].Low)
	require.Equal(t, 102.0, bars[0].Close)
	require.Equal(t, 9.0, bars[0].Volume)
	require.False(t, bars[0].Closed)

	final := update
	final.Close = 101.5
	final.Closed = true
	finalized, err = b.Apply(final)
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	require.Equal(t, 101.5, finalized[0].Close)
	require.Equal(t, 1, b.Len())
}

func TestApplyDropsDuplicateClosedBar(t *testing.T) {
	b := New(10)

	_, err := b.Apply(closedBar(0, 100))
	require.NoError(t, err)
	_, err = b.Apply(closedBar(1, 101))
	require.NoError(t, err)

	_, err = b.Apply(closedBar(1, 999))
	require.ErrorIs(t, err, models.ErrDuplicateBar)
	_, err = b.Apply(closedBar(0, 999))
	require.ErrorIs(t, err, models.ErrDuplicateBar)

	require.Equal(t, 2, b.Len())
	s := b.Series(false)
	require.Equal(t, []float64{100, 101}, s.Closes)
}

func TestApplyForceClosesDisplacedActive(t *testing.T) {
	b := New(10)

	stuck := models.Bar{OpenTime: barBase, Open: 100, High: 101, Low: 99, Close: 100, Volume: 5}
	_, err := b.Apply(stuck)
	require.NoError(t, err)

	next := models.Bar{OpenTime: barBase.Add(5 * time.Minute), Open: 100, High: 102, Low: 100, Close: 101, Volume: 3}
	finalized, err := b.Apply(next)
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	require.True(t, finalized[0].Closed)
	require.Equal(t, barBase, finalized[0].OpenTime)

	require.Equal(t, 1, b.Len())
	price, ok := b.LastPrice()
	require.True(t, ok)
	require.Equal(t, 101.0, price)
}

func TestApplyFinalizesTwoBarsOnGapFill(t *testing.T) {
	b := New(10)

	open := models.Bar{OpenTime: barBase, Open: 100, High: 101, Low: 99, Close: 100, Volume: 5}
	_, err := b.Apply(open)
	require.NoError(t, err)

	finalized, err := b.Apply(closedBar(1, 105))
	require.NoError(t, err)
	require.Len(t, finalized, 2)
	require.Equal(t, barBase, finalized[0].OpenTime)
	require.Equal(t, barBase.Add(5*time.Minute), finalized[1].OpenTime)
	require.Equal(t, 2, b.Len())
}

func TestEvictionKeepsNewestBars(t *testing.T) {
	b := New(3)

	for i := 0; i < 5; i++ {
		_, err := b.Apply(closedBar(i, float64(100+i)))
		require.NoError(t, err)
	}

	require.Equal(t, 3, b.Len())
	s := b.Series(false)
	require.Equal(t, []float64{102, 103, 104}, s.Closes)
}

func TestLastPricePrefersActiveBar(t *testing.T) {
	b := New(10)

	_, ok := b.LastPrice()
	require.False(t, ok)

	_, err := b.Apply(closedBar(0, 100))
	require.NoError(t, err)
	price, ok := b.LastPrice()
	require.True(t, ok)
	require.Equal(t, 100.0, price)

	active := models.Bar{OpenTime: barBase.Add(5 * time.Minute), Open: 100, High: 101, Low: 99, Close: 100.7, Volume: 2}
	_, err = b.Apply(active)
	require.NoError(t, err)
	price, ok = b.LastPrice()
	require.True(t, ok)
	require.Equal(t, 100.7, price)
}

func TestSeriesIncludesActiveOnRequest(t *testing.T) {
	b := New(10)

	_, err := b.Apply(closedBar(0, 100))
	require.NoError(t, err)
	active := models.Bar{OpenTime: barBase.Add(5 * time.Minute), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 2}
	_, err = b.Apply(active)
	require.NoError(t, err)

	require.Len(t, b.Series(false).Closes, 1)
	withActive := b.Series(true)
	require.Equal(t, []float64{100, 100.5}, withActive.Closes)

	bars := b.Bars(true)
	bars[0].Close = -1
	require.Equal(t, 100.0, b.Series(true).Closes[0])
}
