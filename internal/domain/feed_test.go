package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeProjection(t *testing.T) {
	fixedTime := time.Date(2020, time.March, 10, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	cases, hospitals := analysisFixture()
	p, err := BuildProjection(cases, hospitals, testCountySC, OutcomeDeaths,
		Params{Lag: 5, Rate: 0.01}, testOptions())
	require.NoError(t, err)

	msg, err := SerializeProjection(p)
	require.NoError(t, err)

	assert.Equal(t, []byte("Santa Clara|deaths"), msg.Key)
	assert.Equal(t, "Santa Clara", msg.Headers["county"])
	assert.Equal(t, "deaths", msg.Headers["outcome"])
	assert.Equal(t, "2020-03-10T12:00:00Z", msg.Headers["computed_at"])

	var payload feedPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, testCountySC, payload.County)
	assert.Equal(t, OutcomeDeaths, payload.Outcome)
	assert.Equal(t, Params{Lag: 5, Rate: 0.01}, payload.Params)
	assert.Equal(t, p.Projected.Dates, payload.Projected.Dates)
	assert.Equal(t, p.Projected.Values, payload.Projected.Values)
	assert.InDelta(t, 0.1, payload.Summary.ProjectedValue, 1e-9)
	assert.Equal(t, fixedTime, payload.ComputedAt)
}
