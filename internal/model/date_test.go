package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_DayAndTimestamp(t *testing.T) {
	d, err := ParseDate("2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", d.String())

	d, err = ParseDate("2025-01-02T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", d.String(), "timestamps truncate to the UTC day")

	_, err = ParseDate("02/01/2025")
	assert.Error(t, err)
}

func TestDateOnOrBefore(t *testing.T) {
	a := NewDate(2025, time.January, 1)
	b := NewDate(2025, time.January, 2)
	assert.True(t, a.OnOrBefore(a))
	assert.True(t, a.OnOrBefore(b))
	assert.False(t, b.OnOrBefore(a))
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Expiry Date `json:"expiry"`
	}

	data, err := json.Marshal(wrapper{Expiry: NewDate(2025, time.March, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiry":"2025-03-15"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"expiry":null}`), &w))
	assert.True(t, w.Expiry.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"expiry":"2025-03-15"}`), &w))
	assert.Equal(t, "2025-03-15", w.Expiry.String())
}

func TestDateAddDays_CrossesMonth(t *testing.T) {
	d := NewDate(2025, time.January, 31)
	assert.Equal(t, "2025-02-02", d.AddDays(2).String())
}
