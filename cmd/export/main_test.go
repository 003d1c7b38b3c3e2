package main

import (
	"testing"
	"time"

	"carspa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRange(t *testing.T) {
	now := time.Date(2026, time.October, 19, 15, 0, 0, 0, time.UTC)

	from, to, err := exportRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2026, time.October, 19), to)
	assert.Equal(t, models.NewDate(2026, time.September, 19), from)

	from, to, err = exportRange("2026-10-01", "2026-10-05", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01", from.String())
	assert.Equal(t, "2026-10-05", to.String())

	_, _, err = exportRange("2026-10-05", "2026-10-01", now)
	assert.Error(t, err)

	_, _, err = exportRange("01/10/2026", "", now)
	assert.ErrorContains(t, err, "-from")
}
