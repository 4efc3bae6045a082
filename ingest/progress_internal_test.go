package ingest

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeProgress(t *testing.T) {
	// ffmpeg emits out_time_ms in microseconds. 10s total duration.
	stream := strings.Join([]string{
		"frame=100",
		"out_time_ms=2500000",
		"progress=continue",
		"out_time_ms=5000000",
		"progress=continue",
		"out_time_ms=10000000",
		"progress=end",
	}, "\n")

	var reported []int
	err := consumeProgress(
		bufio.NewScanner(strings.NewReader(stream)),
		10.0,
		func(pct int) { reported = append(reported, pct) })
	require.Nil(t, err)
	assert.Equal(t, []int{25, 50, 100}, reported)
}

func TestConsumeProgressNoDuration(t *testing.T) {
	// Without a duration, percentages can't be computed and the
	// observer stays silent, but the stream still drains cleanly.
	stream := "out_time_ms=2500000\nprogress=end\n"
	called := false
	err := consumeProgress(
		bufio.NewScanner(strings.NewReader(stream)),
		0,
		func(pct int) { called = true })
	require.Nil(t, err)
	assert.False(t, called)
}

func TestConsumeProgressMonotonic(t *testing.T) {
	// Repeated or regressing timestamps never report a lower value.
	stream := strings.Join([]string{
		"out_time_ms=5000000",
		"out_time_ms=5000000",
		"out_time_ms=4000000",
		"out_time_ms=6000000",
		"progress=end",
	}, "\n")
	var reported []int
	err := consumeProgress(
		bufio.NewScanner(strings.NewReader(stream)),
		10.0,
		func(pct int) { reported = append(reported, pct) })
	require.Nil(t, err)
	assert.Equal(t, []int{50, 60}, reported)
}
