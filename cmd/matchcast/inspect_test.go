package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/matchcast/internal/replay"
)

func TestPrintSummary(t *testing.T) {
	dynamic := make([]json.RawMessage, 12)
	for i := range dynamic {
		dynamic[i] = json.RawMessage(`{}`)
	}
	ds := replay.New("final", json.RawMessage(`{"steps":12}`), dynamic)

	var buf bytes.Buffer
	printSummary(&buf, ds, 5, 500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "Match:     final\n")
	assert.Contains(t, out, "Steps:     12\n")
	assert.Contains(t, out, "Shards:    3 (size 5)\n")
	assert.Contains(t, out, "Static:    12 bytes\n")
	assert.Contains(t, out, "Duration:  5.5s at 500ms per step\n")
}

func TestPrintSummary_EmptyMatch(t *testing.T) {
	ds := replay.New("empty", json.RawMessage(`{"steps":0}`), nil)

	var buf bytes.Buffer
	printSummary(&buf, ds, 5, time.Second)

	assert.Contains(t, buf.String(), "Shards:    0 (size 5)\n")
	assert.False(t, strings.Contains(buf.String(), "Duration"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, json.RawMessage(`{"units":[1,2]}`)))
	assert.Equal(t, "{\n  \"units\": [\n    1,\n    2\n  ]\n}\n", buf.String())

	assert.Error(t, printJSON(&buf, json.RawMessage(`{oops`)))
}
