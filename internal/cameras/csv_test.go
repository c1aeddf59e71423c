package cameras_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/vms-inventory/internal/cameras"
	"github.com/technosupport/vms-inventory/internal/data"
)

func TestWriteCSV(t *testing.T) {
	reg := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cams := []*data.Camera{
		storedCamera(),
		{ID: 6, Name: ptr(`Yard, "east"`), NVRID: 2, GroupID: 2, Status: false, RegDate: reg},
	}

	var buf bytes.Buffer
	require.NoError(t, cameras.WriteCSV(&buf, cams))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "Id", header[0])
	assert.Equal(t, "RegDate", header[len(header)-1])
	for _, r := range records {
		assert.Len(t, r, len(header))
	}

	assert.Equal(t, "5", records[1][0])
	assert.Equal(t, "Gate-1", records[1][1])
	assert.Equal(t, "12.9716", records[1][12])
	assert.Equal(t, "true", records[1][18])
	assert.Equal(t, "", records[1][19])

	assert.Equal(t, `Yard, "east"`, records[2][1])
	assert.Equal(t, "false", records[2][21])
	assert.Equal(t, "2024-01-02T03:04:05Z", records[2][23])
}
