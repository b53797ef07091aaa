package services

import (
	"bytes"
	"encoding/json"
	"testing"

	"hostel-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []models.ExportRow {
	img := "20240501120000_tap.jpg"
	addr := "Block C"
	return []models.ExportRow{
		{ID: 2, Name: "Asha", Room: "12B", Title: "Leaking tap", Description: "Drips, \"loudly\"\nall night",
			Image: &img, Address: &addr, Status: models.StatusOpen, CreatedAt: "2024-05-01T12:00:00.000000"},
		{ID: 1, Name: "Ravi", Room: "3A", Title: "Fan", Description: "Broken", Status: models.StatusClosed,
			CreatedAt: "2024-04-30T08:00:00.000000"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	want := "id,name,room,title,description,image,address,phone,status,created_at\r\n" +
		"2,Asha,12B,Leaking tap,\"Drips, \"\"loudly\"\"\r\nall night\",20240501120000_tap.jpg,Block C,,open,2024-05-01T12:00:00.000000\r\n" +
		"1,Ravi,3A,Fan,Broken,,,,closed,2024-04-30T08:00:00.000000\r\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,name,room,title,description,image,address,phone,status,created_at\r\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRows()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	keys := make([]string, 0, len(got[0]))
	for k := range got[0] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, models.ExportColumns, keys)
	assert.NotContains(t, got[0], "video")
	assert.Nil(t, got[1]["image"])
	assert.Equal(t, float64(2), got[0]["id"])
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
