package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futuricity/livability/internal/model"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadLocationsCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []model.Location
		wantErr bool
	}{
		{
			name:    "with header",
			content: "label,lat,lng\nJakarta,-6.2,106.8\nBandung,-6.9,107.6\n",
			want: []model.Location{
				{Label: "Jakarta", Lat: -6.2, Lng: 106.8},
				{Label: "Bandung", Lat: -6.9, Lng: 107.6},
			},
		},
		{
			name:    "without header",
			content: "Jakarta,-6.2,106.8\n",
			want:    []model.Location{{Label: "Jakarta", Lat: -6.2, Lng: 106.8}},
		},
		{
			name:    "invalid coordinates past header",
			content: "label,lat,lng\nJakarta,-6.2,106.8\nBroken,x,y\n",
			wantErr: true,
		},
		{
			name:    "header only",
			content: "label,lat,lng\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: true,
		},
		{
			name:    "wrong column count",
			content: "Jakarta,-6.2\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readLocationsCSV(writeCSV(t, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLocationsCSVMissingFile(t *testing.T) {
	_, err := readLocationsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
