package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadItems(t *testing.T) {
	file := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(file, []byte(` [{"sku":"A"},{"sku":"B"}] `), 0o600))

	tests := []struct {
		name    string
		data    string
		file    string
		want    int
		wantErr bool
	}{
		{name: "single object", data: `{"sku":"SKU-1","name":"Widget"}`, want: 1},
		{name: "array from file", file: file, want: 2},
		{name: "no input", wantErr: true},
		{name: "both flags", data: `{}`, file: file, wantErr: true},
		{name: "broken json", data: `{"sku":`, wantErr: true},
		{name: "missing file", file: filepath.Join(t.TempDir(), "none.json"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addData, addFile = tt.data, tt.file
			t.Cleanup(func() { addData, addFile = "", "" })

			items, err := readItems()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}
