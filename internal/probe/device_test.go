package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

func writeCard(t *testing.T, root, card string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, drmClassPath, card, "device")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestSysfsDevice(t *testing.T) {
	root := t.TempDir()
	// card0 is an integrated display controller without VRAM counters.
	writeCard(t, root, "card0", map[string]string{"vendor": "0x8086\n"})
	writeCard(t, root, "card1", map[string]string{
		vramTotalFilename: "2147483648\n",
		vramUsedFilename:  "104857600\n",
	})
	writeCard(t, root, "card10", map[string]string{
		vramTotalFilename: "1073741824\n",
		vramUsedFilename:  "0\n",
	})

	t.Run("auto selects first card with counters", func(t *testing.T) {
		d, err := NewSysfsDevice(root, "auto")
		require.NoError(t, err)
		assert.Equal(t, "sysfs:card1", d.Name())

		r, err := d.DeviceMemory()
		require.NoError(t, err)
		assert.Equal(t, 2048.0, r.TotalMB)
		assert.Equal(t, 100.0, r.UsedMB)
		assert.Equal(t, 1948.0, r.FreeMB)
		assert.Equal(t, r.TotalMB-r.FreeMB, r.UsedMB)
	})

	t.Run("explicit card", func(t *testing.T) {
		d, err := NewSysfsDevice(root, "card10")
		require.NoError(t, err)
		r, err := d.DeviceMemory()
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.UsedMB)
		assert.Equal(t, 1024.0, r.FreeMB)
	})

	t.Run("card without counters", func(t *testing.T) {
		_, err := NewSysfsDevice(root, "card0")
		assert.ErrorIs(t, err, ErrProbeUnavailable)
	})

	t.Run("no drm class", func(t *testing.T) {
		_, err := NewSysfsDevice(t.TempDir(), "")
		assert.ErrorIs(t, err, ErrProbeUnavailable)
	})

	t.Run("counter disappears", func(t *testing.T) {
		root := t.TempDir()
		writeCard(t, root, "card0", map[string]string{vramTotalFilename: "1024\n"})
		d, err := NewSysfsDevice(root, "card0")
		require.NoError(t, err)

		r, err := d.DeviceMemory()
		assert.ErrorIs(t, err, ErrProbeUnavailable)
		assert.Equal(t, memmon.UnavailableDevice(), r)
	})

	t.Run("used above total", func(t *testing.T) {
		root := t.TempDir()
		writeCard(t, root, "card0", map[string]string{
			vramTotalFilename: "1024\n",
			vramUsedFilename:  "4096\n",
		})
		d, err := NewSysfsDevice(root, "card0")
		require.NoError(t, err)

		_, err = d.DeviceMemory()
		assert.ErrorIs(t, err, ErrProbeUnavailable)
	})
}

func TestParseSMIMemory(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    memmon.DeviceReading
		wantErr bool
	}{
		{
			name:   "single gpu",
			output: "23040, 24576\n",
			want:   memmon.DeviceReading{UsedMB: 1536, FreeMB: 23040, TotalMB: 24576},
		},
		{
			name:   "leading blank line",
			output: "\n  8000, 8192  \n",
			want:   memmon.DeviceReading{UsedMB: 192, FreeMB: 8000, TotalMB: 8192},
		},
		{name: "empty", output: "", wantErr: true},
		{name: "not supported", output: "[N/A], 8192\n", wantErr: true},
		{name: "wrong column count", output: "1, 2, 3\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSMIMemory([]byte(tt.output))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrProbeUnavailable)
				assert.Equal(t, memmon.UnavailableDevice(), got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSMIDeviceRunner(t *testing.T) {
	d := NewSMIDevice(1, time.Second, zap.NewNop())

	var gotArgs []string
	d.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		assert.Equal(t, smiBinary, name)
		gotArgs = args
		return []byte("500, 1000\n"), nil
	}

	r, err := d.DeviceMemory()
	require.NoError(t, err)
	assert.Equal(t, 500.0, r.UsedMB)
	assert.Contains(t, gotArgs, "--id=1")

	d.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 9")
	}
	r, err = d.DeviceMemory()
	assert.ErrorIs(t, err, ErrProbeUnavailable)
	assert.False(t, r.Valid())
}

func TestNewDeviceProbe(t *testing.T) {
	log := zap.NewNop()

	t.Run("none", func(t *testing.T) {
		d, err := NewDeviceProbe(DeviceOptions{Kind: KindNone}, log)
		require.NoError(t, err)
		assert.Equal(t, KindNone, d.Name())

		r, err := d.DeviceMemory()
		assert.ErrorIs(t, err, ErrProbeUnavailable)
		assert.False(t, r.Valid())
		assert.NoError(t, d.Close())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewDeviceProbe(DeviceOptions{Kind: "opencl"}, log)
		assert.Error(t, err)
	})

	t.Run("sysfs", func(t *testing.T) {
		root := t.TempDir()
		writeCard(t, root, "card0", map[string]string{
			vramTotalFilename: "1048576\n",
			vramUsedFilename:  "0\n",
		})
		d, err := NewDeviceProbe(DeviceOptions{Kind: KindSysfs, SysfsRoot: root}, log)
		require.NoError(t, err)
		assert.Equal(t, "sysfs:card0", d.Name())
	})

	t.Run("sysfs missing", func(t *testing.T) {
		d, err := NewDeviceProbe(DeviceOptions{Kind: KindSysfs, SysfsRoot: t.TempDir()}, log)
		assert.ErrorIs(t, err, ErrProbeUnavailable)
		assert.Nil(t, d)
	})

	t.Run("auto never fails", func(t *testing.T) {
		d, err := NewDeviceProbe(DeviceOptions{Kind: KindAuto, SysfsRoot: t.TempDir(), SMITimeout: time.Second}, log)
		require.NoError(t, err)
		require.NotNil(t, d)
		defer d.Close()
	})
}
