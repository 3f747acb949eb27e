//go:build xgpu
// +build xgpu

package correlator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestXGPUCorrelator_Run(t *testing.T) {
	x := NewXGPUCorrelator(zap.NewNop())
	if !x.IsAvailable() {
		t.Skip("CUDA not available on this system")
	}

	info := x.Info()
	assert.Greater(t, info.NStation, 0)
	assert.Greater(t, info.MatLength, 0)

	err := x.Init()
	if errors.Is(err, ErrUnsupportedLayout) {
		t.Skipf("xGPU library layout not supported: %v", err)
	}
	require.NoError(t, err)
	defer x.Free()
	require.Len(t, x.Input(), info.VecLength)
	require.Len(t, x.Output(), info.MatLength)

	GenerateTestData(x.Input(), DefaultSeed)
	clear(x.Output())
	require.NoError(t, x.Run(context.Background()))

	var nonZero int
	for _, v := range x.Output() {
		if v != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 0)
}
