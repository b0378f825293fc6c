package locate

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/location"
)

func run(t *testing.T, settings *conf.Settings, args ...string) (string, error) {
	t.Helper()
	cmd := Command(settings)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLocate(t *testing.T) {
	settings := &conf.Settings{}
	settings.Location.Threshold = location.DefaultThreshold

	out, err := run(t, settings, "--latitude", "39.90", "--longitude", "116.40")
	require.NoError(t, err)
	assert.Equal(t, "北京 (nearest: 北京, 0.9 km)\n", out)

	out, err = run(t, settings, "--latitude", "0", "--longitude", "0")
	require.NoError(t, err)
	assert.Contains(t, out, location.UnknownLocation)
}

func TestLocateUsesConfiguredThreshold(t *testing.T) {
	settings := &conf.Settings{}
	settings.Location.Threshold = 0.5

	out, err := run(t, settings, "--latitude", "39.90", "--longitude", "116.40")
	require.NoError(t, err)
	assert.Equal(t, location.UnknownLocation+" (nearest: 北京, 0.9 km)\n", out)
}

func TestLocateRequiresBothCoordinates(t *testing.T) {
	_, err := run(t, &conf.Settings{}, "--latitude", "39.90")
	require.Error(t, err)
}
