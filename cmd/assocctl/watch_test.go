package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/internal/config"
	"github.com/joshuapare/assockit/registry"
)

func TestWatchCommand(t *testing.T) {
	cmd := setupTest(t, testFixture, config.FormatJSON)
	watchCount = 1
	m := testRegistry.(*registry.Memory)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd.SetContext(ctx)

	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-time.After(50 * time.Millisecond):
			}
			_ = m.SetString(fmt.Sprintf(`HKEY_CLASSES_ROOT\Viewer%d\shell\open\command`, i), "", `C:\viewer.exe %1`)
		}
	}()

	output, err := captureOutput(t, func() error { return runWatch(cmd) })
	close(stop)
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "a rebuild was reported before the timeout")
	assertJSON(t, output)
	assertContains(t, output, []string{`"generation"`, `"extensions"`})
}
