package kiosk

import (
	"github.com/hitoha-dev/kioskd/internal/config"
	"github.com/hitoha-dev/kioskd/internal/dispatch"
)

// PromptsFromConfig overlays non-empty config overrides on the built-in
// prompt table. Shared by the daemon and the bake tool so both speak from
// the same table.
func PromptsFromConfig(pc config.PromptsConfig) dispatch.Prompts {
	p := dispatch.DefaultPrompts()
	overlay := []struct {
		value  string
		target *string
	}{
		{pc.Idle, &p.Idle},
		{pc.BackToIdle, &p.BackToIdle},
		{pc.HoldHand, &p.HoldHand},
		{pc.MeasureReady, &p.MeasureReady},
		{pc.Measuring, &p.Measuring},
		{pc.Success, &p.Success},
		{pc.Failure, &p.Failure},
		{pc.TagRead, &p.TagRead},
		{pc.TagWrite, &p.TagWrite},
		{pc.Done, &p.Done},
	}
	for _, o := range overlay {
		if o.value != "" {
			*o.target = o.value
		}
	}
	return p
}
