package profile

import (
	"time"

	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

// ISP720p is the builtin name of the 1280x720 ISP table.
const ISP720p = "isp-720p"

var ispSettle = delay.Fixed(100 * time.Millisecond)

func ispWrite(reg, val uint16) Step {
	return Step{Reg: reg, Value: val, Width: Width16, Settle: ispSettle}
}

// builtins returns fresh copies of the builtin profiles.
func builtins() []*Profile {
	return []*Profile{
		{
			Name: ISP720p,
			Steps: []Step{
				ispWrite(0xc804, 0x0040),
				ispWrite(0xc806, 0x0004),
				ispWrite(0xc808, 0x0477),
				ispWrite(0xc80a, 0x0783),
				ispWrite(0xc814, 0x04b0),
				ispWrite(0xc816, 0x0960),
				ispWrite(0xc8a0, 0x0000),
				ispWrite(0xc8a2, 0x0000),
				ispWrite(0xc8a4, 0x0780),
				ispWrite(0xc8a6, 0x0438),
				ispWrite(0xcae4, 0x0500),
				ispWrite(0xcae6, 0x02d0),
				ispWrite(0xfc00, 0x2800),
				ispWrite(0x0040, 0x8100),
			},
		},
	}
}
