package profile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

// fileProfile is the YAML form of a profile:
//
//	name: isp-1080p
//	vsync: active-low
//	lsb_first: false
//	steps:
//	  - {reg: 0xc804, value: 0x0040, width: 16, settle: 100ms}
type fileProfile struct {
	Name     string     `yaml:"name"`
	VSync    string     `yaml:"vsync"`
	LSBFirst bool       `yaml:"lsb_first"`
	Steps    []fileStep `yaml:"steps"`
}

type fileStep struct {
	Reg       uint16 `yaml:"reg"`
	Value     uint16 `yaml:"value"`
	Width     uint8  `yaml:"width"`
	Settle    string `yaml:"settle"`
	SettleMax string `yaml:"settle_max"`
}

// Parse decodes a profile from YAML and validates it. Width defaults to 8.
func Parse(data []byte) (*Profile, error) {
	var fp fileProfile
	if err := yaml.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	pol, err := ParsePolarity(fp.VSync)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		Name:     fp.Name,
		VSync:    pol,
		LSBFirst: fp.LSBFirst,
		Steps:    make([]Step, 0, len(fp.Steps)),
	}

	for i, fs := range fp.Steps {
		settle, err := parseSettle(fs.Settle, fs.SettleMax)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidProfile, i, err)
		}
		w := Width(fs.Width)
		if w == 0 {
			w = Width8
		}
		p.Steps = append(p.Steps, Step{Reg: fs.Reg, Value: fs.Value, Width: w, Settle: settle})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads and parses a profile file.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func parseSettle(minStr, maxStr string) (delay.Range, error) {
	if minStr == "" {
		return delay.Range{}, nil
	}
	lo, err := time.ParseDuration(minStr)
	if err != nil {
		return delay.Range{}, err
	}
	if maxStr == "" {
		return delay.Fixed(lo), nil
	}
	hi, err := time.ParseDuration(maxStr)
	if err != nil {
		return delay.Range{}, err
	}
	return delay.Between(lo, hi), nil
}
