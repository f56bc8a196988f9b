package config

import "sort"

// Preset is a named operating scenario: hold Power for Duration days.
type Preset struct {
	Description string  `yaml:"description"`
	Power       float64 `yaml:"power"`
	Duration    float64 `yaml:"duration"`
}

var Presets = map[string]*Preset{
	"startup": {
		Description: "full power from a clean core until iodine and xenon settle",
		Power:       1.0, Duration: 40,
	},
	"shutdown": {
		Description: "trip to zero power and watch the xenon peak",
		Power:       0.0, Duration: 3,
	},
	"setback": {
		Description: "drop to half power",
		Power:       0.5, Duration: 10,
	},
	"restart": {
		Description: "return to full power and burn the xenon out",
		Power:       1.0, Duration: 5,
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
