package series

// Variable names one tracked quantity; the value doubles as its JSON key.
type Variable string

const (
	Iodine       Variable = "iodine"
	Xenon        Variable = "xenon"
	Promethium   Variable = "promethium"
	Samarium     Variable = "samarium"
	ReactivityXe Variable = "reactivity_xe"
	ReactivitySm Variable = "reactivity_sm"
)

// Panel groups variables that share a chart.
type Panel int

const (
	PanelConcentration Panel = iota
	PanelReactivity
)

func (p Panel) Title() string {
	if p == PanelReactivity {
		return "Negative Reactivity Over Time"
	}
	return "Poison Concentration Over Time"
}

// Info describes how a variable is presented.
type Info struct {
	Variable Variable
	Label    string
	Color    string
	Panel    Panel
}

// Catalogue lists every tracked variable in emission order.
var Catalogue = []Info{
	{Iodine, "Iodine-135", "#17BECF", PanelConcentration},
	{Xenon, "Xenon-135", "#7F7F7F", PanelConcentration},
	{Promethium, "Promethium-149", "#FF6347", PanelConcentration},
	{Samarium, "Samarium-149", "#4682B4", PanelConcentration},
	{ReactivityXe, "Xe-135 Reactivity", "#7F7F7F", PanelReactivity},
	{ReactivitySm, "Sm-149 Reactivity", "#4682B4", PanelReactivity},
}

// Variables returns the tracked variables in catalogue order.
func Variables() []Variable {
	vs := make([]Variable, len(Catalogue))
	for i, info := range Catalogue {
		vs[i] = info.Variable
	}
	return vs
}

// Names returns the tracked variables as plain strings.
func Names() []string {
	names := make([]string, len(Catalogue))
	for i, info := range Catalogue {
		names[i] = string(info.Variable)
	}
	return names
}

// Lookup returns the catalogue entry for v.
func Lookup(v Variable) (Info, bool) {
	for _, info := range Catalogue {
		if info.Variable == v {
			return info, true
		}
	}
	return Info{}, false
}

// Point is the initial condition for a continuation: a time offset in days
// and the four poison concentrations at that time.
type Point struct {
	Time       float64 `json:"time"`
	Iodine     float64 `json:"iodine"`
	Xenon      float64 `json:"xenon"`
	Promethium float64 `json:"promethium"`
	Samarium   float64 `json:"samarium"`
}

// Equilibrium holds the steady-state and post-shutdown extremum values for
// a given full-power flux.
type Equilibrium struct {
	IodineInfinity       float64 `json:"iodine_infinity"`
	XenonInfinity        float64 `json:"xenon_infinity"`
	PromethiumInfinity   float64 `json:"promethium_infinity"`
	SamariumInfinity     float64 `json:"samarium_infinity"`
	XeReactivityInfinity float64 `json:"xe_reactivity_infinity"`
	SmReactivityInfinity float64 `json:"sm_reactivity_infinity"`
	MaxXenon             float64 `json:"max_xenon"`
	MaxXeReactivity      float64 `json:"max_xe_reactivity"`
	MaxXenonTime         float64 `json:"max_xenon_time"`
	MaxXeReactivityTime  float64 `json:"max_xe_reactivity_time"`
}
