package block

// Info is a serializable description of a block, used by documentation and
// inspection endpoints.
type Info struct {
	Name        string          `json:"name"`
	Hash        string          `json:"hash"`
	Help        string          `json:"help,omitempty"`
	InputTypes  string          `json:"input_types"`
	OutputTypes string          `json:"output_types"`
	Parameters  []ParameterInfo `json:"parameters,omitempty"`
	Required    []VariableInfo  `json:"required_variables,omitempty"`
	Exposed     []VariableInfo  `json:"exposed_variables,omitempty"`
}

type ParameterInfo struct {
	Name    string `json:"name"`
	Help    string `json:"help,omitempty"`
	Types   string `json:"types"`
	Current string `json:"current"`
}

type VariableInfo struct {
	Name   string `json:"name"`
	Help   string `json:"help,omitempty"`
	Type   string `json:"type"`
	Global bool   `json:"global,omitempty"`
}

// Describe captures the descriptor of b for its current parameters.
func Describe(b Block) Info {
	info := Info{
		Name:        b.Name(),
		Hash:        b.Hash().String(),
		Help:        b.Help(),
		InputTypes:  b.InputTypes().Name(),
		OutputTypes: b.OutputTypes().Name(),
	}

	for i, p := range b.Parameters() {
		info.Parameters = append(info.Parameters, ParameterInfo{
			Name:    p.Name,
			Help:    p.Help,
			Types:   p.Types.Name(),
			Current: b.GetParam(i).String(),
		})
	}
	info.Required = variableInfos(b.RequiredVariables())
	info.Exposed = variableInfos(b.ExposedVariables())
	return info
}

func variableInfos(d Descriptor) []VariableInfo {
	if len(d) == 0 {
		return nil
	}
	out := make([]VariableInfo, len(d))
	for i, e := range d {
		out[i] = VariableInfo{Name: e.Name, Help: e.Help, Type: e.Types().Name(), Global: e.Global}
	}
	return out
}
