package sourcefile

// document is the decoded form of a constraint-mapping file.
type document struct {
	Types []typeDoc `yaml:"types" json:"types" toml:"types"`
}

type typeDoc struct {
	Type                         string          `yaml:"type" json:"type" toml:"type"`
	DefaultGroupSequence         []string        `yaml:"defaultGroupSequence" json:"defaultGroupSequence" toml:"defaultGroupSequence"`
	DefaultGroupSequenceProvider string          `yaml:"defaultGroupSequenceProvider" json:"defaultGroupSequenceProvider" toml:"defaultGroupSequenceProvider"`
	Constraints                  []constraintDoc `yaml:"constraints" json:"constraints" toml:"constraints"`
	Properties                   []propertyDoc   `yaml:"properties" json:"properties" toml:"properties"`
	Methods                      []methodDoc     `yaml:"methods" json:"methods" toml:"methods"`
}

type constraintDoc struct {
	Kind   string         `yaml:"kind" json:"kind" toml:"kind"`
	Params map[string]any `yaml:"params" json:"params" toml:"params"`
}

type propertyDoc struct {
	Name        string          `yaml:"name" json:"name" toml:"name"`
	Element     string          `yaml:"element" json:"element" toml:"element"` // "field" (default) or "getter"
	Valid       bool            `yaml:"valid" json:"valid" toml:"valid"`
	Constraints []constraintDoc `yaml:"constraints" json:"constraints" toml:"constraints"`
}

type methodDoc struct {
	Name        string        `yaml:"name" json:"name" toml:"name"`
	Parameters  []string      `yaml:"parameters" json:"parameters" toml:"parameters"`
	Arguments   []argumentDoc `yaml:"arguments" json:"arguments" toml:"arguments"`
	ReturnValue *elementDoc   `yaml:"returnValue" json:"returnValue" toml:"returnValue"`
}

type argumentDoc struct {
	Index       int             `yaml:"index" json:"index" toml:"index"`
	Valid       bool            `yaml:"valid" json:"valid" toml:"valid"`
	Constraints []constraintDoc `yaml:"constraints" json:"constraints" toml:"constraints"`
}

type elementDoc struct {
	Valid       bool            `yaml:"valid" json:"valid" toml:"valid"`
	Constraints []constraintDoc `yaml:"constraints" json:"constraints" toml:"constraints"`
}
