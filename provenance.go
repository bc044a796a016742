package valmap

// KindValid is the kind reported for cascade declarations in provenance and dumps.
const KindValid = "Valid"

// Provenance contains origin information for the declarations of a mapping.
type Provenance struct {
	Declarations []DeclarationProvenance
}

// DeclarationProvenance describes where a single declaration came from.
type DeclarationProvenance struct {
	Location   string // Rendered location (e.g., "model.Person.firstName")
	Kind       string // Constraint kind, or KindValid for cascades
	SourceName string // Origin (e.g., "programmatic", "file:constraints.yaml")
}

// Provenance returns origin metadata for every constraint and cascade declaration,
// grouped by type in first-use order.
func (m *ConstraintMapping) Provenance() *Provenance {
	prov := &Provenance{}
	for _, t := range m.configured {
		for _, c := range m.constraints[t] {
			prov.Declarations = append(prov.Declarations, DeclarationProvenance{
				Location:   c.Location.String(),
				Kind:       c.Def.Kind(),
				SourceName: c.Origin,
			})
		}
		for _, c := range m.cascades[t] {
			prov.Declarations = append(prov.Declarations, DeclarationProvenance{
				Location:   c.Location.String(),
				Kind:       KindValid,
				SourceName: c.Origin,
			})
		}
	}
	return prov
}

// Sources returns the distinct source names in order of first appearance.
func (p *Provenance) Sources() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, d := range p.Declarations {
		if !seen[d.SourceName] {
			seen[d.SourceName] = true
			sources = append(sources, d.SourceName)
		}
	}
	return sources
}

// FromSource returns the declarations contributed by one source.
func (p *Provenance) FromSource(name string) []DeclarationProvenance {
	var out []DeclarationProvenance
	for _, d := range p.Declarations {
		if d.SourceName == name {
			out = append(out, d)
		}
	}
	return out
}
