package yamlfront

import (
	"gopkg.in/yaml.v3"

	"github.com/lyzr/petrinet/pkg/model"
)

// rawJobOut is the write-side mirror of rawJob: only the fields Parse
// itself consumes round-trip, since attribute/warning metadata derived
// at parse time (matrix flags, unknown-key warnings) is not part of
// the grammar Parse reads back in.
type rawJobOut struct {
	Needs  []string `yaml:"needs,omitempty"`
	If     string   `yaml:"if,omitempty"`
	RunsOn string   `yaml:"runs-on"`
}

// Serialize renders spec back into the minimal YAML dialect Parse
// accepts. It is the inverse Parse needs for the parse/serialize/parse
// round trip: every IntentStep becomes one job keyed by its id, with
// dependencies as "needs" and the guard label as "if".
func Serialize(spec *model.IntentSpec) ([]byte, error) {
	jobs := make(map[string]rawJobOut, len(spec.Steps))
	for _, s := range spec.Steps {
		needs := make([]string, len(s.Dependencies))
		for i, d := range s.Dependencies {
			needs[i] = string(d)
		}
		jobs[string(s.ID)] = rawJobOut{
			Needs:  needs,
			If:     s.When,
			RunsOn: "ubuntu-latest",
		}
	}

	doc := struct {
		Jobs map[string]rawJobOut `yaml:"jobs"`
	}{Jobs: jobs}

	return yaml.Marshal(doc)
}
