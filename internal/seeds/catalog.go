// Package seeds holds the default query-seed catalogs. Each persona gets
// its own catalog; defaults are instantiated per owner on first access.
package seeds

import (
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/digital-duende/leadfinder/internal/model"
)

//go:embed performer.yaml
var performerCatalog []byte

//go:embed instructor.yaml
var instructorCatalog []byte

type catalogEntry struct {
	Region   string   `yaml:"region"`
	Keywords []string `yaml:"keywords"`
	Source   string   `yaml:"source"`
}

// Defaults returns a fresh copy of the default seed catalog for a persona,
// scoped to the given owner. Unknown personas fall back to performer.
func Defaults(ownerID string, persona model.Persona) ([]model.QuerySeed, error) {
	raw := performerCatalog
	if persona == model.PersonaInstructor {
		raw = instructorCatalog
	} else {
		persona = model.PersonaPerformer
	}

	var entries []catalogEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, eris.Wrap(err, "seeds: unmarshal catalog")
	}

	now := time.Now().UTC()
	out := make([]model.QuerySeed, 0, len(entries))
	for _, e := range entries {
		source := e.Source
		if source == "" {
			source = "web_search"
		}
		out = append(out, model.QuerySeed{
			ID:        uuid.New().String(),
			OwnerID:   ownerID,
			Region:    e.Region,
			Keywords:  e.Keywords,
			Source:    source,
			Persona:   persona,
			Active:    true,
			CreatedAt: now,
		})
	}
	return out, nil
}
