package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-duende/leadfinder/internal/model"
)

func TestDefaults_Performer(t *testing.T) {
	seeds, err := Defaults("owner-1", model.PersonaPerformer)
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	regions := map[string]bool{}
	for _, s := range seeds {
		assert.Equal(t, "owner-1", s.OwnerID)
		assert.Equal(t, model.PersonaPerformer, s.Persona)
		assert.True(t, s.Active)
		assert.NotEmpty(t, s.ID)
		assert.NotEmpty(t, s.Keywords)
		assert.Equal(t, "web_search", s.Source)
		regions[s.Region] = true
	}
	assert.True(t, regions["Orange County"])
	assert.True(t, regions["Long Beach"])
}

func TestDefaults_Instructor(t *testing.T) {
	seeds, err := Defaults("owner-1", model.PersonaInstructor)
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	var sawStudio bool
	for _, s := range seeds {
		assert.Equal(t, model.PersonaInstructor, s.Persona)
		for _, kw := range s.Keywords {
			if kw == "dance studio" {
				sawStudio = true
			}
		}
	}
	assert.True(t, sawStudio, "instructor catalog targets studios")
}

func TestDefaults_UnknownPersonaFallsBack(t *testing.T) {
	seeds, err := Defaults("owner-1", model.Persona("astronaut"))
	require.NoError(t, err)
	require.NotEmpty(t, seeds)
	assert.Equal(t, model.PersonaPerformer, seeds[0].Persona)
}

func TestDefaults_FreshIDsPerCall(t *testing.T) {
	first, err := Defaults("owner-1", model.PersonaPerformer)
	require.NoError(t, err)
	second, err := Defaults("owner-1", model.PersonaPerformer)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}
