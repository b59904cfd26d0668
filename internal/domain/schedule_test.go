package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_LastWriteWinsKeepsFirstPosition(t *testing.T) {
	first := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)

	s := NewSchedule()
	s.Set(ContainerDate{Label: "Kärl 1", Date: &first})
	s.Set(ContainerDate{Label: "Kärl 2"})
	s.Set(ContainerDate{Label: "Kärl 1", Date: &second})

	require.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"Kärl 1", "Kärl 2"}, s.Labels())

	got, ok := s.Get("Kärl 1")
	require.True(t, ok)
	assert.Equal(t, "2024-05-08", got.ISODate())

	entries := s.Entries()
	assert.Equal(t, "Kärl 1", entries[0].Label)
	assert.False(t, entries[1].HasDate())
}

func TestSchedule_NilIsEmpty(t *testing.T) {
	var s *Schedule
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Labels())
	_, ok := s.Get("x")
	assert.False(t, ok)
	assert.Empty(t, s.Entries())
}

func TestParseMunicipality(t *testing.T) {
	for _, m := range SupportedMunicipalities() {
		got, err := ParseMunicipality(" " + string(m) + " ")
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMunicipality("malmo")
	assert.Error(t, err)
	assert.Equal(t, "Kävlinge", MunicipalityKavlinge.DisplayName())
}

func TestAddress_ID(t *testing.T) {
	a := Address{Municipality: MunicipalityLomma, Street: "Storgatan Övre", Number: "12B", City: "Bjärred"}
	assert.Equal(t, "lomma_storgatan_ovre_12b_bjarred", a.ID())

	lomma := Address{Municipality: MunicipalityLomma, Street: "Storgatan", Number: "1", City: "Lomma"}
	bjarred := Address{Municipality: MunicipalityLomma, Street: "Storgatan", Number: "1", City: "Bjärred"}
	assert.NotEqual(t, lomma.ID(), bjarred.ID())
}
