package adoption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackListings(t *testing.T) {
	pets, err := Fallback()
	require.NoError(t, err)
	require.Len(t, pets, 2)

	assert.Equal(t, "Buddy", pets[0].Name)
	assert.Equal(t, "Golden Retriever", pets[0].Breed)
	assert.Equal(t, "Luna", pets[1].Name)
	assert.Equal(t, "1.5 years", pets[1].Age)
	for _, p := range pets {
		assert.Equal(t, "Available", p.Status)
		assert.NotEmpty(t, p.Shelter)
	}
}

func TestFilter(t *testing.T) {
	pets, err := Fallback()
	require.NoError(t, err)

	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"Buddy", "Luna"}},
		{"   ", []string{"Buddy", "Luna"}},
		{"buddy", []string{"Buddy"}},
		{"SIAMESE", []string{"Luna"}},
		{"cat", []string{"Luna"}},
		{"happy paws", []string{"Buddy"}},
		{"years", []string{"Buddy", "Luna"}},
		{"great with kids", []string{"Buddy"}},
		{"hamster", nil},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			var names []string
			for _, p := range Filter(pets, tc.query) {
				names = append(names, p.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}
