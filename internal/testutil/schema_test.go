package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustMetadata(t *testing.T) {
	md := MustMetadata()

	names := make([]string, 0, 4)
	for _, e := range md.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Something", "SomethingElse", "Person", "Company"}, names)

	person, err := md.Entity("Person")
	require.NoError(t, err)
	assert.Len(t, person.Tables(), 2)
	assert.True(t, person.HasAttribute("address"))
	assert.Same(t, md.ResolveEntityReference("SomethingElse"), md.ResolveEntityReference("org.example.SomethingElse"))

	c, err := md.ResolveConstant("Status.ACTIVE")
	require.NoError(t, err)
	assert.Equal(t, "A", c.Value)
}
