package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertBusinessSQL(t *testing.T) {
	req := UpsertRequest{
		ExternalID: "ext-1",
		Name:       "Acme Dental",
		Email:      "front@acme.test",
		Timezone:   "America/Chicago",
	}

	query, args, err := upsertBusinessSQL(req)
	require.NoError(t, err)

	assert.Contains(t, query, "ON CONFLICT (external_id) DO UPDATE")
	assert.Contains(t, query, "name = EXCLUDED.name")
	assert.Contains(t, query, "email = EXCLUDED.email")
	// An identity event carrying a changed timezone must reach existing rows.
	assert.Contains(t, query, "timezone = EXCLUDED.timezone")
	assert.Contains(t, query, "RETURNING")

	require.Len(t, args, 4)
	assert.Equal(t, []any{"ext-1", "Acme Dental", "front@acme.test", "America/Chicago"}, args)
}
