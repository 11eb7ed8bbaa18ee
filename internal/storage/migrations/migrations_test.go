package migrations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegisteredOrdered(t *testing.T) {
	migrations := Registered()
	assert.NotEmpty(t, migrations)

	seen := make(map[string]bool)
	prev := ""
	for _, m := range migrations {
		assert.NotEmpty(t, m.Name)
		assert.NotNil(t, m.Up, m.ID)
		assert.NotNil(t, m.Down, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		assert.Greater(t, m.ID, prev)
		seen[m.ID] = true
		prev = m.ID
	}
}

func TestPending(t *testing.T) {
	all := Registered()
	now := time.Now()

	assert.Len(t, pending(all, nil), len(all))

	todo := pending(all, map[string]time.Time{"001": now, "003": now})
	ids := make([]string, 0, len(todo))
	for _, m := range todo {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"002", "004", "005"}, ids)

	applied := make(map[string]time.Time)
	for _, m := range all {
		applied[m.ID] = now
	}
	assert.Empty(t, pending(all, applied))
}

func TestAllModelsCoversCoreTables(t *testing.T) {
	assert.Len(t, AllModels(), 3)
}
