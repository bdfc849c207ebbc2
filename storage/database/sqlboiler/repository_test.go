package boiledrepos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "default", want: "ORDER BY name ASC, id ASC"},
		{name: "requested", ordering: []core.DBOrdering{{Field: "capacity"}, {Field: "name", Ascending: true}}, want: "ORDER BY capacity DESC, name ASC, id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, _ := queries.BuildQuery(newQuery("class", orderBy(tt.ordering, "name ASC")))
			assert.Contains(t, query, tt.want)
		})
	}
}

func Test_searchMod(t *testing.T) {
	assert.Nil(t, searchMod(core.PageQuery{}, "name"))

	query, args := queries.BuildQuery(newQuery("subject", searchMod(core.PageQuery{Search: "50%_off"}, "name", "code")...))
	assert.Contains(t, query, "(name ILIKE $1 OR code ILIKE $2)")
	assert.Equal(t, []interface{}{`%50\%\_off%`, `%50\%\_off%`}, args)
}
