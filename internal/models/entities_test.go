package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityBag_Merge(t *testing.T) {
	base := EntityBag{
		ClientName:   StringPtr("Acme"),
		TimePeriod:   StringPtr("этот месяц"),
		QueryType:    QueryTypeCount,
		StatusIntent: StatusClosed,
	}

	t.Run("overlay fields win", func(t *testing.T) {
		got := base.Merge(EntityBag{AssigneeRaw: StringPtr("Иванов"), TimePeriod: StringPtr("вчера")})
		assert.Equal(t, "Acme", Deref(got.ClientName))
		assert.Equal(t, "Иванов", Deref(got.AssigneeRaw))
		assert.Equal(t, "вчера", Deref(got.TimePeriod))
	})

	t.Run("neutral enums do not override", func(t *testing.T) {
		got := base.Merge(EntityBag{QueryType: QueryTypeSearch, StatusIntent: StatusAll})
		assert.Equal(t, QueryTypeCount, got.QueryType)
		assert.Equal(t, StatusClosed, got.StatusIntent)
	})

	t.Run("explicit enums override", func(t *testing.T) {
		got := base.Merge(EntityBag{QueryType: QueryTypeList, StatusIntent: StatusOpen})
		assert.Equal(t, QueryTypeList, got.QueryType)
		assert.Equal(t, StatusOpen, got.StatusIntent)
	})

	t.Run("merge copies values", func(t *testing.T) {
		overlay := EntityBag{SearchText: StringPtr("логин")}
		got := base.Merge(overlay)
		*overlay.SearchText = "changed"
		assert.Equal(t, "логин", Deref(got.SearchText))
	})
}

func TestEntityBag_Normalize(t *testing.T) {
	got := EntityBag{
		ClientName:   StringPtr("  "),
		AssigneeRaw:  StringPtr("null"),
		Priority:     StringPtr(" High "),
		QueryType:    "Ranking",
		StatusIntent: "whatever",
	}.Normalize()

	assert.Nil(t, got.ClientName)
	assert.Nil(t, got.AssigneeRaw)
	assert.Equal(t, "High", Deref(got.Priority))
	assert.Equal(t, QueryTypeRanking, got.QueryType)
	assert.Equal(t, StatusAll, got.StatusIntent)
}

func TestEntityBag_IsEmpty(t *testing.T) {
	assert.True(t, DefaultEntityBag().IsEmpty())
	assert.True(t, EntityBag{}.IsEmpty())
	assert.False(t, EntityBag{StatusIntent: StatusOpen}.IsEmpty())
	assert.False(t, EntityBag{QueryType: QueryTypeAnalytics}.IsEmpty())
}

func TestDictionaries_Empty(t *testing.T) {
	assert.True(t, Dictionaries{DictStatuses: nil, DictUsers: {}}.Empty())
	assert.False(t, Dictionaries{DictStatuses: {{ID: "1", Name: "Open"}}}.Empty())
}
