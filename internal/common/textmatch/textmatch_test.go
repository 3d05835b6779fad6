package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefix(t *testing.T) {
	m := Prefix("закрыт", "how many")

	tests := []struct {
		text string
		want bool
	}{
		{"закрытые задачи", true},
		{"Закрыты вчера", true},
		{"незакрытые задачи", false},
		{"How  many bugs", true},
		{"somehow many", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.text))
		})
	}
}

func TestWord(t *testing.T) {
	m := Word("мне", "my")

	assert.True(t, m.Match("задачи на мне"))
	assert.True(t, m.Match("мне, пожалуйста"))
	assert.True(t, m.Match("show my issues"))
	assert.False(t, m.Match("моё мнение"))
	assert.False(t, m.Match("mystery"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "а у иванова?", Fold("  А  у\tИванова? "))
}

func TestAny(t *testing.T) {
	m := Any(Word("топ"), Prefix("рейтинг"))

	assert.True(t, m.Match("топ исполнителей"))
	assert.True(t, m.Match("рейтинга проектов"))
	assert.False(t, m.Match("топик"))
}

func TestPattern(t *testing.T) {
	m := Pattern(`прошл\p{L}*\s+недел`)

	assert.True(t, m.Match("на прошлой неделе"))
	assert.True(t, m.Match("Прошлая неделя"))
	assert.False(t, m.Match("позапрошлой неделе"))
}
