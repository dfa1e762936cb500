package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMentionsIn(t *testing.T) {
	m := NewMentions("La traviata", "traviata")

	require.True(t, m.In("LA TRAVIATA – Oper von Giuseppe Verdi"))
	require.True(t, m.In("Karten für  La   Traviata"))
	require.True(t, m.In("La Travaita auf dem Burgplatz"), "misspelt title")
	require.False(t, m.In("Der Barbier von Sevilla"))
	require.False(t, m.In(""))
}

func TestMentionsShortWordsAreNotFuzzy(t *testing.T) {
	m := NewMentions("Der Komet", "komet")
	require.True(t, m.In("Der Komet"))
	require.False(t, m.In("Der Kater"))
	require.False(t, m.In("Das Komitee"))
}

func TestWindows(t *testing.T) {
	m := NewMentions("Der Komet", "komet")
	lines := []string{
		"a", "b", "c",
		"Der Komet",
		"d", "e", "f", "g", "h",
	}
	require.Equal(t, []string{"b c Der Komet d e f g"}, m.Windows(lines))

	lines = []string{"Komet", "x"}
	require.Equal(t, []string{"Komet x"}, m.Windows(lines))

	require.Empty(t, m.Windows([]string{"nothing", "here"}))
}
