package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestDirector(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Regie: Jan Gehler", "Jan Gehler"},
		{"Regie Jan Gehler Bühne Sabine Kohlstedt", "Jan Gehler"},
		{"Inszenierung – Isabel Ostermann.", "Isabel Ostermann"},
		{"Regie: Anna von Bergen Kostüme: Tom", "Anna von Bergen"},
		{"Musikalische Leitung: Mino Marani Regie: Isabel Ostermann", "Isabel Ostermann"},
		{"Regieassistenz: Paul Maier", "<nil>"},
		{"Regie: siehe Programmheft", "<nil>"},
		{"Keine Angaben", "<nil>"},
	}
	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			require.Equal(t, test.expected, deref(Director(test.text)))
		})
	}
}

func TestAuthor(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Oper von Giuseppe Verdi", "Giuseppe Verdi"},
		{"Libretto: Francesco Maria Piave", "Francesco Maria Piave"},
		{"Schauspiel von Durs Grünbein Regie: Jan Gehler", "Durs Grünbein"},
		{"Text: Lutz Hübner, Sarah Nemitz", "Lutz Hübner"},
		{"von 15 bis 30 Euro", "<nil>"},
		{"Fotos von Sebastian Hoppe", "<nil>"},
		{"Foto: © von Sebastian Hoppe", "<nil>"},
		{"Bild von Anna Maier, Schauspiel von Durs Grünbein", "Durs Grünbein"},
	}
	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			require.Equal(t, test.expected, deref(Author(test.text)))
		})
	}
}

func TestDuration(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Dauer: 3 Stunden", "3 h"},
		{"Dauer: ca. 2 h 30 min", "2 h 30 min"},
		{"Dauer 2 Std. 15 Min., eine Pause", "2 h 15 min, 1 Pause"},
		{"Dauer: 2 Stunden und 45 Minuten inkl. einer Pause", "2 h 45 min, 1 Pause"},
		{"Dauer: ca. 2 3/4 Stunden, eine Pause", "2 h 45 min, 1 Pause"},
		{"Dauer: 2 ¾ Stunden, zwei Pausen", "2 h 45 min, 2 Pausen"},
		{"Dauer: 1 ½ Stunden ohne Pause", "1 h 30 min, ohne Pause"},
		{"Dauer: 2,5 Stunden", "2 h 30 min"},
		{"Dauer: 90 Minuten, keine Pause", "1 h 30 min, ohne Pause"},
		{"Dauer: 100 Minuten ohne Pause", "1 h 40 min, ohne Pause"},
		{"Dauer: 45 Minuten", "45 min"},
		{"Dauer: 2 h 45 min, mit Pause", "2 h 45 min, 1 Pause"},
		{"Dauer: 2:45 Stunden, eine Pause", "2 h 45 min, 1 Pause"},
		{"Dauer: 2:45 h inkl. Pause", "2 h 45 min, 1 Pause"},
		{"Dauer: 1:30 Std.", "1 h 30 min"},
		{"Dauer: ca. 2:45", "<nil>"},
		{"Dauer: 2:75 h", "<nil>"},
		{"Dauer: wird noch bekannt gegeben", "<nil>"},
		{"2 Stunden ohne Label", "<nil>"},
	}
	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			require.Equal(t, test.expected, deref(Duration(test.text)))
		})
	}
}

func TestExtractMetadata(t *testing.T) {
	lines := []string{
		"Der Komet",
		"Schauspiel von Durs Grünbein",
		"Regie",
		"Jan Gehler",
		"Bühne",
		"Sabine Kohlstedt",
		"Dauer",
		"ca. 1 h 45 min, keine Pause",
		"Text: Durs Grünbein",
	}
	meta := ExtractMetadata(lines)
	require.Equal(t, "Jan Gehler", deref(meta.Director))
	require.Equal(t, "Durs Grünbein", deref(meta.Author))
	require.Equal(t, "1 h 45 min, ohne Pause", deref(meta.Duration))

	credited := ExtractMetadata([]string{"Fotos von Sebastian Hoppe", "Schauspiel von Durs Grünbein"})
	require.Equal(t, "Durs Grünbein", deref(credited.Author))

	empty := ExtractMetadata([]string{"Der Komet", "Tickets"})
	require.Nil(t, empty.Director)
	require.Nil(t, empty.Author)
	require.Nil(t, empty.Duration)
}
