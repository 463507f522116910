package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	t.Parallel()

	input := "Manifest-Version: 1.0\r\n" +
		"Created-By: 17 (Example)\r\n" +
		"War-Main-Class: com.example.very.long.package.name.that.wraps.acros\r\n" +
		" s.Lines\r\n" +
		"Empty: \r\n" +
		"\r\n" +
		"Name: com/example/Main.class\r\n" +
		"War-Main-Class: ignored\r\n"

	m, err := ParseManifest(strings.NewReader(input))
	require.NoError(t, err)

	v, ok := m.Get("war-main-class")
	require.True(t, ok)
	assert.Equal(t, "com.example.very.long.package.name.that.wraps.across.Lines", v)

	v, ok = m.Get("Empty")
	require.True(t, ok)
	assert.Empty(t, v)

	_, ok = m.Get("Name")
	assert.False(t, ok, "per-entry sections are not part of the main section")
	assert.Len(t, m.Main, 4)
}

func TestParseManifest_UnixLineEndings(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest(strings.NewReader("Manifest-Version: 1.0\nWar-Main-Class: a.B\n"))
	require.NoError(t, err)
	v, _ := m.Get(MainClassAttribute)
	assert.Equal(t, "a.B", v)
}

func TestParseManifest_ByteOrderMark(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest(strings.NewReader("\ufeffManifest-Version: 1.0\r\nWar-Main-Class: a.B\r\n"))
	require.NoError(t, err)
	require.Len(t, m.Main, 2)
	assert.Equal(t, "Manifest-Version", m.Main[0].Name)
	v, ok := m.Get(MainClassAttribute)
	require.True(t, ok)
	assert.Equal(t, "a.B", v)
}

func TestParseManifest_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no separator":         "Manifest-Version 1.0\n",
		"leading continuation": " continued\n",
		"empty name":           ": value\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseManifest(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrArchiveFormat)
		})
	}
}

func TestManifest_GetNil(t *testing.T) {
	t.Parallel()

	var m *Manifest
	_, ok := m.Get(MainClassAttribute)
	assert.False(t, ok)
}
