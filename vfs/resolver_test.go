package vfs

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/warexec/archive"
	"github.com/meigma/warexec/internal/testutil"
)

func newResolver(t *testing.T, entries ...testutil.Entry) *Resolver {
	t.Helper()
	data := testutil.BuildWar(t, "com.example.Main", entries...)
	idx, err := archive.New(testutil.NewSource(data), int64(len(data)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return NewResolver(idx)
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestResolver_OpenClassEntry(t *testing.T) {
	t.Parallel()

	r := newResolver(t, testutil.Class("com.example.Main", []byte("main-bytes")))

	loc := archive.Location{Path: "WEB-INF/classes/com/example/Main.class"}
	first, err := r.Open(loc)
	require.NoError(t, err)
	second, err := r.Open(loc)
	require.NoError(t, err)

	assert.Equal(t, []byte("main-bytes"), readAll(t, first))
	assert.Equal(t, []byte("main-bytes"), readAll(t, second))

	_, err = r.Open(archive.Location{Path: "WEB-INF/classes/com/example/Other.class"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_OpenNestedMember(t *testing.T) {
	t.Parallel()

	util := bytes.Repeat([]byte("util"), 300)
	for _, tc := range []struct {
		name        string
		jarMethod   uint16
		entryMethod uint16
	}{
		{name: "stored jar deflated member", jarMethod: testutil.Store, entryMethod: testutil.Deflate},
		{name: "stored jar zstd member", jarMethod: testutil.Store, entryMethod: testutil.Zstd},
		{name: "deflated jar", jarMethod: testutil.Deflate, entryMethod: testutil.Deflate},
		{name: "zstd jar", jarMethod: testutil.Zstd, entryMethod: testutil.Store},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := newResolver(t, testutil.Jar(t, "util.jar", tc.jarMethod,
				testutil.Entry{Name: "META-INF/MANIFEST.MF", Data: testutil.Manifest()},
				testutil.Entry{Name: "org/util/Strings.class", Data: util, Method: tc.entryMethod},
			))

			loc, err := r.Locate("WEB-INF/lib/util.jar", "org/util/Strings.class")
			require.NoError(t, err)
			assert.Equal(t, "war://WEB-INF/lib/util.jar!/org/util/Strings.class", loc.String())

			for range 2 {
				rc, err := r.Open(loc)
				require.NoError(t, err)
				assert.Equal(t, util, readAll(t, rc))
			}

			_, err = r.Locate("WEB-INF/lib/util.jar", "org/util/Missing.class")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = r.Open(loc.Join("x"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResolver_CompressedLibraryMembers(t *testing.T) {
	t.Parallel()

	members := []testutil.Entry{
		{Name: "a/First.class", Data: bytes.Repeat([]byte("first"), 500), Method: testutil.Deflate},
		{Name: "a/Second.class", Data: []byte("second"), Method: testutil.Store},
		{Name: "a/Third.class", Data: bytes.Repeat([]byte("third"), 800), Method: testutil.Zstd},
		{Name: "a/Empty.class", Method: testutil.Deflate},
	}
	for _, jarMethod := range []uint16{testutil.Deflate, testutil.Zstd} {
		r := newResolver(t, testutil.Jar(t, "mixed.jar", jarMethod, members...))

		// Reverse archive order: each open skips over the members before it.
		for i := len(members) - 1; i >= 0; i-- {
			want := members[i]
			loc, err := r.Locate("WEB-INF/lib/mixed.jar", want.Name)
			require.NoError(t, err)
			for range 2 {
				rc, err := r.Open(loc)
				require.NoError(t, err, want.Name)
				assert.Equal(t, string(want.Data), string(readAll(t, rc)), want.Name)
			}
		}
	}
}

func TestResolver_Members(t *testing.T) {
	t.Parallel()

	r := newResolver(t, testutil.Jar(t, "a.jar", testutil.Deflate,
		testutil.Entry{Name: "b/B.class", Data: []byte("b")},
		testutil.Entry{Name: "a/A.class", Data: []byte("a")},
	))

	members, err := r.Members("WEB-INF/lib/a.jar")
	require.NoError(t, err)
	assert.Equal(t, []string{"b/B.class", "a/A.class"}, members)

	_, err = r.Members("WEB-INF/lib/missing.jar")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Members("WEB-INF/classes/com/example/Main.class")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_CorruptLibrary(t *testing.T) {
	t.Parallel()

	r := newResolver(t, testutil.Entry{Name: "WEB-INF/lib/bad.jar", Data: []byte("not a jar"), Method: testutil.Store})

	_, err := r.Locate("WEB-INF/lib/bad.jar", "a/A.class")
	require.ErrorIs(t, err, archive.ErrArchiveFormat)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolver_LibrarySizeLimit(t *testing.T) {
	t.Parallel()

	data := testutil.BuildWar(t, "com.example.Main", testutil.Jar(t, "big.jar", testutil.Deflate,
		testutil.Entry{Name: "a/A.class", Data: bytes.Repeat([]byte("x"), 4096), Method: testutil.Store},
	))
	idx, err := archive.New(testutil.NewSource(data), int64(len(data)))
	require.NoError(t, err)
	defer idx.Close()

	r := NewResolver(idx, WithMaxLibrarySize(1024))
	_, err = r.Locate("WEB-INF/lib/big.jar", "a/A.class")
	assert.ErrorIs(t, err, ErrSizeOverflow)
}

func TestResolver_AfterClose(t *testing.T) {
	t.Parallel()

	r := newResolver(t,
		testutil.Class("com.example.Main", []byte("main")),
		testutil.Jar(t, "a.jar", testutil.Store, testutil.Entry{Name: "a/A.class", Data: []byte("a")}),
	)
	member, err := r.Locate("WEB-INF/lib/a.jar", "a/A.class")
	require.NoError(t, err)

	require.NoError(t, r.Index().Close())

	_, err = r.Open(archive.Location{Path: "WEB-INF/classes/com/example/Main.class"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.Open(member)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.Locate("WEB-INF/lib/a.jar", "a/A.class")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResolver_Handler(t *testing.T) {
	t.Parallel()

	r := newResolver(t,
		testutil.Class("com.example.Main", []byte("main")),
		testutil.Jar(t, "a.jar", testutil.Deflate, testutil.Entry{Name: "a/A.class", Data: []byte("a")}),
	)
	mux := NewMux()
	require.NoError(t, r.Register(mux))
	assert.True(t, mux.Handles("war"))

	rc, err := mux.Open("war://WEB-INF/classes/com/example/Main.class")
	require.NoError(t, err)
	assert.Equal(t, []byte("main"), readAll(t, rc))

	rc, err = mux.Open("war://WEB-INF/lib/a.jar!/a/A.class")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), readAll(t, rc))

	_, err = mux.Open("war://WEB-INF/classes/Nope.class")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_LibraryPathWithSeparator(t *testing.T) {
	t.Parallel()

	r := newResolver(t, testutil.Entry{
		Name:   "WEB-INF/lib/v1!/x.jar",
		Data:   testutil.BuildZip(t, testutil.Entry{Name: "a/A.class", Data: []byte("a"), Method: testutil.Deflate}),
		Method: testutil.Store,
	})
	mux := NewMux()
	require.NoError(t, r.Register(mux))

	loc, err := r.Locate("WEB-INF/lib/v1!/x.jar", "a/A.class")
	require.NoError(t, err)

	rc, err := mux.Open(loc.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), readAll(t, rc))

	parsed, err := archive.ParseLocation(loc.String())
	require.NoError(t, err)
	assert.Equal(t, loc, parsed)
}
