// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package properties

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

const header = "#Thu Feb 27 20:09:21 EET 2025"

func load(t *testing.T, text string) *Store {
	t.Helper()

	s := New()
	if !assert.NoError(t, s.Load(strings.NewReader(text))) {
		t.FailNow()
	}
	return s
}

func store(t *testing.T, s *Store, comment string) string {
	t.Helper()

	var buf bytes.Buffer
	if !assert.NoError(t, s.Store(&buf, comment)) {
		t.FailNow()
	}
	return buf.String()
}

func TestStore_Load(t *testing.T) {
	t.Run("will track key order, comments and the header", func(t *testing.T) {
		s := load(t, header+`
# First section
first.property=value1
second.property : value2
! bang comment
third.property=value3
`)

		if !assert.Equal(t, header, s.Header()) {
			return
		}
		if !assert.Equal(t, []string{"first.property", "second.property", "third.property"}, s.Keys()) {
			return
		}
		if !assert.Equal(t, "# First section", s.Comment("first.property")) {
			return
		}
		if !assert.Empty(t, s.Comment("second.property")) {
			return
		}
		if !assert.Equal(t, "! bang comment", s.Comment("third.property")) {
			return
		}

		v, ok := s.Get("second.property")
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, "value2", v) {
			return
		}
		if !assert.False(t, s.Degraded()) {
			return
		}
	})

	t.Run("will recognise the created-on marker as a header", func(t *testing.T) {
		s := load(t, "# Property file created on 2025-01-01\na=1\n")

		if !assert.Equal(t, "# Property file created on 2025-01-01", s.Header()) {
			return
		}
		if !assert.Empty(t, s.Comment("a")) {
			return
		}
	})

	t.Run("will treat an ordinary first comment as a key comment", func(t *testing.T) {
		s := load(t, "# just a comment\na=1\n")

		if !assert.Empty(t, s.Header()) {
			return
		}
		if !assert.Equal(t, "# just a comment", s.Comment("a")) {
			return
		}
	})

	t.Run("will only recognise a header on the first line", func(t *testing.T) {
		s := load(t, "a=1\n"+header+"\nb=2\n")

		if !assert.Empty(t, s.Header()) {
			return
		}
		if !assert.Equal(t, header, s.Comment("b")) {
			return
		}
	})

	t.Run("will keep blank lines inside a comment block", func(t *testing.T) {
		s := load(t, "# one\n\n# two\n\nkey=value\n")

		if !assert.Equal(t, "# one\n\n# two\n", s.Comment("key")) {
			return
		}
	})

	t.Run("will split on whichever separator comes first", func(t *testing.T) {
		s := load(t, "url=http://example.com\ntime:12:30\n")

		if !assert.Equal(t, []string{"url", "time"}, s.Keys()) {
			return
		}

		v, _ := s.Get("url")
		if !assert.Equal(t, "http://example.com", v) {
			return
		}
		v, _ = s.Get("time")
		if !assert.Equal(t, "12:30", v) {
			return
		}
	})

	t.Run("will track keys separated by whitespace only", func(t *testing.T) {
		s := load(t, "# c\nkey value\nflag\n")

		if !assert.Equal(t, []string{"key", "flag"}, s.Keys()) {
			return
		}
		if !assert.Equal(t, "# c", s.Comment("key")) {
			return
		}

		v, _ := s.Get("key")
		if !assert.Equal(t, "value", v) {
			return
		}
	})

	t.Run("will not track continuation lines as keys", func(t *testing.T) {
		s := load(t, "list=a,\\\n  b:c\nnext=1\n")

		if !assert.Equal(t, []string{"list", "next"}, s.Keys()) {
			return
		}

		v, _ := s.Get("list")
		if !assert.Equal(t, "a,b:c", v) {
			return
		}
	})

	t.Run("will keep the first position of a duplicated key", func(t *testing.T) {
		s := load(t, "a=1\nb=2\na=3\n")

		if !assert.Equal(t, []string{"a", "b"}, s.Keys()) {
			return
		}

		v, _ := s.Get("a")
		if !assert.Equal(t, "3", v) {
			return
		}
	})

	t.Run("will reset previous state", func(t *testing.T) {
		s := load(t, header+"\n# c\nold=1\n")
		if !assert.NoError(t, s.Load(strings.NewReader("new=2\n"))) {
			return
		}

		if !assert.Empty(t, s.Header()) {
			return
		}
		if !assert.Empty(t, s.Comment("old")) {
			return
		}
		if !assert.Equal(t, []string{"new"}, s.Keys()) {
			return
		}
	})

	t.Run("will handle CRLF line endings", func(t *testing.T) {
		s := load(t, "# c\r\na=1\r\n")

		if !assert.Equal(t, "# c", s.Comment("a")) {
			return
		}
		v, _ := s.Get("a")
		if !assert.Equal(t, "1", v) {
			return
		}
	})

	t.Run("will degrade to untracked parsing", func(t *testing.T) {
		t.Run("if the text can not be parsed as a whole", func(t *testing.T) {
			s := load(t, "# c\ngood=1\nbad=\\uZZZZ\nother=2\n")

			if !assert.True(t, s.Degraded()) {
				return
			}
			if !assert.Equal(t, []string{"good", "other"}, s.Keys()) {
				return
			}
			if !assert.Empty(t, s.Comment("good")) {
				return
			}
			if !assert.False(t, s.Has("bad")) {
				return
			}
		})

		t.Run("if the reader fails part way through", func(t *testing.T) {
			readErr := errors.New("boom")
			r := io.MultiReader(strings.NewReader("a=1\n"), iotest.ErrReader(readErr))

			s := New()
			err := s.Load(r)

			var rerr ReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.ErrorIs(t, err, readErr) {
				return
			}
			if !assert.NotEmpty(t, rerr.Error()) {
				return
			}
			if !assert.True(t, s.Degraded()) {
				return
			}
			if !assert.True(t, s.Has("a")) {
				return
			}
		})
	})
}

func TestStore_Store(t *testing.T) {
	t.Run("will reproduce a file in canonical form", func(t *testing.T) {
		text := header + `
# First section
first.property=value1
second.property=value2
# Second section

# more
third.property=value3
# trailing comment
`

		if !assert.Equal(t, text, store(t, load(t, text), "")) {
			return
		}
	})

	t.Run("will normalise insignificant whitespace", func(t *testing.T) {
		s := load(t, "a = 1\n\n\nb:2\n")

		if !assert.Equal(t, "a=1\nb=2\n", store(t, s, "")) {
			return
		}
	})

	t.Run("will produce identical output when stored twice", func(t *testing.T) {
		text := "! intro\n\nkey.one = x\n\n# about two\nkey.two:y\n\n# end\n\n"
		first := store(t, load(t, text), "")
		second := store(t, load(t, first), "")

		if !assert.Equal(t, first, second) {
			return
		}
	})

	t.Run("will prefer the header over the supplied comment", func(t *testing.T) {
		s := load(t, header+"\na=1\n")

		out := store(t, s, "ignored")

		if !assert.True(t, strings.HasPrefix(out, header+"\n")) {
			return
		}
		if !assert.NotContains(t, out, "ignored") {
			return
		}
	})

	t.Run("will write the supplied comment when there is no header", func(t *testing.T) {
		s := load(t, "a=1\n")

		if !assert.Equal(t, "# edited\na=1\n", store(t, s, "edited")) {
			return
		}
	})

	t.Run("will escape values so they load back unchanged", func(t *testing.T) {
		s := New()
		s.Set("path", `C:\dir`)
		s.Set("padded", "  x")
		s.Set("multi", "a\nb")

		out := store(t, s, "")
		if !assert.Equal(t, "path=C:\\\\dir\npadded=\\ \\ x\nmulti=a\\nb\n", out) {
			return
		}

		reloaded := load(t, out)
		for _, key := range []string{"path", "padded", "multi"} {
			want, _ := s.Get(key)
			got, _ := reloaded.Get(key)
			if !assert.Equal(t, want, got, key) {
				return
			}
		}
	})

	t.Run("will keep an escaped key with its comment and position", func(t *testing.T) {
		text := "# c\nmy\\ key=1\nb=2\n"
		s := load(t, text)

		if !assert.Equal(t, []string{"my key", "b"}, s.Keys()) {
			return
		}
		if !assert.Equal(t, "# c", s.Comment("my key")) {
			return
		}

		s.Set("b", "3")
		out := store(t, s, "")
		if !assert.Equal(t, "# c\nmy\\ key=1\nb=3\n", out) {
			return
		}

		v, ok := load(t, out).Get("my key")
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, "1", v) {
			return
		}
	})

	t.Run("will escape keys so they load back unchanged", func(t *testing.T) {
		keys := []string{"a b", "x=y", "c:d", "#hash", "!bang", `back\slash`}

		s := New()
		for i, key := range keys {
			s.Set(key, fmt.Sprint(i))
		}

		out := store(t, s, "")
		if !assert.Equal(t, "a\\ b=0\nx\\=y=1\nc\\:d=2\n\\#hash=3\n\\!bang=4\nback\\\\slash=5\n", out) {
			return
		}

		reloaded := load(t, out)
		if !assert.Equal(t, keys, reloaded.Keys()) {
			return
		}
		for i, key := range keys {
			v, _ := reloaded.Get(key)
			if !assert.Equal(t, fmt.Sprint(i), v, key) {
				return
			}
		}
	})

	t.Run("will append untracked keys after a degraded load", func(t *testing.T) {
		s := load(t, "z=1\nbad=\\uZZZZ\na=2\n")
		s.Set("m", "3")

		if !assert.Equal(t, "m=3\na=2\nz=1\n", store(t, s, "")) {
			return
		}
	})

	t.Run("will return a WriteError", func(t *testing.T) {
		t.Run("and write a plain dump if the formatted write fails", func(t *testing.T) {
			s := load(t, "# c\nb=2\n")

			w := &failingWriter{failures: 1}
			err := s.Store(w, "")

			var werr WriteError
			if !assert.ErrorAs(t, err, &werr) {
				return
			}
			if !assert.True(t, werr.Degraded) {
				return
			}
			if !assert.NotEmpty(t, werr.Error()) {
				return
			}
			if !assert.Contains(t, w.buf.String(), "b = 2") {
				return
			}
			if !assert.NotContains(t, w.buf.String(), "# c") {
				return
			}
		})

		t.Run("if the plain dump fails as well", func(t *testing.T) {
			s := load(t, "b=2\n")

			err := s.Store(&failingWriter{failures: 2}, "")

			var werr WriteError
			if !assert.ErrorAs(t, err, &werr) {
				return
			}
			if !assert.False(t, werr.Degraded) {
				return
			}
		})
	})
}

type failingWriter struct {
	failures int
	buf      bytes.Buffer
}

func (w *failingWriter) Write(b []byte) (int, error) {
	if w.failures > 0 {
		w.failures--
		return 0, errors.New("disk full")
	}
	return w.buf.Write(b)
}

func TestStore_Set(t *testing.T) {
	t.Run("will keep the position of an existing key", func(t *testing.T) {
		s := load(t, "p1=v1\np2=v2\np3=v3\n")
		s.Set("p2", "new value")

		if !assert.Equal(t, "p1=v1\np2=new value\np3=v3\n", store(t, s, "")) {
			return
		}
	})

	t.Run("will append a new key at the end", func(t *testing.T) {
		s := load(t, "# c\np1=v1\n# tail\n")
		s.Set("p0", "v0")

		if !assert.Equal(t, []string{"p1", "p0"}, s.Keys()) {
			return
		}
		if !assert.Equal(t, "# c\np1=v1\np0=v0\n# tail\n", store(t, s, "")) {
			return
		}
	})

	t.Run("will be safe for concurrent use", func(t *testing.T) {
		s := New()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s.Set(fmt.Sprintf("key.%d", i), "v")
			}(i)
		}
		wg.Wait()

		if !assert.Equal(t, 50, s.Len()) {
			return
		}
		if !assert.Len(t, s.Keys(), 50) {
			return
		}
	})
}

func TestStore_Remove(t *testing.T) {
	t.Run("will leave the comment of the following key intact", func(t *testing.T) {
		s := load(t, "a=1\n#comment\nb=2")

		v, ok := s.Remove("a")
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, "1", v) {
			return
		}
		if !assert.Equal(t, "#comment\nb=2\n", store(t, s, "")) {
			return
		}
	})

	t.Run("will drop the comment of the removed key", func(t *testing.T) {
		s := load(t, "# about a\na=1\nb=2\n")
		s.Remove("a")

		if !assert.Empty(t, s.Comment("a")) {
			return
		}
		if !assert.Equal(t, "b=2\n", store(t, s, "")) {
			return
		}
	})

	t.Run("will append a re-added key at the end", func(t *testing.T) {
		s := load(t, "a=1\nb=2\n")
		s.Remove("a")
		s.Set("a", "3")

		if !assert.Equal(t, []string{"b", "a"}, s.Keys()) {
			return
		}
	})

	t.Run("will report a missing key", func(t *testing.T) {
		_, ok := New().Remove("missing")
		if !assert.False(t, ok) {
			return
		}
	})
}

func TestStore_Clear(t *testing.T) {
	s := load(t, header+"\n# c\na=1\n")
	s.Clear()

	if !assert.Zero(t, s.Len()) {
		return
	}
	if !assert.Empty(t, s.Header()) {
		return
	}
	if !assert.Empty(t, s.Comment("a")) {
		return
	}
	if !assert.Equal(t, "", store(t, s, "")) {
		return
	}
}

func TestStore_Clone(t *testing.T) {
	s := load(t, "# c\na=1\n")
	c := s.Clone()
	c.Set("b", "2")
	c.Remove("a")

	if !assert.Equal(t, "# c\na=1\n", store(t, s, "")) {
		return
	}
	if !assert.Equal(t, "b=2\n", store(t, c, "")) {
		return
	}
}

func TestStore_Files(t *testing.T) {
	t.Run("will save and load a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "local.properties")
		if !assert.NoError(t, os.WriteFile(path, []byte("# c\na=1\n"), 0o644)) {
			return
		}

		s := New()
		if !assert.NoError(t, s.LoadFile(path)) {
			return
		}
		s.Set("a", "2")
		if !assert.NoError(t, s.SaveFile(path, "")) {
			return
		}

		b, err := os.ReadFile(path)
		if !assert.NoError(t, err) {
			return
		}
		if !assert.Equal(t, "# c\na=2\n", string(b)) {
			return
		}
	})

	t.Run("will return a ReadError if the file does not exist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.properties")

		err := New().LoadFile(path)

		var rerr ReadError
		if !assert.ErrorAs(t, err, &rerr) {
			return
		}
		if !assert.Equal(t, path, rerr.Path) {
			return
		}
		if !assert.ErrorIs(t, err, os.ErrNotExist) {
			return
		}
	})

	t.Run("will return a WriteError if the directory does not exist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "local.properties")

		err := New().SaveFile(path, "")

		var werr WriteError
		if !assert.ErrorAs(t, err, &werr) {
			return
		}
		if !assert.Equal(t, path, werr.Path) {
			return
		}
	})

	t.Run("will keep the permissions of the existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "local.properties")
		if !assert.NoError(t, os.WriteFile(path, []byte("a=1\n"), 0o600)) {
			return
		}

		s := New()
		if !assert.NoError(t, s.LoadFile(path)) {
			return
		}
		if !assert.NoError(t, s.SaveFile(path, "")) {
			return
		}

		fi, err := os.Stat(path)
		if !assert.NoError(t, err) {
			return
		}
		if !assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm()) {
			return
		}
	})

	t.Run("will leave no temporary file behind if the save fails", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "local.properties")
		if !assert.NoError(t, os.Mkdir(path, 0o755)) {
			return
		}

		s := New()
		s.Set("a", "1")
		err := s.SaveFile(path, "")

		var werr WriteError
		if !assert.ErrorAs(t, err, &werr) {
			return
		}

		entries, err := os.ReadDir(dir)
		if !assert.NoError(t, err) {
			return
		}
		if !assert.Len(t, entries, 1) {
			return
		}
		if !assert.True(t, entries[0].IsDir()) {
			return
		}
	})
}
