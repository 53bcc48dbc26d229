package tempfile_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formstream/form"
	"github.com/dmitrymomot/formstream/limits"
	"github.com/dmitrymomot/formstream/tempfile"
)

func dataField(t *testing.T, env *form.Env, content string) form.DataField {
	t.Helper()
	return form.DataField{
		Name:        form.Name("upload").View(),
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Data:        strings.NewReader(content),
		Env:         env,
	}
}

func bindData(t *testing.T, env *form.Env, content string) (tempfile.File, form.N) {
	t.Helper()
	var f tempfile.File
	n, err := f.BindFormData(context.Background(), dataField(t, env, content))
	require.NoError(t, err)
	return f, n
}

func TestBindFormData(t *testing.T) {
	t.Run("stages the stream in the configured directory", func(t *testing.T) {
		dir := t.TempDir()
		f, n := bindData(t, &form.Env{TempDir: dir}, "file content")

		assert.True(t, n.Complete)
		assert.Equal(t, limits.ByteSize(12), n.Written)
		assert.Equal(t, int64(12), f.Len())

		path, ok := f.Path()
		require.True(t, ok)
		assert.Equal(t, dir, filepath.Dir(path))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "file content", string(got))
	})

	t.Run("records sanitized metadata", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "x")

		name, ok := f.FileName()
		require.True(t, ok)
		assert.Equal(t, "report.pdf", name)

		ct, ok := f.ContentType()
		require.True(t, ok)
		assert.Equal(t, "application/pdf", ct)
	})

	t.Run("stops at the resolved limit", func(t *testing.T) {
		env := &form.Env{
			TempDir: t.TempDir(),
			Limits:  limits.Map{"file": 4},
		}
		f, n := bindData(t, env, "hello world")

		assert.False(t, n.Complete)
		assert.Equal(t, limits.ByteSize(4), n.Written)
		assert.Equal(t, int64(4), f.Len())

		path, _ := f.Path()
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hell", string(got))
	})

	t.Run("exact fit is complete", func(t *testing.T) {
		env := &form.Env{
			TempDir: t.TempDir(),
			Limits:  limits.Map{"file": 4},
		}
		_, n := bindData(t, env, "four")
		assert.True(t, n.Complete)
		assert.Equal(t, limits.ByteSize(4), n.Written)
	})

	t.Run("per extension limit override", func(t *testing.T) {
		env := &form.Env{
			TempDir: t.TempDir(),
			Limits:  limits.Map{"file": 2, "file/pdf": 100},
		}
		_, n := bindData(t, env, "well over two bytes")
		assert.True(t, n.Complete)
	})
}

func TestBindFormValue(t *testing.T) {
	t.Run("buffers inline content", func(t *testing.T) {
		var f tempfile.File
		n, err := f.BindFormValue(form.Value("upload", "inline text"))
		require.NoError(t, err)
		assert.True(t, n.Complete)
		assert.Equal(t, int64(11), f.Len())

		_, ok := f.Path()
		assert.False(t, ok)

		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "inline text", string(got))
	})
}

func TestPersistTo(t *testing.T) {
	t.Run("moves the staged file", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")
		staged, _ := f.Path()

		dst := filepath.Join(t.TempDir(), "final.pdf")
		require.NoError(t, f.PersistTo(dst))

		path, ok := f.Path()
		require.True(t, ok)
		assert.Equal(t, dst, path)
		assert.NoFileExists(t, staged)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(got))
	})

	t.Run("second persist moves from the first destination", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")

		first := filepath.Join(t.TempDir(), "first.pdf")
		require.NoError(t, f.PersistTo(first))

		second := filepath.Join(t.TempDir(), "second.pdf")
		require.NoError(t, f.PersistTo(second))

		assert.NoFileExists(t, first)
		got, err := os.ReadFile(second)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(got))

		path, ok := f.Path()
		require.True(t, ok)
		assert.Equal(t, second, path)
	})

	t.Run("failure rolls the location back", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")
		staged, _ := f.Path()

		dst := filepath.Join(t.TempDir(), "no", "such", "dir", "final.pdf")
		require.Error(t, f.PersistTo(dst))

		path, ok := f.Path()
		require.True(t, ok)
		assert.Equal(t, staged, path)
		assert.FileExists(t, staged)
	})

	t.Run("buffered content is written out", func(t *testing.T) {
		var f tempfile.File
		_, err := f.BindFormValue(form.Value("upload", "inline"))
		require.NoError(t, err)

		dst := filepath.Join(t.TempDir(), "note.txt")
		require.NoError(t, f.PersistTo(dst))

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "inline", string(got))

		path, ok := f.Path()
		require.True(t, ok)
		assert.Equal(t, dst, path)
	})

	t.Run("unbound file", func(t *testing.T) {
		var f tempfile.File
		assert.ErrorIs(t, f.PersistTo(filepath.Join(t.TempDir(), "x")), tempfile.ErrNotBound)
	})

	t.Run("copies preserve the handle across struct fields", func(t *testing.T) {
		type holder struct {
			Upload tempfile.File
		}
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")
		h := holder{Upload: f}

		dst := filepath.Join(t.TempDir(), "final.pdf")
		require.NoError(t, h.Upload.PersistTo(dst))

		path, ok := f.Path()
		require.True(t, ok)
		assert.Equal(t, dst, path)
	})
}

func TestDiscard(t *testing.T) {
	t.Run("removes staged files", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")
		staged, _ := f.Path()

		require.NoError(t, f.Discard())
		assert.NoFileExists(t, staged)
	})

	t.Run("idempotent", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")
		require.NoError(t, f.Discard())
		require.NoError(t, f.Discard())
	})

	t.Run("leaves persisted files alone", func(t *testing.T) {
		f, _ := bindData(t, &form.Env{TempDir: t.TempDir()}, "payload")
		dst := filepath.Join(t.TempDir(), "final.pdf")
		require.NoError(t, f.PersistTo(dst))

		require.NoError(t, f.Discard())
		assert.FileExists(t, dst)
	})

	t.Run("no-op on unbound and buffered files", func(t *testing.T) {
		var unbound tempfile.File
		assert.NoError(t, unbound.Discard())

		var buffered tempfile.File
		_, err := buffered.BindFormValue(form.Value("upload", "x"))
		require.NoError(t, err)
		assert.NoError(t, buffered.Discard())
	})
}

func TestParserIntegration(t *testing.T) {
	t.Run("bound through a struct field", func(t *testing.T) {
		type uploadForm struct {
			Title string        `form:"title"`
			Doc   tempfile.File `form:"doc"`
		}
		env := &form.Env{TempDir: t.TempDir()}

		p := form.New[uploadForm](form.Options{})
		p.PushValue(form.Value("title", "Q3 report"))
		p.PushData(context.Background(), form.DataField{
			Name:        form.Name("doc").View(),
			FileName:    "q3.pdf",
			ContentType: "application/pdf",
			Data:        strings.NewReader("%PDF-1.7"),
			Env:         env,
		})

		v, err := p.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "Q3 report", v.Title)
		assert.Equal(t, int64(8), v.Doc.Len())

		name, ok := v.Doc.FileName()
		require.True(t, ok)
		assert.Equal(t, "q3.pdf", name)
	})

	t.Run("abandoned parse releases the staged file", func(t *testing.T) {
		type uploadForm struct {
			Doc tempfile.File `form:"doc"`
		}
		dir := t.TempDir()
		env := &form.Env{TempDir: dir}

		p := form.New[uploadForm](form.Options{})
		p.PushData(context.Background(), form.DataField{
			Name:        form.Name("doc").View(),
			FileName:    "q3.pdf",
			ContentType: "application/pdf",
			Data:        strings.NewReader("%PDF-1.7"),
			Env:         env,
		})
		require.NoError(t, p.Close())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("failed finalize releases the staged file", func(t *testing.T) {
		type uploadForm struct {
			Doc tempfile.File `form:"doc"`
			Age int           `form:"age"`
		}
		dir := t.TempDir()
		env := &form.Env{TempDir: dir}

		p := form.New[uploadForm](form.Options{})
		p.PushData(context.Background(), form.DataField{
			Name:        form.Name("doc").View(),
			FileName:    "q3.pdf",
			ContentType: "application/pdf",
			Data:        strings.NewReader("%PDF-"),
			Env:         env,
		})
		p.PushValue(form.Value("age", "not-a-number"))

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		assert.True(t, errs.Has(form.KindConversion))

		entries, readErr := os.ReadDir(dir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})

	t.Run("truncated stream into a bare file is rejected and cleaned up", func(t *testing.T) {
		type uploadForm struct {
			Doc tempfile.File `form:"doc"`
		}
		dir := t.TempDir()
		env := &form.Env{TempDir: dir, Limits: limits.Map{"file": 4}}

		p := form.New[uploadForm](form.Options{})
		p.PushData(context.Background(), form.DataField{
			Name:        form.Name("doc").View(),
			FileName:    "big.bin",
			ContentType: "application/octet-stream",
			Data:        strings.NewReader("way past the limit"),
			Env:         env,
		})

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, form.KindTruncated, errs[0].Kind)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("capped file accepts truncation", func(t *testing.T) {
		type uploadForm struct {
			Doc form.Capped[tempfile.File] `form:"doc"`
		}
		env := &form.Env{TempDir: t.TempDir(), Limits: limits.Map{"file": 4}}

		p := form.New[uploadForm](form.Options{})
		p.PushData(context.Background(), form.DataField{
			Name:        form.Name("doc").View(),
			FileName:    "big.bin",
			ContentType: "application/octet-stream",
			Data:        strings.NewReader("way past the limit"),
			Env:         env,
		})

		v, err := p.Finalize()
		require.NoError(t, err)
		assert.False(t, v.Doc.IsComplete())
		assert.Equal(t, limits.ByteSize(4), v.Doc.N.Written)
		assert.Equal(t, int64(4), v.Doc.Value.Len())
	})
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`..\..\windows\system32`, "system32"},
		{"dir/sub/name.txt", "name.txt"},
		{"..", ""},
		{".", ""},
		{"", ""},
		{"nul\x00byte.txt", "nulbyte.txt"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tempfile.SanitizeFilename(tc.in), "input %q", tc.in)
	}
}
