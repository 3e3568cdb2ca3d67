package build

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/lune/internal/cache"
	"github.com/recera/lune/internal/config"
	"github.com/recera/lune/pkg/compiler"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProcessFile_WritesModule(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "app.moon")
	writeFile(t, src, `<p>{{greeting}}</p>`)

	b := New(root, nil, WithLogger(quiet))
	out, err := b.ProcessFile(src)
	require.NoError(t, err)

	assert.Equal(t, src+".js", out.Target)
	assert.Equal(t, []string{"greeting"}, out.Dependencies)
	assert.False(t, out.Cached)

	module := readFile(t, out.Target)
	assert.Contains(t, module, "// Code generated by lune from app.moon. DO NOT EDIT.")
	assert.Contains(t, module, `export var dependencies = ["greeting"];`)
	assert.Contains(t, module, `export default function(m) { var instance = this; var greeting = instance.get("greeting"); return m("p", {attrs: {}}, {}, [m("#text", {}, "" + greeting)]); };`)
}

func TestProcessFile_OutDir(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.SourceDir = "views"
	cfg.OutDir = "dist"

	src := filepath.Join(root, "views", "nested", "list.moon")
	writeFile(t, src, `<ul><li m-for="item in items">{{item}}</li></ul>`)

	b := New(root, cfg, WithLogger(quiet))
	out, err := b.ProcessFile(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "dist", "nested", "list.moon.js"), out.Target)
	assert.Equal(t, []string{"items"}, out.Dependencies)
	assert.FileExists(t, out.Target)
}

func TestProcessFile_OutsideSourceDir(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.SourceDir = "views"
	cfg.OutDir = "dist"

	src := filepath.Join(root, "stray.moon")
	writeFile(t, src, `<div></div>`)

	_, err := New(root, cfg, WithLogger(quiet)).ProcessFile(src)
	assert.ErrorContains(t, err, "outside source directory")
}

func TestProcessFile_Cache(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "app.moon")
	writeFile(t, src, `<p>{{a}}</p>`)

	c, err := cache.New(cache.Config{Dir: filepath.Join(root, ".lune", "cache")})
	require.NoError(t, err)
	b := New(root, nil, WithLogger(quiet), WithCache(c))

	first, err := b.ProcessFile(src)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// a deleted module is restored from the cache
	require.NoError(t, os.Remove(first.Target))
	second, err := b.ProcessFile(src)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, []string{"a"}, second.Dependencies)
	assert.Equal(t, readFile(t, first.Target), readFile(t, second.Target))

	writeFile(t, src, `<p>{{b}}</p>`)
	third, err := b.ProcessFile(src)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, []string{"b"}, third.Dependencies)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestProcessFile_SettingsInvalidateCache(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "app.moon")
	writeFile(t, src, `<p>{{a}} {{b}}</p>`)

	c, err := cache.New(cache.Config{Dir: filepath.Join(root, ".cache")})
	require.NoError(t, err)

	_, err = New(root, nil, WithLogger(quiet), WithCache(c)).ProcessFile(src)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Exclude = []string{"b"}
	out, err := New(root, cfg, WithLogger(quiet), WithCache(c)).ProcessFile(src)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, []string{"a"}, out.Dependencies)
}

func TestProcessFile_ConfiguredModifiers(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "key.moon")
	writeFile(t, src, `<input m-on:keyup.esc="close">`)

	cfg := config.DefaultConfig()
	cfg.Modifiers["esc"] = "if(event.keyCode !== 27) {return null;};"

	out, err := New(root, cfg, WithLogger(quiet)).ProcessFile(src)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, out.Target), `function(event) {if(event.keyCode !== 27) {return null;};instance.callMethod("close", [event])}`)
}

func TestProcessFile_Errors(t *testing.T) {
	root := t.TempDir()
	b := New(root, nil, WithLogger(quiet))

	_, err := b.ProcessFile(filepath.Join(root, "missing.moon"))
	assert.ErrorContains(t, err, "failed to read file")

	parseErr := filepath.Join(root, "broken.moon")
	writeFile(t, parseErr, `<div><p></div>`)
	_, err = b.ProcessFile(parseErr)
	assert.ErrorContains(t, err, "failed to parse template")

	orphan := filepath.Join(root, "orphan.moon")
	writeFile(t, orphan, `<div><p m-else></p></div>`)
	_, err = b.ProcessFile(orphan)
	assert.True(t, errors.Is(err, compiler.ErrOrphanElse))
	assert.NoFileExists(t, orphan+".js")
}

func TestProcessDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.moon"), `<p>{{a}}</p>`)
	writeFile(t, filepath.Join(root, "sub", "b.moon"), `<p>{{b}}</p>`)
	writeFile(t, filepath.Join(root, "sub", "bad.moon"), `<ul><li m-for="nonsense"></li></ul>`)
	writeFile(t, filepath.Join(root, "node_modules", "dep.moon"), `<p></p>`)
	writeFile(t, filepath.Join(root, ".hidden", "h.moon"), `<p></p>`)
	writeFile(t, filepath.Join(root, "notes.txt"), `ignored`)

	b := New(root, nil, WithLogger(quiet))

	files, err := b.Templates()
	require.NoError(t, err)
	assert.Len(t, files, 3)

	outputs, err := b.ProcessDirectory()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrMalformedLoop))
	assert.Contains(t, err.Error(), "bad.moon")
	assert.Len(t, outputs, 2)
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "gone.moon")
	writeFile(t, src, `<p></p>`)

	c, err := cache.New(cache.Config{Dir: filepath.Join(root, ".cache")})
	require.NoError(t, err)
	b := New(root, nil, WithLogger(quiet), WithCache(c))

	out, err := b.ProcessFile(src)
	require.NoError(t, err)

	require.NoError(t, b.Remove(src))
	assert.NoFileExists(t, out.Target)
	assert.Equal(t, 0, c.GetStats().Entries)

	// removing twice is harmless
	assert.NoError(t, b.Remove(src))
}

func TestModule_NoDependencies(t *testing.T) {
	module, err := Module("x.moon", &compiler.Result{Render: "function(m) { var instance = this; return null; }"})
	require.NoError(t, err)
	assert.Contains(t, string(module), "export var dependencies = [];")
}

type buildEvent struct {
	source string
	out    *Output
	err    error
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	events := make(chan buildEvent, 16)
	b := New(root, nil, WithLogger(quiet))
	w, err := b.Watch(ctx, func(source string, out *Output, err error) {
		mu.Lock()
		defer mu.Unlock()
		events <- buildEvent{source, out, err}
	})
	require.NoError(t, err)

	src := filepath.Join(root, "live.moon")
	writeFile(t, src, `<p>{{count}}</p>`)

	ev := waitFor(t, events, func(ev buildEvent) bool { return ev.out != nil })
	require.NoError(t, ev.err)
	assert.Equal(t, []string{"count"}, ev.out.Dependencies)
	assert.FileExists(t, src+".js")

	// non-template files are ignored
	writeFile(t, filepath.Join(root, "readme.md"), "# hi")

	require.NoError(t, os.Remove(src))
	ev = waitFor(t, events, func(ev buildEvent) bool { return ev.out == nil })
	assert.NoError(t, ev.err)
	assert.True(t, strings.HasSuffix(ev.source, "live.moon"))
	assert.NoFileExists(t, src+".js")

	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func waitFor(t *testing.T, events <-chan buildEvent, match func(buildEvent) bool) buildEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for build event")
			return buildEvent{}
		}
	}
}
