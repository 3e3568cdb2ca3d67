// Package build turns template files into JavaScript render modules.
package build

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/recera/lune/internal/cache"
	"github.com/recera/lune/internal/config"
	"github.com/recera/lune/pkg/compiler"
	"github.com/recera/lune/pkg/template"
)

// Version is mixed into cache fingerprints so a compiler upgrade
// invalidates old artifacts.
const Version = "0.1.0"

// Output describes one compiled template
type Output struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Dependencies []string `json:"dependencies"`
	Cached       bool     `json:"cached"`
}

// Builder compiles the templates of one project
type Builder struct {
	root     string
	cfg      *config.Config
	compiler *compiler.Compiler
	cache    *cache.Cache
	log      *slog.Logger
	settings string
}

// Option configures a Builder
type Option func(*Builder)

// WithCache serves unchanged templates from c
func WithCache(c *cache.Cache) Option {
	return func(b *Builder) { b.cache = c }
}

// WithLogger replaces the default logger
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// New creates a builder for the project rooted at root
func New(root string, cfg *config.Config, opts ...Option) *Builder {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	b := &Builder{
		root: root,
		cfg:  cfg,
		compiler: compiler.New(
			compiler.WithGlobals(cfg.Exclude...),
			compiler.WithModifiers(cfg.Modifiers),
		),
		log:      slog.Default(),
		settings: settingsKey(cfg),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile parses and compiles source without touching the filesystem
func (b *Builder) Compile(filename string, source []byte) (*compiler.Result, error) {
	root, err := template.Parse(filename, string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	result, err := b.compiler.Compile(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return result, nil
}

// ProcessFile compiles one template into its JavaScript module
func (b *Builder) ProcessFile(filename string) (*Output, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	target, err := b.Target(filename)
	if err != nil {
		return nil, err
	}
	out := &Output{Source: filename, Target: target}

	key := b.cacheKey(filename)
	fingerprint := cache.Fingerprint(Version, b.settings, string(source))

	if b.cache != nil {
		if artifact, ok := b.cache.Get(key, fingerprint); ok {
			out.Dependencies = artifact.Dependencies
			out.Cached = true
			if err := writeIfChanged(target, artifact.Data); err != nil {
				return nil, err
			}
			b.log.Debug("template unchanged", "source", filename)
			return out, nil
		}
	}

	result, err := b.Compile(filename, source)
	if err != nil {
		return nil, err
	}
	out.Dependencies = result.Dependencies

	module, err := Module(filename, result)
	if err != nil {
		return nil, err
	}
	if err := writeIfChanged(target, module); err != nil {
		return nil, err
	}

	if b.cache != nil {
		if err := b.cache.Put(key, fingerprint, module, result.Dependencies); err != nil {
			b.log.Warn("cache write failed", "source", filename, "error", err)
		}
	}

	b.log.Info("compiled", "source", filename, "target", target, "dependencies", len(result.Dependencies))
	return out, nil
}

// ProcessDirectory compiles every template under the source directory.
// A failing template does not stop the others; all failures are joined
// into the returned error.
func (b *Builder) ProcessDirectory() ([]*Output, error) {
	files, err := b.Templates()
	if err != nil {
		return nil, err
	}

	var outputs []*Output
	var errs []error
	for _, file := range files {
		out, err := b.ProcessFile(file)
		if err != nil {
			b.log.Error("compile failed", "source", file, "error", err)
			errs = append(errs, fmt.Errorf("failed to process %s: %w", file, err))
			continue
		}
		outputs = append(outputs, out)
	}

	return outputs, errors.Join(errs...)
}

// Templates lists the template files under the source directory
func (b *Builder) Templates() ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.sourceDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != b.sourceDir() && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.isTemplate(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find template files: %w", err)
	}
	return files, nil
}

// Target returns where the module for filename is written: next to the
// source, or mirrored under the output directory when one is set.
func (b *Builder) Target(filename string) (string, error) {
	if b.cfg.OutDir == "" {
		return filename + ".js", nil
	}
	rel, err := filepath.Rel(b.sourceDir(), filename)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside source directory %s", filename, b.sourceDir())
	}
	return filepath.Join(b.resolve(b.cfg.OutDir), rel+".js"), nil
}

// Remove deletes the compiled module and cache entry of a deleted template
func (b *Builder) Remove(filename string) error {
	if b.cache != nil {
		if err := b.cache.Delete(b.cacheKey(filename)); err != nil {
			return err
		}
	}
	target, err := b.Target(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Module renders the JavaScript module for a compiled template
func Module(filename string, result *compiler.Result) ([]byte, error) {
	deps := result.Dependencies
	if deps == nil {
		deps = []string{}
	}
	encoded, err := json.Marshal(deps)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by lune from %s. DO NOT EDIT.\n\n", filepath.Base(filename))
	fmt.Fprintf(&buf, "export var dependencies = %s;\n\n", encoded)
	fmt.Fprintf(&buf, "export default %s;\n", result.Render)
	return buf.Bytes(), nil
}

func (b *Builder) sourceDir() string {
	return b.resolve(b.cfg.SourceDir)
}

func (b *Builder) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(b.root, dir)
}

func (b *Builder) isTemplate(path string) bool {
	return strings.EqualFold(filepath.Ext(path), b.cfg.Extension)
}

func (b *Builder) cacheKey(filename string) string {
	if rel, err := filepath.Rel(b.root, filename); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(filename)
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// settingsKey captures the configuration that changes compiled output
func settingsKey(cfg *config.Config) string {
	names := make([]string, 0, len(cfg.Modifiers))
	for name := range cfg.Modifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s;", name, cfg.Modifiers[name])
	}
	b.WriteString("|")
	b.WriteString(strings.Join(cfg.Exclude, ","))
	return b.String()
}

func writeIfChanged(path string, data []byte) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
