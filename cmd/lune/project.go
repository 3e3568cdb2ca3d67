package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/recera/lune/internal/build"
	"github.com/recera/lune/internal/cache"
	"github.com/recera/lune/internal/config"
	"github.com/recera/lune/internal/logger"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	dir       string
	configDir string
	logJSON   bool
	verbose   bool

	root string
	cfg  *config.Config
	log  *slog.Logger
}

// setup resolves the project, loads .env and lune.yaml and configures
// logging. Flags take precedence over the file.
func (o *globalOptions) setup() error {
	root, err := filepath.Abs(o.dir)
	if err != nil {
		return err
	}
	o.root = root

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	configDir := o.configDir
	if configDir == "" {
		configDir = root
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", config.FileName, err)
	}
	o.cfg = cfg

	o.log = logger.Setup(logger.Options{
		Silent:  cfg.Silent,
		JSON:    o.logJSON,
		Verbose: o.verbose,
	})
	return nil
}

// builder creates the project builder, with the cache when enabled
func (o *globalOptions) builder(useCache bool) (*build.Builder, error) {
	opts := []build.Option{build.WithLogger(o.log)}

	if useCache && o.cfg.Cache.Enabled {
		c, err := cache.New(cache.Config{
			Dir:        o.cfg.CacheDir(o.root),
			MaxEntries: cache.DefaultConfig().MaxEntries,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, build.WithCache(c))
	}

	return build.New(o.root, o.cfg, opts...), nil
}

// templateArgs resolves explicit template arguments against the project
// root, or lists every template in the source directory when there are none.
func templateArgs(b *build.Builder, root string, args []string) ([]string, error) {
	if len(args) == 0 {
		return b.Templates()
	}
	files := make([]string, len(args))
	for i, arg := range args {
		if filepath.IsAbs(arg) {
			files[i] = filepath.Clean(arg)
		} else {
			files[i] = filepath.Join(root, arg)
		}
	}
	return files, nil
}
