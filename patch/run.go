// Package patch implements the patch subcommand: it classifies the input
// source (single SVG file, directory tree or zip archive), builds the
// reference index from configured tag files and runs the SVG patcher over
// every eligible file.
package patch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"svp/archive"
	"svp/config"
	"svp/state"
	"svp/svg"
	"svp/tagfile"
	"svp/utils/images"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("patch")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	// command line overrides for resolution parameters
	if s := cmd.String("context"); len(s) > 0 {
		env.Cfg.Patch.Context = s
	}
	if s := cmd.String("rel-path"); len(s) > 0 {
		env.Cfg.Patch.RelativePath = s
	}
	if cmd.Bool("verify") {
		env.Cfg.Patch.Verify = true
	}

	if env.Index, err = buildIndex(env.Cfg, cmd.StringSlice("tagfile"), log); err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("refindex.txt", []byte(env.Index.Dump()))
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Patching starting",
		zap.String("source", src), zap.String("run_id", env.RunID), zap.Int("indexed", env.Index.Len()))
	defer func(start time.Time) {
		log.Info("Patching completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// buildIndex loads all tag files - configured plus requested on the command
// line - into a single reference index. Command line entries use the
// "path" or "path=url" form, the latter marking an external set.
func buildIndex(cfg *config.Config, extra []string, log *zap.Logger) (*tagfile.Index, error) {
	index := tagfile.NewIndex(cfg.Patch.Extension)

	tfs := make([]config.TagFileConfig, 0, len(cfg.Patch.TagFiles)+len(extra))
	tfs = append(tfs, cfg.Patch.TagFiles...)
	for _, s := range extra {
		path, url, _ := strings.Cut(s, "=")
		tfs = append(tfs, config.TagFileConfig{Path: path, URL: url})
	}

	for _, tf := range tfs {
		if err := index.LoadTagFile(tf.Path, tf.URL); err != nil {
			return nil, fmt.Errorf("unable to load tag file: %w", err)
		}
		log.Debug("Loaded tag file", zap.String("path", tf.Path), zap.String("url", tf.URL), zap.Int("indexed", index.Len()))
	}
	if index.Len() == 0 {
		log.Warn("Reference index is empty, every reference will be treated as unresolved")
	}
	return index, nil
}

// process determines the input type (directory, archive, or single file)
// and processes accordingly. Sources of the form
// "archive.zip/path/inside" are supported for archives.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		ok, err := isSVGFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if ok && len(tail) == 0 {
			if err := patchFile(ctx, head, log); err != nil {
				log.Error("Unable to patch file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as SVG (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding SVG files and patches them in
// place. Files are handled in natural order so runs are reproducible.
func processDir(ctx context.Context, dir string, log *zap.Logger) error {
	var candidates []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		ok, err := isSVGFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as SVG", zap.String("file", path))
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}

	sort.Sort(natural.StringSlice(candidates))

	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := patchFile(ctx, path, log); err != nil {
			log.Error("Unable to patch file", zap.String("file", path), zap.Error(err))
		}
	}
	return nil
}

// processArchive extracts SVG members under pathIn from the zip archive
// into dst and patches the extracted copies. The archive itself is never
// modified.
func processArchive(ctx context.Context, path, pathIn, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	// the walker matches the extension on the raw member name - the suffix
	// is ASCII, so a forced code page cannot change the outcome
	err = archive.Walk(path, pathIn, ".svg", func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.FileHeader.Name
		cp := state.EnvFromContext(ctx).CodePage
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(name); err == nil {
				name = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", name), zap.Error(err))
			}
		}

		count++

		extracted, err := extractMember(f, name, dst)
		if err != nil {
			log.Error("Unable to extract file from archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		if err := patchFile(ctx, extracted, log); err != nil {
			log.Error("Unable to patch file from archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
		}
		return nil
	})
	return err
}

// extractMember writes the archive member to dst under name. The copy must
// be fully on disk before the patcher reads it back, so the file is synced
// and the close error is checked instead of deferred away.
func extractMember(f *zip.File, name, dst string) (string, error) {
	out := filepath.Join(dst, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}

	r, err := f.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	w, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Sync(); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return out, nil
}

// patchFile runs the core patcher over a single file, storing before/after
// copies in the debug report when one was requested and optionally
// verifying that the patched file still parses as SVG.
func patchFile(ctx context.Context, path string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	base := filepath.Base(path)
	if err := env.Rpt.StoreCopy("svg/before/"+base, path); err != nil {
		log.Warn("Unable to store original in debug report", zap.String("file", path), zap.Error(err))
	}

	var opts []svg.Option
	if !env.Cfg.Patch.Unresolved.Inert() {
		opts = append(opts, svg.KeepUnresolved())
	}

	p := svg.NewPatcher(path, env.Cfg.Patch.RelativePath, env.Cfg.Patch.Context, env.Index, log, opts...)
	if err := p.Run(); err != nil {
		return err
	}

	if err := env.Rpt.StoreCopy("svg/after/"+base, path); err != nil {
		log.Warn("Unable to store result in debug report", zap.String("file", path), zap.Error(err))
	}

	if env.Cfg.Patch.Verify {
		if err := images.VerifySVG(path); err != nil {
			// patched file still gets delivered, rendering problems are
			// diagnostics only
			log.Warn("Patched file does not rasterize cleanly", zap.String("file", path), zap.Error(err))
		}
	}
	return nil
}
