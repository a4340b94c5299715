package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/catalog"
	"github.com/mdubravic83/POtranslate/internal/config"
	"github.com/mdubravic83/POtranslate/internal/local"
	"github.com/mdubravic83/POtranslate/internal/translation"
	"github.com/mdubravic83/POtranslate/internal/workerpool"
)

type options struct {
	configPath string
	sourceLang string
	targetLang string
	outDir     string
	noProgress bool
}

func NewCommand() *cobra.Command {
	var opts options
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "translate FILE.po [FILE.po...]",
		Short: "Translates local PO files and writes FILE_<lang>.po next to them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c, err := config.Load(opts.configPath, v)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(c.Global.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync()

			prov, err := config.InitializeProvider(c.Translator, logger)
			if err != nil {
				return err
			}
			pool := workerpool.New(c.Translator.Workers, workerpool.WithLogger(logger.Named("workerpool")))
			defer pool.Close()

			pipeline := translation.NewPipeline(prov, pool,
				translation.WithPacing(c.Translator.Pacing),
				translation.WithCallTimeout(c.Translator.CallTimeout),
				translation.WithLogger(logger.Named("pipeline")),
			)

			for _, fpath := range args {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := translateFile(ctx, cmd, pipeline, fpath, opts, logger); err != nil {
					return fmt.Errorf("%s: %w", fpath, err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	flags.StringVarP(&opts.sourceLang, "source", "s", translation.SourceAuto, "Source language, or auto to detect")
	flags.StringVarP(&opts.targetLang, "target", "t", translation.DefaultTargetLang, "Target language")
	flags.StringVarP(&opts.outDir, "out", "o", "", "Output directory (defaults to each input's directory)")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	flags.String("provider", "", "Translation provider: google or echo")
	flags.Duration("pacing", 0, "Pause after each successful provider call")
	flags.Duration("call-timeout", 0, "Per call timeout, 0 disables it")
	flags.String("log-level", "", "Log level")

	v.BindPFlag("translator.provider", flags.Lookup("provider"))
	v.BindPFlag("translator.pacing", flags.Lookup("pacing"))
	v.BindPFlag("translator.call_timeout", flags.Lookup("call-timeout"))
	v.BindPFlag("logger.level", flags.Lookup("log-level"))

	return cmd
}

func translateFile(ctx context.Context, cmd *cobra.Command, pipeline *translation.Pipeline, fpath string, opts options, logger *zap.Logger) error {
	if err := translation.ValidateUpload(filepath.Base(fpath), opts.targetLang); err != nil {
		return err
	}

	content, err := os.ReadFile(fpath)
	if err != nil {
		return err
	}
	c, err := catalog.Parse(content)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if opts.noProgress {
			return
		}
		if bar == nil {
			bar = newBar(cmd.ErrOrStderr(), total, filepath.Base(fpath))
		}
		bar.Set(done)
	}

	res, err := pipeline.Process(ctx, c, translation.JobMeta{
		Filename:   filepath.Base(fpath),
		SourceLang: opts.sourceLang,
		TargetLang: opts.targetLang,
	}, progress)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = filepath.Dir(fpath)
	}
	repo := local.New(outDir, local.WithLogger(logger.Named("repository.local")))
	name := translation.DownloadName(fpath, opts.targetLang)
	if err := repo.Write(ctx, name, bytes.NewReader([]byte(res.POContent))); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d translated, %d skipped, %d errors -> %s\n",
		filepath.Base(fpath),
		res.TotalEntries,
		res.TranslatedEntries,
		res.SkippedEntries,
		res.ErrorEntries,
		repo.Path(name),
	)
	return nil
}

func newBar(w io.Writer, total int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", name)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
