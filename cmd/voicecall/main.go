// Command voicecall generates one call script and its audio locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"voice-outbound-service/internal/app"
	"voice-outbound-service/internal/config"
	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/pipeline"
)

// errUsage means the flags were incomplete; usage has already been printed.
var errUsage = errors.New("usage")

type options struct {
	input  pipeline.Input
	outDir string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("voicecall", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts options
		lang string
	)
	fs.StringVar(&opts.input.FullName, "name", "", "contact full name (required)")
	fs.StringVar(&opts.input.Company, "company", "", "contact company (required)")
	fs.StringVar(&opts.input.TriggerType, "trigger-type", models.TriggerOther, "trigger category: funding, expansion, recruitment, new_product, award, partnership, other")
	fs.StringVar(&opts.input.TriggerDescription, "trigger", "", "what happened (required)")
	fs.StringVar(&lang, "language", "auto", "auto, fr, en, es, de or it")
	fs.StringVar(&opts.input.Tone, "tone", "", "optional tone instruction")
	fs.StringVar(&opts.input.Voice, "voice", "", "voice ID; empty uses the backend default")
	fs.Float64Var(&opts.input.Speed, "speed", 0, "speech speed; 0 uses TTS_SPEED")
	fs.StringVar(&opts.outDir, "out", "", "output directory; overrides AUDIO_OUTPUT_DIR")

	if err := fs.Parse(args); err != nil {
		return options{}, errUsage
	}

	l, ok := models.ParseLanguage(lang)
	if !ok {
		fmt.Fprintf(stderr, "unsupported language %q\n", lang)
		fs.Usage()
		return options{}, errUsage
	}
	opts.input.Language = l

	var ie *pipeline.InputError
	if err := opts.input.Validate(); errors.As(err, &ie) {
		fmt.Fprintf(stderr, "missing required flags: %s\n", strings.Join(ie.Missing, ", "))
		fs.Usage()
		return options{}, errUsage
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg := config.Load()
	if opts.outDir != "" {
		cfg.AudioOutput = opts.outDir
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := application.Run(ctx, opts.input)
	if err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		stop()
		application.Shutdown()
		os.Exit(1)
	}

	fmt.Println(renderCard(res))
}
