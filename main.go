package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hesusruiz/amsthm/amsthm"
	"github.com/hesusruiz/amsthm/format"
	"github.com/hesusruiz/amsthm/rite"
	"github.com/hesusruiz/amsthm/state"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// run holds the settings of one invocation, shared by all the input files
type run struct {
	to         string
	output     string
	documentID string
	dryrun     bool
	store      state.Store
	log        *zap.SugaredLogger
}

// outputFor generates the output file name from the input file name
func (r *run) outputFor(inputFileName string, single bool) string {
	if single && len(r.output) > 0 {
		return r.output
	}

	newExt := ".html"
	if r.to == "latex" {
		newExt = ".tex"
	}

	ext := path.Ext(inputFileName)
	if len(ext) == 0 {
		return inputFileName + newExt
	}
	return strings.TrimSuffix(inputFileName, ext) + newExt
}

// compileFile numbers the theorem blocks of one document and writes it in the output format
func (r *run) compileFile(inputFileName string, outputFileName string) error {
	p, err := rite.ParseFromFile(inputFileName)
	if err != nil {
		return err
	}

	cfg, err := amsthm.LoadConfig(p.Config, p.FrontMatter)
	if err != nil {
		return fmt.Errorf("%s: %w", inputFileName, err)
	}

	adapter, err := format.New(r.to, cfg)
	if err != nil {
		return err
	}

	result, err := amsthm.Compile(p.Document(), cfg, adapter, amsthm.Options{
		File:       inputFileName,
		DocumentID: r.documentID,
		Store:      r.store,
		Logger:     r.log.With("file", inputFileName),
	})
	if err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, d)
	}

	var out bytes.Buffer
	switch adapter.Name() {
	case "latex":
		for _, line := range result.Header {
			out.WriteString(line)
			out.WriteString("\n")
		}
		if len(result.Header) > 0 {
			out.WriteString("\n")
		}
		body, err := rite.RenderLaTeX(p.Document())
		if err != nil {
			return err
		}
		out.Write(body)
	default:
		body, err := rite.NewHTMLWriter("").Render(p.Document())
		if err != nil {
			return err
		}
		out.Write(body)
	}

	r.log.Infow("compiled", "file", inputFileName, "blocks", len(result.Labels), "diagnostics", len(result.Diagnostics))

	// Do nothing if flag dryrun was specified
	if r.dryrun {
		return nil
	}

	return os.WriteFile(outputFileName, out.Bytes(), 0664)
}

// compileAll compiles the input files in order, so the chapters of a book see the
// numbers of the previous ones
func (r *run) compileAll(inputFileNames []string) error {
	single := len(inputFileNames) == 1
	for _, inputFileName := range inputFileNames {
		if err := r.compileFile(inputFileName, r.outputFor(inputFileName, single)); err != nil {
			return err
		}
	}
	return nil
}

// openStore selects where the numbering state of books is kept
func openStore(c *cli.Context) (state.Store, error) {
	if db := c.String("state-db"); len(db) > 0 {
		return state.NewSQLiteStore(db)
	}
	if dir := c.String("state-dir"); len(dir) > 0 {
		return state.NewFileStore(dir), nil
	}
	// The state only lives as long as this run
	return state.NewMemoryStore(), nil
}

// process is the main entry point of the program
func process(c *cli.Context) error {

	// Default input file name
	var inputFileNames = []string{"index.rite"}

	var z *zap.Logger
	var err error

	// Setup the logging system
	if c.Bool("debug") {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	sugar := z.Sugar()
	defer sugar.Sync()

	to := c.String("to")
	if to == "tex" {
		to = "latex"
	}
	if to != "html" && to != "latex" {
		return fmt.Errorf("unknown output format %q, use html or latex", to)
	}

	// Get the input file names
	if c.Args().Present() {
		inputFileNames = c.Args().Slice()
	} else {
		fmt.Printf("no input file provided, using \"%v\"\n", inputFileNames[0])
	}

	if len(inputFileNames) > 1 && len(c.String("output")) > 0 {
		return errors.New("--output can only be used with a single input file")
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	r := &run{
		to:         to,
		output:     c.String("output"),
		documentID: c.String("document-id"),
		dryrun:     c.Bool("dryrun"),
		store:      store,
		log:        sugar,
	}

	// Print a message
	if !r.dryrun {
		fmt.Printf("processing %v and generating %v output\n", strings.Join(inputFileNames, ", "), to)
	} else {
		fmt.Printf("dry run: processing %v without writing output\n", strings.Join(inputFileNames, ", "))
	}

	// If the user specified to watch, compile again every time an input file is modified
	if c.Bool("watch") {
		return r.watch(inputFileNames)
	}

	return r.compileAll(inputFileNames)
}

func main() {

	app := &cli.App{
		Name:      "amsthm",
		Version:   "v0.1.0",
		Compiled:  time.Now(),
		Usage:     "number theorem-like blocks of rite documents and resolve references to them",
		UsageText: "amsthm [options] [INPUT_FILE...] (default input file is index.rite)",
		Action:    process,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "to",
				Aliases: []string{"t"},
				Value:   "html",
				Usage:   "output `FORMAT`: html or latex",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write output to `FILE` (default is input file name with extension .html or .tex)",
			},
			&cli.StringFlag{
				Name:  "state-dir",
				Usage: "keep the numbering state of books as YAML files in `DIR`",
			},
			&cli.StringFlag{
				Name:  "state-db",
				Usage: "keep the numbering state of books in the SQLite database `FILE`",
			},
			&cli.StringFlag{
				Name:  "document-id",
				Usage: "identity of the book in the state store (default is book.id of the front matter)",
			},
			&cli.BoolFlag{
				Name:    "dryrun",
				Aliases: []string{"n"},
				Usage:   "do not generate output files, just process input files",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "run in debug mode",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "watch the files for changes",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
