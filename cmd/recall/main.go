package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/geonsonatt/recall/geom"
	"github.com/geonsonatt/recall/highlight"
	"github.com/geonsonatt/recall/pdfimport"
)

var args struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Import ImportCmd `cmd:"" help:"Import native PDF markup annotations as highlight records"`
	Merge  MergeCmd  `cmd:"" help:"Re-consolidate the rects of stored highlight records"`
}

type ImportCmd struct {
	DocumentID   string    `short:"D" help:"Document id stamped on imported highlights. Defaults to the input file name"`
	Config       string    `short:"c" type:"existingfile" help:"Path to YAML import config"`
	IgnoreBefore time.Time `short:"b" help:"Ignore annotations added before this date. Must be ISO 8601 formatted"`
	Output       string    `short:"o" type:"path" help:"Write records JSON to this path instead of stdout"`

	InputPDF string `arg:"" name:"input" type:"path" help:"Path to input PDF"`
}

type MergeCmd struct {
	RecordsFile string `arg:"" name:"records" type:"existingfile" help:"Path to records JSON file"`
}

func main() {
	kctx := kong.Parse(&args)

	level := zerolog.InfoLevel
	if args.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()

	endIfErr(kctx.Run(logger))
}

func (c *ImportCmd) Run(logger zerolog.Logger) error {
	opts := pdfimport.Options{
		DocumentID:   c.DocumentID,
		IgnoreBefore: c.IgnoreBefore,
		Log:          logger,
	}

	if c.Config != "" {
		cfg, err := loadConfig(c.Config)
		if err != nil {
			return err
		}
		cfg.apply(&opts)
	}

	if opts.DocumentID == "" {
		opts.DocumentID = strings.TrimSuffix(filepath.Base(c.InputPDF), filepath.Ext(c.InputPDF))
	}

	store := highlight.NewMemStore()

	records, err := pdfimport.ImportFile(context.Background(), store, c.InputPDF, opts)
	if err != nil {
		return err
	}

	return writeRecords(c.Output, records)
}

func (c *MergeCmd) Run(logger zerolog.Logger) error {
	data, err := os.ReadFile(c.RecordsFile)
	if err != nil {
		return err
	}

	records := []*highlight.Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}

	kept := records[:0]
	dropped := 0

	for _, rec := range records {
		rects := geom.MergeNormalizedRects(rec.Rects)

		if len(rects) == 0 {
			// a highlight with no surviving geometry is deleted, not kept empty
			dropped++
			continue
		}

		highlight.SortRects(rects)
		rec.Rects = rects
		kept = append(kept, rec)
	}

	logger.Info().Int("records", len(kept)).Int("dropped", dropped).Msg("records consolidated")

	return writeRecords(c.RecordsFile, kept)
}

func writeRecords(path string, records []*highlight.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if path == "" {
		oLog := log.New(os.Stdout, "", 0)
		oLog.Println(string(data))
		return nil
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}

func endIfErr(err error) {
	if err != nil {
		eLog := log.New(os.Stderr, "", 0)
		eLog.Fatalln(err)
	}
}
