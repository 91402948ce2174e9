// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"gitlab.com/logspace/mlsd/chainsource"
	"gitlab.com/logspace/mlsd/corelog"
	"gitlab.com/logspace/mlsd/mls"
	"gitlab.com/logspace/mlsd/rarity"
	"gitlab.com/logspace/mlsd/storage"
	"gitlab.com/logspace/mlsd/types/block"
)

func main() {
	app := &App{}
	cliApp := &cli.App{
		Name:   "mlsd",
		Usage:  "logarithmic-space proof compression over a proof-of-work header chain",
		Flags:  app.InitFlags(),
		Before: app.InitCfg,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "replay a chain block by block, maintaining a compressed proof",
				Flags:  app.RunFlags(),
				Action: app.RunCmd,
			},
			{
				Name:   "export-headers",
				Usage:  "pull headers from a node into a headers file or a local store",
				Flags:  app.ExportHeadersFlags(),
				Action: app.ExportHeadersCmd,
			},
			{
				Name:   "rarity",
				Usage:  "judge how plausible a chain's level sequence is",
				Flags:  app.RarityFlags(),
				Action: app.RarityCmd,
			},
		},
	}

	err := cliApp.Run(os.Args)
	if err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

type App struct {
	config Config
	log    zerolog.Logger
}

func (app *App) InitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Value:   "./config.yaml",
			Usage:   "path to configuration",
		},
	}
}

func (app *App) InitCfg(c *cli.Context) error {
	var err error
	app.config, err = parseConfig(c.String(flagConfig))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	level, err := zerolog.ParseLevel(app.config.LogLevel)
	if err != nil {
		return cli.NewExitError(errors.Wrap(err, "unable to parse log level"), 1)
	}

	app.log = corelog.New("MAIN", level, app.config.Logging)
	mls.UseLogger(corelog.New("MLS", level, app.config.Logging))
	chainsource.UseLogger(corelog.New("CHSR", level, app.config.Logging))
	return nil
}

func (app *App) RunFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagSource,
			Aliases: []string{"s"},
			Usage:   "block source: node, file, db, random or scripted, overrides the config file",
		},
		&cli.IntFlag{
			Name:    flagBreakAt,
			Aliases: []string{"b"},
			Usage:   "stop the run at this height, 0 runs the whole chain",
		},
		&cli.StringFlag{
			Name:    flagMetricsFile,
			Aliases: []string{"m"},
			Usage:   "path to the metrics CSV output, overrides the config file",
		},
		&cli.StringFlag{
			Name:    flagProofFile,
			Aliases: []string{"p"},
			Usage:   "path to the final proof JSON dump, overrides the config file",
		},
		&cli.IntFlag{
			Name:  flagPrintStep,
			Usage: "log progress every N heights, 0 disables progress logging",
		},
		&cli.IntFlag{
			Name:  flagSecurityParam,
			Usage: "security parameter K, overrides the config file",
		},
		&cli.IntFlag{
			Name:  flagUncompressed,
			Usage: "uncompressed part length chi, overrides the config file",
		},
		&cli.IntFlag{
			Name:  flagUnstable,
			Usage: "unstable part length k, overrides the config file",
		},
		&cli.IntSliceFlag{
			Name:  flagLevels,
			Usage: "level per height for the scripted source, overrides the config file",
		},
	}
}

func (app *App) RunCmd(c *cli.Context) error {
	if src := c.String(flagSource); src != "" {
		app.config.Source = src
	}
	if c.IsSet(flagBreakAt) {
		app.config.BreakAt = int32(c.Int(flagBreakAt))
	}
	if file := c.String(flagMetricsFile); file != "" {
		app.config.MetricsFile = file
	}
	if file := c.String(flagProofFile); file != "" {
		app.config.ProofFile = file
	}
	if c.IsSet(flagPrintStep) {
		app.config.PrintStep = int32(c.Int(flagPrintStep))
	}
	if c.IsSet(flagSecurityParam) {
		app.config.Proof.K = c.Int(flagSecurityParam)
	}
	if c.IsSet(flagUncompressed) {
		app.config.Proof.Chi = c.Int(flagUncompressed)
	}
	if c.IsSet(flagUnstable) {
		app.config.Proof.UnstableLen = c.Int(flagUnstable)
	}
	if c.IsSet(flagLevels) {
		app.config.Generator.Levels = c.IntSlice(flagLevels)
	}

	source, closeSource, err := app.openSource()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closeSource()

	run := &runner{
		source:    source,
		params:    app.config.Proof,
		breakAt:   app.config.BreakAt,
		printStep: app.config.PrintStep,
		log:       app.log,
		interrupt: interruptListener(app.log),
	}

	result, err := run.run()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := storage.NewMetricsStorage(app.config.MetricsFile).SaveRows(result.rows); err != nil {
		return cli.NewExitError(errors.Wrap(err, "unable to save metrics"), 1)
	}
	app.log.Info().
		Str("path", app.config.MetricsFile).
		Int("rows", len(result.rows)).
		Msg("metrics saved")

	if app.config.ProofFile != "" {
		if err := storage.DumpProof(app.config.ProofFile, result.proof); err != nil {
			return cli.NewExitError(errors.Wrap(err, "unable to dump proof"), 1)
		}
		app.log.Info().Str("path", app.config.ProofFile).Msg("proof saved")
	}

	app.log.Info().
		Int("proof_size", len(result.proof)).
		Str("proof_score", block.FormatDifficulty(result.proof.Score())).
		Bool("interrupted", result.interrupted).
		Msg("run finished")
	return nil
}

// openSource builds the configured block source. The returned closer
// releases whatever the source holds open.
func (app *App) openSource() (chainsource.Source, func(), error) {
	noop := func() {}

	switch app.config.Source {
	case sourceNode:
		node := chainsource.NewNodeSource(app.config.NodeRPC)
		if err := node.Load(app.config.BreakAt); err != nil {
			return nil, nil, errors.Wrap(err, "unable to load headers from node")
		}
		return node, noop, nil

	case sourceFile:
		file, err := chainsource.NewFileSource(app.config.HeadersFile)
		if err != nil {
			return nil, nil, err
		}
		return file, noop, nil

	case sourceDB:
		store, err := storage.OpenHeaderStore(app.config.HeadersDB)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case sourceRandom:
		gen := app.config.Generator
		random, err := chainsource.NewRandomSource(gen.Blocks, gen.P, gen.Seed)
		if err != nil {
			return nil, nil, err
		}
		return random, noop, nil

	case sourceScripted:
		levels := app.config.Generator.Levels
		if len(levels) == 0 {
			return nil, nil, errors.New("scripted source needs a level sequence")
		}
		return chainsource.NewScriptedSource(levels), noop, nil

	default:
		return nil, nil, errors.Errorf("unknown block source %q", app.config.Source)
	}
}

func (app *App) ExportHeadersFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagOut,
			Aliases: []string{"o"},
			Usage:   "path to the headers JSON file to write",
		},
		&cli.StringFlag{
			Name:  flagHeadersDB,
			Usage: "path to the local header store to fill",
		},
		&cli.IntFlag{
			Name:    flagBreakAt,
			Aliases: []string{"b"},
			Usage:   "export only the first N headers, 0 exports the whole chain",
		},
	}
}

func (app *App) ExportHeadersCmd(c *cli.Context) error {
	out := c.String(flagOut)
	dbPath := c.String(flagHeadersDB)
	if out == "" && dbPath == "" {
		return cli.NewExitError(errors.New("export-headers needs --out and/or --headers-db"), 1)
	}

	breakAt := app.config.BreakAt
	if c.IsSet(flagBreakAt) {
		breakAt = int32(c.Int(flagBreakAt))
	}

	node := chainsource.NewNodeSource(app.config.NodeRPC)
	if err := node.Load(breakAt); err != nil {
		return cli.NewExitError(errors.Wrap(err, "unable to load headers from node"), 1)
	}
	headers := node.RawHeaders()

	if out != "" {
		if err := chainsource.WriteHeadersFile(out, headers); err != nil {
			return cli.NewExitError(err, 1)
		}
		app.log.Info().Str("path", out).Int("headers", len(headers)).Msg("headers file written")
	}

	if dbPath != "" {
		store, err := storage.OpenHeaderStore(dbPath)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer store.Close()

		if err := store.SaveHeaders(headers); err != nil {
			return cli.NewExitError(errors.Wrap(err, "unable to store headers"), 1)
		}
		app.log.Info().Str("path", dbPath).Int("headers", len(headers)).Msg("header store filled")
	}

	return nil
}

func (app *App) RarityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  flagHeadersFile,
			Usage: "analyze the levels of a headers file instead of a generated chain",
		},
		&cli.IntFlag{
			Name:  flagBlocks,
			Usage: "length of the generated chain, overrides the config file",
		},
		&cli.Float64Flag{
			Name:  flagGeomP,
			Usage: "geometric parameter of the level distribution, overrides the config file",
		},
		&cli.Int64Flag{
			Name:  flagSeed,
			Usage: "generator seed, overrides the config file",
		},
		&cli.IntFlag{
			Name:  flagTrials,
			Value: 1000,
			Usage: "number of monte carlo trials",
		},
	}
}

func (app *App) RarityCmd(c *cli.Context) error {
	gen := app.config.Generator
	if c.IsSet(flagBlocks) {
		gen.Blocks = int32(c.Int(flagBlocks))
	}
	if c.IsSet(flagGeomP) {
		gen.P = c.Float64(flagGeomP)
	}
	if c.IsSet(flagSeed) {
		gen.Seed = c.Int64(flagSeed)
	}

	var source chainsource.Source
	if path := c.String(flagHeadersFile); path != "" {
		file, err := chainsource.NewFileSource(path)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		source = file
	} else {
		random, err := chainsource.NewRandomSource(gen.Blocks, gen.P, gen.Seed)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		source = random
	}

	levels, err := sourceLevels(source)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	report, err := rarity.Analyze(levels, gen.P, c.Int(flagTrials), gen.Seed)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	app.log.Info().
		Int("blocks", len(levels)).
		Float64("log_likelihood", report.LogLikelihood).
		Float64("log_likelihood_per_block", report.LogLikelihoodPerBlock).
		Float64("z_score", report.ZScore).
		Float64("empirical_p_value", report.EmpiricalPValue).
		Str("verdict", string(report.Verdict)).
		Str("consistency", report.Consistency).
		Msg("rarity report")
	return nil
}

// sourceLevels collects the levels of every block past genesis. The
// genesis level is overridden by construction and says nothing about
// the mining process.
func sourceLevels(source chainsource.Source) ([]int, error) {
	count, err := source.NumHeaders()
	if err != nil {
		return nil, err
	}

	levels := make([]int, 0, count)
	for height := int32(1); height < count; height++ {
		b, err := source.BlockByHeight(height)
		if err != nil {
			return nil, err
		}
		levels = append(levels, b.Level())
	}
	return levels, nil
}
