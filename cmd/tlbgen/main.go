// Command tlbgen compiles a directory of TL-B ABI schema documents into Go
// decoder packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/compiler"
	"github.com/wippyai/tlb-abi/corpus"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to TOML config file")
		schemaDir   = flag.String("schemas", "", "Directory of *.xml/*.yaml schema documents")
		outDir      = flag.String("out", "", "Output directory")
		modulePath  = flag.String("module", "", "Import path of the output directory")
		pkg         = flag.String("package", "", "Package name of the top-level dispatch file")
		exclude     = flag.String("exclude", "", "Groups to skip (comma-separated)")
		parallelism = flag.Int("j", 0, "Concurrent entry compilations (0 = GOMAXPROCS)")
		debug       = flag.Bool("debug", false, "Development logging")
	)
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "schemas":
			cfg.SchemaDir = *schemaDir
		case "out":
			cfg.OutDir = *outDir
		case "module":
			cfg.ModulePath = *modulePath
		case "package":
			cfg.Package = *pkg
		case "exclude":
			cfg.Exclude = normalizeList([]string{*exclude})
		case "j":
			cfg.Parallelism = *parallelism
		case "debug":
			cfg.Debug = *debug
		}
	})

	if cfg.ModulePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: tlbgen -module <import path> [-schemas dir] [-out dir] [-exclude g1,g2]")
		fmt.Fprintln(os.Stderr, "       tlbgen -config tlbgen.toml")
		os.Exit(1)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck
	compiler.SetLogger(log.Named("compiler"))
	abi.SetLogger(log.Named("abi"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("generation failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config, log *zap.Logger) error {
	docs, err := corpus.LoadDir(cfg.SchemaDir)
	if err != nil {
		return err
	}
	log.Info("corpus loaded", zap.String("dir", cfg.SchemaDir), zap.Int("documents", len(docs)))

	g, err := compiler.BuildGlobals()
	if err != nil {
		return err
	}
	res, err := compiler.Build(ctx, g, docs, compiler.Options{
		ModulePath:  cfg.ModulePath,
		Package:     cfg.Package,
		Exclude:     cfg.Exclude,
		Parallelism: cfg.Parallelism,
	})
	if err != nil {
		return err
	}
	if err := compiler.WriteArtifacts(cfg.OutDir, res); err != nil {
		return err
	}

	fmt.Printf("Groups: %d\n", len(res.Indexes))
	fmt.Printf("Messages: %d\n", res.Tables.Messages.Len())
	fmt.Printf("Payloads: %d\n", res.Tables.Payloads.Len())
	if len(res.Failures) > 0 {
		fmt.Printf("Skipped entries: %d\n", len(res.Failures))
		for _, f := range res.Failures {
			fmt.Printf("  %v\n", f)
		}
	}
	fmt.Printf("Wrote %s\n", cfg.OutDir)
	return nil
}
