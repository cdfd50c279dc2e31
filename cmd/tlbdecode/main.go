// Command tlbdecode decodes a BOC-encoded TON message against a schema
// corpus and prints the result as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	tlbabi "github.com/wippyai/tlb-abi"
	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/compiler"
)

func main() {
	var (
		schemaDir   = flag.String("schemas", "abi/schemas", "Directory of *.xml/*.yaml schema documents")
		exclude     = flag.String("exclude", "", "Groups to skip (comma-separated)")
		payload     = flag.Bool("payload", false, "Decode with the jetton payload table")
		embedded    = flag.Bool("embedded", false, "Also decode embedded jetton payloads")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		debug       = flag.Bool("debug", false, "Log rejected candidates to stderr")
	)
	flag.Parse()

	if *payload && *embedded {
		fmt.Fprintln(os.Stderr, "Usage: tlbdecode [-schemas dir] [-payload | -embedded] [boc]")
		fmt.Fprintln(os.Stderr, "       tlbdecode [-schemas dir] -i  (interactive mode)")
		os.Exit(1)
	}
	mode := tlbabi.ModeMessage
	switch {
	case *payload:
		mode = tlbabi.ModePayload
	case *embedded:
		mode = tlbabi.ModeEmbedded
	}

	if *debug {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync() //nolint:errcheck
		compiler.SetLogger(log.Named("compiler"))
		abi.SetLogger(log.Named("abi"))
	}

	opts := tlbabi.Options{}
	if *exclude != "" {
		for _, g := range strings.Split(*exclude, ",") {
			if g = strings.TrimSpace(g); g != "" {
				opts.Exclude = append(opts.Exclude, g)
			}
		}
	}

	if *interactive {
		if err := runInteractive(*schemaDir, opts, mode); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*schemaDir, opts, mode, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaDir string, opts tlbabi.Options, mode tlbabi.Mode, arg string) error {
	input := arg
	if input == "" || input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		input = string(data)
	}
	boc, err := parseBOC(input)
	if err != nil {
		return err
	}

	res, err := tlbabi.Load(context.Background(), schemaDir, opts)
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	msg, err := tlbabi.DecodeBOC(res.Tables, boc, mode)
	if err != nil {
		return err
	}

	out, err := render(msg, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
