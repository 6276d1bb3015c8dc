// Command layout-inspector prints what the inspector sees of a type: the
// instruction streams of its getters and the fields they read.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"layout-inspector/cil"
	"layout-inspector/engine"
	"layout-inspector/internal/config"
	"layout-inspector/internal/match"
	"layout-inspector/meta"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("layout-inspector", flag.ContinueOnError)
	configPath := fs.String("config", "", "Configuration file (.yaml or .toml)")
	verbosity := fs.Int("v", -1, "Log verbosity (overrides the configuration)")
	logFile := fs.String("log", "", "Log file (default stderr)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: layout-inspector [options] <command> [args]\n\n")
		fmt.Fprintf(fs.Output(), "Commands:\n")
		fmt.Fprintf(fs.Output(), "  disasm <hex>            Decode an instruction stream\n")
		fmt.Fprintf(fs.Output(), "  accessors <pkg> <Type>  List the getters of a type and the fields they read\n\n")
		fmt.Fprintf(fs.Output(), "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if *verbosity >= 0 {
		cfg.Verbosity = *verbosity
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	configureLogging(cfg)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	switch rest[0] {
	case "disasm":
		if len(rest) < 2 {
			return errors.New("usage: disasm <hex>")
		}
		return disasm(strings.Join(rest[1:], ""), out)

	case "accessors":
		if len(rest) != 3 {
			return errors.New("usage: accessors <pkg> <Type>")
		}
		return accessors(engine.NewFromConfig(cfg), rest[1], rest[2], out)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func configureLogging(cfg *config.Config) {
	var path *string
	if cfg.LogFile != "" {
		path = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, path)
}

func disasm(input string, out io.Writer) error {
	input = strings.TrimPrefix(strings.ReplaceAll(input, " ", ""), "0x")

	code, err := hex.DecodeString(input)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	listing, err := cil.Disassemble(code)
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, listing)
	return err
}

func accessors(e *engine.Engine, pkgPath, typeName string, out io.Writer) error {
	pkg, err := e.Loader().Load(pkgPath)
	if err != nil {
		return err
	}

	accs, err := pkg.Accessors(typeName)
	if errors.Is(err, meta.ErrTypeNotFound) {
		if suggestions := match.Suggest(typeName, pkg.TypeNames(), 3); len(suggestions) > 0 {
			return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
		}
	}
	if err != nil {
		return err
	}

	for _, acc := range accs {
		fmt.Fprintf(out, "%s\n", acc.Property)

		listing, err := cil.Disassemble(acc.Body)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(listing, "\n"), "\n") {
			fmt.Fprintf(out, "    %s\n", line)
		}

		tokens, err := cil.FieldTokens(acc.Body)
		if err != nil {
			return err
		}

		fields := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			fd, err := acc.Module.ResolveField(tok)
			if err != nil {
				return err
			}
			fields = append(fields, fd.Name)
		}
		fmt.Fprintf(out, "  fields: [%s]\n\n", strings.Join(fields, ", "))
	}

	return nil
}
