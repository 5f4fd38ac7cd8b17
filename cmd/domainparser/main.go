// Command domainparser splits domain names, URLs and hostnames into their
// registrable label and public suffix.
//
// Inputs are taken from the arguments, or one per line from stdin when none are given.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/haukened/domainparser/internal/domainparser/app"
	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/common/utils"
	"github.com/haukened/domainparser/internal/domainparser/config"
)

const appName = "domainparser"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code:
// 0 on success, 1 when any input failed to parse or the catalog is unusable, 2 on usage errors.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	defaultSuffix := fs.String("default", cfg.DefaultSuffix, "suffix assigned to inputs that match no known suffix")
	format := fs.String("format", cfg.OutputFormat, "output format: text or json")
	validOnly := fs.Bool("valid", false, "only report whether each input is a valid hostname")
	compare := fs.Bool("compare", false, "also show the suffix from the list compiled into the binary")
	refresh := fs.Bool("refresh", cfg.ForceReload, "re-ingest the suffix list before parsing")
	throw := fs.Bool("throw", cfg.ThrowErrors, "stop at the first input that fails to parse")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	r, err := newRenderer(*format, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "Logging configuration error: %v\n", err)
		return 2
	}

	cfg.ForceReload = *refresh
	cfg.ThrowErrors = *throw
	a, err := app.Build(cfg, log.GetLogger())
	if err != nil {
		fmt.Fprintf(stderr, "Startup error: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := a.Catalog.Bootstrap(ctx); err != nil {
		fmt.Fprintf(stderr, "Suffix list unavailable: %v\n", err)
		return 1
	}

	code := 0
	err = eachInput(fs.Args(), stdin, func(input string) error {
		if *validOnly {
			return r.valid(input, a.Decomposer.IsValid(input))
		}
		res, err := a.Decomposer.Parse(input, *defaultSuffix)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", input, err)
			return errStop
		}
		if res.Failed() {
			code = 1
		}
		var ref *reference
		if *compare {
			ref = lookupReference(input)
		}
		return r.result(input, res, ref)
	})
	if ferr := r.flush(); err == nil {
		err = ferr
	}
	switch {
	case errors.Is(err, errStop):
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "Output error: %v\n", err)
		return 1
	}
	return code
}

var errStop = errors.New("stop")

// eachInput calls fn for every argument, or for every non-blank stdin line
// when there are no arguments.
func eachInput(args []string, stdin io.Reader, fn func(string) error) error {
	if len(args) > 0 {
		for _, a := range args {
			if err := fn(a); err != nil {
				return err
			}
		}
		return nil
	}
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func lookupReference(input string) *reference {
	host := utils.HostToken(input)
	suffix, icann := utils.ReferenceSuffix(host)
	return &reference{Suffix: suffix, ICANN: icann, Apex: utils.ReferenceApex(host)}
}
