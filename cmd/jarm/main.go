// Command jarm fingerprints a TLS server and prints its digest.
//
//	jarm -t scanme.example.com
//	jarm -t 203.0.113.7:8443 --proxy socks5://127.0.0.1:1080
//
// The exit code is 0 for any scan outcome, including a target that
// never answered; only flag misuse exits nonzero.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/enetx/g"
	"github.com/enetx/jarm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flags struct {
	target      string
	proxy       string
	timeout     time.Duration
	concurrency int
	details     bool
	verbose     bool
}

func main() {
	cmd := &cobra.Command{
		Use:           "jarm",
		Short:         "Active TLS server fingerprinting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().StringVarP(&flags.target, "target", "t", "", "target HOST[:PORT], port defaults to 443")
	cmd.Flags().StringVar(&flags.proxy, "proxy", "", "route probes through a socks5://, socks4:// or socks4a:// proxy")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "per-probe deadline")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 1, "number of probes in flight")
	cmd.Flags().BoolVar(&flags.details, "details", false, "also report what the server negotiates against a browser hello")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "per-probe diagnostics on stderr")
	_ = cmd.MarkFlagRequired("target")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(*cobra.Command, []string) error {
	host, port := splitTarget(flags.target)

	log := zap.NewNop()
	if flags.verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		log, _ = cfg.Build()
		defer log.Sync()
	}

	scanner := jarm.NewScanner(host, port)
	if scanner.IsErr() {
		// Resolution failures are reported but, per the scan contract,
		// do not fail the process.
		fmt.Fprintln(os.Stderr, scanner.Err())
		return nil
	}

	s := scanner.Ok().
		Timeout(flags.timeout).
		Concurrency(flags.concurrency).
		Log(log)

	if flags.proxy != "" {
		s.Proxy(g.String(flags.proxy))
	}

	fmt.Println(s.Fingerprint().Std())

	if flags.details {
		printDetails(s)
	}

	return nil
}

func printDetails(s *jarm.Scanner) {
	details := s.Details(context.Background())
	if details.IsErr() {
		fmt.Fprintln(os.Stderr, details.Err())
		return
	}

	d := details.Ok()
	fmt.Printf("version: %s\ncipher: %s\nalpn: %s\nsubject: %s\n",
		d.Version.Std(), d.Cipher.Std(), d.ALPN.Std(), d.Subject.Std())
}

// splitTarget separates HOST[:PORT], leaving bracketed IPv6 literals
// and bare hosts intact.
func splitTarget(target string) (g.String, uint16) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return g.String(target), 443
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return g.String(host), 443
	}

	return g.String(host), uint16(port)
}
