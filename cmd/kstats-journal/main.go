// Command kstats-journal inspects a journal file: it parses the lines the
// uploader would accept, prints them, and reports the lines that would be
// rejected.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/journal"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out, errw io.Writer) error {
	fs := flag.NewFlagSet("kstats-journal", flag.ContinueOnError)
	fs.SetOutput(errw)

	var (
		path     = fs.String("f", "kstats.log", "journal file to inspect")
		instance = fs.String("instance", "", "instance tag stamped on parsed samples")
		stale    = fs.Duration("stale", journal.DefaultStaleAfter, "staleness window, older samples are rejected")
		asJSON   = fs.Bool("json", false, "print the parsed batch as upload JSON")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	rejects := &journal.Rejects{}
	p := journal.Parser{Instance: *instance, StaleAfter: *stale, Rejects: rejects}
	samples := p.Parse(string(raw))

	if *asJSON {
		batch := domain.Batch{
			Timestamp:    time.Now().Unix(),
			ProtoVersion: domain.ProtoVersion,
			Data:         samples,
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return fmt.Errorf("encode batch: %w", err)
		}
	} else {
		for _, s := range samples {
			fmt.Fprintf(out, "%s %s %s\n",
				time.Unix(s.CollectedAt, 0).UTC().Format(journal.TimeFormat),
				s.Name,
				strconv.FormatFloat(s.Value, 'f', -1, 64))
		}
	}

	dropped := rejects.Lines()
	for _, line := range dropped {
		fmt.Fprintf(errw, "rejected: %s\n", line)
	}
	fmt.Fprintf(errw, "%d valid, %d rejected\n", len(samples), len(dropped))

	if len(dropped) > 0 {
		return fmt.Errorf("journal has %d invalid line(s)", len(dropped))
	}
	return nil
}
