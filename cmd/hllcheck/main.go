// hllcheck is a diagnostic tool for building and inspecting HyperLogLog
// sketches from the command line. It streams newline-delimited values into
// a fresh sketch, reports the resulting cardinality estimate, and can dump
// the header fields of a previously serialized sketch without loading it
// into an aggregation pipeline.
//
// This package owns the one piece of the pipeline the hll package
// deliberately stays out of: turning an arbitrary input value into the
// hashed byte string Sketch.Add expects. It does that with two
// domain-separated xxhash passes over the value, concatenated into a
// 16-byte hash.
//
// Usage Examples
// ==============
//
// Estimate the cardinality of a column of values:
//
//	hllcheck -input values.txt
//
// Read from stdin instead of a file:
//
//	sort -u values.txt | hllcheck -input -
//
// Save the resulting sketch for later inspection or merging:
//
//	hllcheck -input values.txt -save sketch.hll
//
// Inspect a sketch previously written by -save, without re-streaming input:
//
//	hllcheck -inspect sketch.hll
//
// Exit Codes
// ==========
//
// 0: The requested operation completed.
// 1: The flags were missing, or the input file or sketch file could not be
// read, parsed, or written.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/quilldb/hyperloglog/internal/hll"
)

func main() {
	inputPath := flag.String("input", "", "Path to a newline-delimited value file, or - for stdin")
	inspectPath := flag.String("inspect", "", "Path to a serialized sketch to inspect instead of streaming input")
	savePath := flag.String("save", "", "Path to write the resulting sketch to, after streaming -input")
	verbose := flag.Bool("v", false, "Log every value as it's added")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *inspectPath != "" {
		if err := inspect(logger, *inspectPath); err != nil {
			logger.Error("inspect failed", "file", *inspectPath, "err", err)
			os.Exit(1)
		}
		return
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: hllcheck -input <file|-> [-save out.hll] [-v]")
		fmt.Fprintln(os.Stderr, "   or: hllcheck -inspect <sketch file>")
		os.Exit(1)
	}

	sketch, count, err := stream(logger, *inputPath, *verbose)
	if err != nil {
		logger.Error("stream failed", "file", *inputPath, "err", err)
		os.Exit(1)
	}

	estimate := sketch.Estimate()
	fmt.Printf("lines read:  %d\n", count)
	fmt.Printf("estimate:    %.2f\n", estimate)
	fmt.Printf("sketch:      %s\n", sketch)

	if *savePath != "" {
		if err := os.WriteFile(*savePath, sketch.Serialize(), 0o644); err != nil {
			logger.Error("save failed", "file", *savePath, "err", err)
			os.Exit(1)
		}
		logger.Info("saved sketch", "file", *savePath, "bytes", len(sketch.Serialize()))
	}
}

// stream reads newline-delimited values out of path (or stdin, for "-"),
// hashes each one, and folds it into a fresh sketch.
func stream(logger *slog.Logger, path string, verbose bool) (*hll.Sketch, int, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	sketch := hll.New()
	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		hashed := hashValue(line)
		if err := sketch.Add(hashed); err != nil {
			return nil, 0, fmt.Errorf("add value %d: %w", count, err)
		}
		count++
		if verbose {
			logger.Debug("added value", "line", count, "value", string(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan input: %w", err)
	}
	return sketch, count, nil
}

// inspect parses a previously serialized sketch and reports its header
// fields and cardinality estimate without mutating it.
func inspect(logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sketch: %w", err)
	}
	sketch, err := hll.Parse(data)
	if err != nil {
		return fmt.Errorf("parse sketch: %w", err)
	}
	logger.Info("parsed sketch", "bytes", len(data))
	fmt.Printf("sketch:   %s\n", sketch)
	fmt.Printf("estimate: %.2f\n", sketch.Estimate())
	return nil
}

// hashValue reduces an arbitrary value to the >=10-byte hashed form
// Sketch.Add requires. A single 64-bit hash isn't wide enough on its own,
// so this runs xxhash twice under domain-separated suffixes and
// concatenates the two 8-byte digests into 16 bytes: enough for the
// bucket-selecting trailing bytes and the leading bytes positionOf1 scans,
// with no overlap between the two roles.
func hashValue(value []byte) []byte {
	var buf [16]byte

	h1 := xxhash.New()
	h1.Write(value)
	h1.Write([]byte("|A"))
	putUint64(buf[0:8], h1.Sum64())

	h2 := xxhash.New()
	h2.Write(value)
	h2.Write([]byte("|B"))
	putUint64(buf[8:16], h2.Sum64())

	return buf[:]
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}
