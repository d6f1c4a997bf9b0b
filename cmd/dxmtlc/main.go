// Command dxmtlc translates a decoded Direct3D bytecode (DXBC) token
// stream into an Apple AIR module.
//
// Usage:
//
//	dxmtlc [options] <input>
//
// Examples:
//
//	dxmtlc shader.dxbc                  # emit shader.dxbc's AIR bitcode to stdout
//	dxmtlc -S -o shader.ll shader.dxbc  # emit textual AIR to a file
//	dxmtlc -dump-reflection shader.dxbc # print the reflection report to stderr
//	dxmtlc - < shader.dxbc              # read the token stream from stdin
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	d3dmtl "github.com/gogpu/dxmtl"
	"github.com/gogpu/dxmtl/air"
)

var (
	output         = flag.String("o", "", "output file (default: stdout)")
	textual        = flag.Bool("S", false, "emit textual AIR instead of the bitcode wrapper")
	fastMath       = flag.Bool("fast-math", false, "fast-math float ops (accepted for llc/opt compatibility; this emitter's output is unchanged)")
	preserveBCUses = flag.Bool("preserve-bc-uselistorder", false, "preserve bitcode use-list order (accepted for llc/opt compatibility; this emitter's output is already deterministic)")
	preserveLLUses = flag.Bool("preserve-ll-uselistorder", false, "preserve textual-IR use-list order (accepted for llc/opt compatibility; this emitter's output is already deterministic)")
	dumpReflection = flag.Bool("dump-reflection", false, "print the declared-binding reflection report to stderr")
	versionFlag    = flag.Bool("version", false, "print version")

	optLevel = 1
)

func init() {
	flag.BoolFunc("O0", "optimization level 0 (accepted; output is unchanged)", func(string) error { optLevel = 0; return nil })
	flag.BoolFunc("O1", "optimization level 1 (default; output is unchanged)", func(string) error { optLevel = 1; return nil })
	flag.BoolFunc("O2", "optimization level 2 (accepted; output is unchanged)", func(string) error { optLevel = 2; return nil })
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("dxmtlc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "dxmtlc: no input file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]

	raw, err := readInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dxmtlc: error reading input: %v\n", err)
		os.Exit(1)
	}
	tokens, err := wordsLE(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dxmtlc: %v\n", err)
		os.Exit(1)
	}

	opts := d3dmtl.DefaultOptions()
	opts.Name = "main"
	fn, info, err := d3dmtl.TranslateWithOptions(tokens, opts)
	if *dumpReflection && info != nil {
		fmt.Fprint(os.Stderr, info.DebugDump())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dxmtlc: translation failed: %v\n", err)
		os.Exit(1)
	}

	out := renderOutput(fn)
	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "dxmtlc: error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dxmtlc: wrote %s (%d bytes)\n", *output, len(out))
		return
	}
	if _, err := os.Stdout.Write(out); err != nil {
		fmt.Fprintf(os.Stderr, "dxmtlc: error writing output: %v\n", err)
		os.Exit(1)
	}
}

// renderOutput applies -S and builds the single-function module the
// CLI emits. optLevel, -fast-math, and the two --preserve-*-uselistorder
// flags are accepted for command-line compatibility with llc/opt-style
// tooling but don't change this emitter's output: it has exactly one
// codegen path (unoptimized, one deterministic instruction order), so
// there is nothing for those flags to toggle yet.
func renderOutput(fn *air.Function) []byte {
	mod := air.NewModule()
	mod.Functions = append(mod.Functions, fn)
	if *textual {
		return []byte(mod.String())
	}
	return mod.Build()
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// wordsLE reinterprets raw as a little-endian []uint32 token stream,
// the in-memory shape dxbc.NewCursor expects.
func wordsLE(raw []byte) ([]uint32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of 4 bytes", len(raw))
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return words, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: dxmtlc [options] <input>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  dxmtlc shader.dxbc                  Emit AIR bitcode to stdout\n")
	fmt.Fprintf(os.Stderr, "  dxmtlc -S -o shader.ll shader.dxbc  Emit textual AIR to a file\n")
	fmt.Fprintf(os.Stderr, "  dxmtlc -dump-reflection shader.dxbc Print the reflection report\n")
}
