package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lookbusy1344/riscv-emulator/config"
	"github.com/lookbusy1344/riscv-emulator/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configFile  = flag.String("config", "", "Config file path (default: platform config dir)")
		entryPoint  = flag.String("entry", "0x0", "Load/decode address (hex or decimal)")
		isaVersion  = flag.Uint("isa-version", uint(vm.Version2), "Decoder behaviour version (0, 1 or 2)")
		noMop       = flag.Bool("no-mop", false, "Disable macro-op fusion")
		enableStats = flag.Bool("stats", false, "Print decode statistics")
		statsFile   = flag.String("stats-file", "", "Statistics output file (JSON)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("riscv-decode %s (commit %s, built %s)\n", Version, Commit, Date)
		return
	}
	if *showHelp || flag.NArg() != 1 {
		printUsage()
		if *showHelp {
			return
		}
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *configFile, *entryPoint, uint32(*isaVersion), *noMop, *enableStats, *statsFile, *verboseMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: riscv-decode [options] <image.bin>")
	fmt.Println()
	fmt.Println("Decodes and disassembles a flat RISC-V binary image, applying the")
	fmt.Println("same macro-op fusion the emulator core uses.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

func run(imagePath, configPath, entry string, version uint32, noMop, enableStats bool, statsFile string, verbose bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if noMop {
		cfg.ISA.Mop = false
	}
	if enableStats || statsFile != "" {
		cfg.Statistics.Enable = true
	}

	entryAddr, err := parseAddress(entry)
	if err != nil {
		return fmt.Errorf("invalid entry point %q: %w", entry, err)
	}

	image, err := os.ReadFile(imagePath) // #nosec G304 -- user-supplied image path
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	memory := vm.NewGuestMemory()
	if err := memory.LoadProgram(image, entryAddr); err != nil {
		return fmt.Errorf("failed to load image at 0x%08X: %w", entryAddr, err)
	}
	memory.MakeCodeReadOnly()

	decoder := vm.BuildDecoder(cfg.ISAFlags(), version)
	var stats *vm.Statistics
	if cfg.Statistics.Enable {
		stats = vm.NewStatistics()
		decoder.SetStatistics(stats)
	}

	if verbose {
		fmt.Printf("image: %s (%d bytes at 0x%08X), isa flags 0x%02X, version %d\n",
			imagePath, len(image), entryAddr, cfg.ISAFlags(), version)
	}

	end := entryAddr + uint64(len(image))
	for pc := entryAddr; pc < end; {
		inst, err := decoder.Decode(memory, pc)
		if err != nil {
			var invalid *vm.InvalidInstructionError
			if errors.As(err, &invalid) {
				// keep going: data words interleaved with code are normal
				fmt.Printf("0x%08X:  .word 0x%08X\n", pc, invalid.Bits)
				pc += 4
				continue
			}
			return err
		}
		fmt.Printf("0x%08X:  %s\n", pc, inst)
		pc += uint64(inst.Length())
	}

	if stats != nil {
		if statsFile != "" {
			if err := writeStats(stats, statsFile); err != nil {
				return err
			}
		}
		fmt.Println()
		fmt.Print(stats.Summary())
	}
	return nil
}

func parseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(v, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func writeStats(stats *vm.Statistics, path string) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}
