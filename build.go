//go:build ignore

// build.go - oracle-tally build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, tallyctl, test, bench, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "oracletally"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Commit  string
}

var (
	rootDir string
	distDir string

	// Executable names (key = source dir name, value = output name)
	executables = map[string]string{
		"tallyctl": "tallyctl",
	}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		printError(fmt.Sprintf("Failed to get current directory: %v", err))
		os.Exit(1)
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	ctx := &BuildContext{
		Verbose: *verbose,
		Commit:  gitCommit(),
	}

	startTime := time.Now()
	switch *target {
	case "all":
		runTests(ctx)
		for name := range executables {
			buildExecutable(name, ctx)
		}
	case "tallyctl":
		buildExecutable("tallyctl", ctx)
	case "test":
		runTests(ctx)
	case "bench":
		runGo(ctx, "test", "-run", "^$", "-bench", ".", "-benchmem", "./internal/tally/...")
	case "clean":
		if err := os.RemoveAll(distDir); err != nil {
			printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
			os.Exit(1)
		}
		printSuccess("Build artifacts cleaned")
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func buildExecutable(name string, ctx *BuildContext) {
	exeName, ok := executables[name]
	if !ok {
		printError(fmt.Sprintf("Unknown executable: %s", name))
		os.Exit(1)
	}
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %[1]s/pkg/contracts.BuildTime=%[2]s -X %[1]s/pkg/contracts.GitCommit=%[3]s",
		module, time.Now().UTC().Format(time.RFC3339), ctx.Commit)

	runGo(ctx, "build", "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, sizeMB))
	}
}

func runTests(ctx *BuildContext) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	runGo(ctx, append(args, "./...")...)
	printSuccess("All tests passed")
}

func runGo(ctx *BuildContext, args ...string) {
	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
	}
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("go %s failed: %v", args[0], err))
		os.Exit(1)
	}
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func printInfo(msg string) {
	fmt.Println(colorBlue + "[INFO] " + colorReset + msg)
}

func printSuccess(msg string) {
	fmt.Println(colorGreen + "[OK] " + colorReset + msg)
}

func printError(msg string) {
	fmt.Println(colorRed + "[ERROR] " + colorReset + msg)
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET")
	fmt.Println("Targets:")
	fmt.Println("  all        Run tests and build every executable")
	fmt.Println("  tallyctl   Build the tallyctl CLI")
	fmt.Println("  test       Run the Go tests with the race detector")
	fmt.Println("  bench      Run the tally engine benchmarks")
	fmt.Println("  clean      Remove build artifacts")
}
