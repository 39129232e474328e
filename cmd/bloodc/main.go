// Command bloodc is the compiler's entry point: build/check/run
// subcommands driving module discovery (internal/driver), checking
// (internal/check), MIR lowering (internal/mir) and LLVM codegen
// (internal/codegen) in sequence.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/bloodc/internal/ast"
	typecheck "github.com/sunholo/bloodc/internal/check"
	"github.com/sunholo/bloodc/internal/codegen"
	"github.com/sunholo/bloodc/internal/driver"
	"github.com/sunholo/bloodc/internal/errors"
	"github.com/sunholo/bloodc/internal/filecache"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/mir"
	"github.com/sunholo/bloodc/internal/projectconfig"
)

var (
	// Version info; set by ldflags during release builds.
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		outFlag     = flag.String("o", "", "Output .ll path (build/run only; defaults to <entry>.ll)")
		watchFlag   = flag.Bool("watch", false, "check: read file paths from stdin and re-check on each line")
		noCacheFlag = flag.Bool("no-cache", false, "Disable the incremental file cache for this invocation")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	command := flag.Arg(0)
	switch command {
	case "build":
		requireArg(command)
		runBuild(flag.Arg(1), *outFlag, !*noCacheFlag)
	case "check":
		if *watchFlag {
			runCheckWatch(!*noCacheFlag)
		} else {
			requireArg(command)
			runCheck(flag.Arg(1), !*noCacheFlag)
		}
	case "run":
		requireArg(command)
		runRun(flag.Arg(1), !*noCacheFlag)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func requireArg(command string) {
	if flag.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
		fmt.Printf("Usage: bloodc %s <entry.blood>\n", command)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("bloodc %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("bloodc - compiler driver"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bloodc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>   Compile to LLVM IR\n", cyan("build"))
	fmt.Printf("  %s <file>   Type-check without codegen\n", cyan("check"))
	fmt.Printf("  %s <file>   Compile and print the resulting LLVM IR\n", cyan("run"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version        Print version information")
	fmt.Println("  --help           Show this help message")
	fmt.Println("  -o <path>        Output .ll path (build/run)")
	fmt.Println("  -watch           check: re-check on each stdin line")
	fmt.Println("  -no-cache        Disable the incremental file cache")
}

// placeholderParser stands in for the front end surface syntax leaves
// out of scope here; a real lexer/parser plugs into driver.Parser at
// this exact seam.
var placeholderParser = driver.ParserFunc(func(path string) (*ast.File, error) {
	return nil, fmt.Errorf("no parser wired for %s: surface syntax is supplied by a separate front end", path)
})

// loadProject wires projectconfig, filecache and internal/driver
// together for one entry file, honoring the project's .blood/config.yaml
// and its file cache unless useCache is false.
func loadProject(entryPath string, useCache bool) (*driver.Result, *filecache.Cache, string, error) {
	absEntry, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, nil, "", err
	}
	root := filepath.Dir(absEntry)

	cfg, err := projectconfig.Load(root)
	if err != nil {
		return nil, nil, "", fmt.Errorf("loading project config: %w", err)
	}

	var cache *filecache.Cache
	cachePath := filepath.Join(root, ".blood", "file_cache.json")
	if useCache && cfg.CacheIsEnabled() {
		cache, err = filecache.Load(cachePath)
		if err != nil {
			return nil, nil, "", fmt.Errorf("loading file cache: %w", err)
		}
	}

	d := driver.New(placeholderParser, driver.Options{
		StdlibRoot:  cfg.StdlibRoot,
		ProjectRoot: root,
		Cache:       cache,
	})
	result, err := d.Build(absEntry)
	if err != nil {
		return nil, nil, "", err
	}
	return result, cache, cachePath, nil
}

func runCheck(entryPath string, useCache bool) {
	result, _, _, err := loadProject(entryPath, useCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	_, coll := check(result)
	if coll.HasErrors() {
		fmt.Print(coll.Render())
		os.Exit(1)
	}
	fmt.Printf("%s %s: no errors\n", green("✓"), entryPath)
}

func runCheckWatch(useCache bool) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	fmt.Fprintln(os.Stdout, "Watching; enter a file path to re-check that project, :quit to exit.")
	for {
		input, err := line.Prompt("check> ")
		if err == io.EOF {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == ":quit" {
			return
		}
		line.AppendHistory(input)
		runCheck(input, useCache)
	}
}

func runBuild(entryPath, outPath string, useCache bool) {
	result, cache, cachePath, err := loadProject(entryPath, useCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	crate, coll := check(result)
	if coll.HasErrors() {
		fmt.Print(coll.Render())
		os.Exit(1)
	}

	ir, err := compileToIR(crate, filepath.Base(entryPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Codegen error"), err)
		os.Exit(1)
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(entryPath, filepath.Ext(entryPath)) + ".ll"
	}
	if err := os.WriteFile(outPath, []byte(ir), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: writing %s: %v\n", red("Error"), outPath, err)
		os.Exit(1)
	}
	fmt.Printf("%s wrote %s\n", green("✓"), outPath)

	if cache != nil {
		recordCache(cache, result)
		if err := cache.Save(cachePath); err != nil {
			fmt.Fprintf(os.Stderr, "%s: saving file cache: %v\n", yellow("Warning"), err)
		}
	}
}

func runRun(entryPath string, useCache bool) {
	result, _, _, err := loadProject(entryPath, useCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	crate, coll := check(result)
	if coll.HasErrors() {
		fmt.Print(coll.Render())
		os.Exit(1)
	}

	ir, err := compileToIR(crate, filepath.Base(entryPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Codegen error"), err)
		os.Exit(1)
	}
	fmt.Println(ir)
}

// check is the one seam every subcommand funnels through to invoke
// internal/check against the driver's topologically ordered files.
func check(result *driver.Result) (*hir.Crate, *errors.Collector) {
	return typecheck.Check(result.Files)
}

func compileToIR(crate *hir.Crate, modName string) (string, error) {
	ctx := codegen.NewContext(crate, modName)
	defer ctx.Dispose()

	builder := mir.NewBuilder(crate)
	for _, item := range crate.Items {
		if item.Fn == nil {
			continue
		}
		ctx.DeclareFn(item.Fn)
	}
	for _, item := range crate.Items {
		if item.Fn == nil {
			continue
		}
		body, ok := crate.Bodies[item.Fn.Body]
		if !ok {
			continue
		}
		mirBody := builder.Lower(body)
		if err := ctx.CompileFn(item.Fn, mirBody); err != nil {
			return "", err
		}
	}
	return ctx.Module().String(), nil
}

func recordCache(cache *filecache.Cache, result *driver.Result) {
	for _, m := range result.Modules {
		if m.RelPath == "" {
			continue
		}
		_ = cache.Update(m.RelPath, m.AbsPath, nil, &m.ID)
	}
}
