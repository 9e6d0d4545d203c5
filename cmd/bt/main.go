package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bt/interpreter-go/pkg/driver"
	"bt/interpreter-go/pkg/interpreter"
	"bt/interpreter-go/pkg/reader"
	"bt/interpreter-go/pkg/runtime"
	"bt/interpreter-go/pkg/template"
)

const cliToolVersion = "bt-cli 0.0.0-dev"

var errManifestNotFound = errors.New("template.yml not found")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}
	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "deps":
		return runDeps(args[1:])
	default:
		return runEntry(args)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  bt run <template.bt|name> <data.bin>   execute a template against a file
  bt deps install                        fetch manifest dependencies
  bt version                             print the tool version

"bt run <name>" resolves the template through the template.yml found in the
current directory or its nearest parent that has one; a path to a .bt file
bypasses the manifest.`)
}

func runEntry(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "bt run requires a template and a data file")
		return 1
	}
	templateArg, dataPath := args[0], args[1]

	templatePath := templateArg
	if _, err := os.Stat(templatePath); err != nil {
		resolved, rerr := resolveManifestTemplate(templateArg)
		if rerr != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve template %q: %v\n", templateArg, rerr)
			return 1
		}
		templatePath = resolved
	}

	source, err := os.ReadFile(templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read template: %v\n", err)
		return 1
	}
	data, err := os.ReadFile(dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read data file: %v\n", err)
		return 1
	}

	stream := reader.NewSliceReader(data)
	ip := interpreter.New(stream)
	if err := ip.Parse(string(source)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if !ip.ReadIO(stream) {
		fmt.Fprintf(os.Stderr, "%v\n", ip.Err())
		return 1
	}
	for _, entry := range ip.CreateTemplate() {
		printEntry(entry, 0)
	}
	return 0
}

func resolveManifestTemplate(name string) (string, error) {
	manifestPath, err := findManifest(".")
	if err != nil {
		return "", err
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return "", err
	}
	spec, ok := manifest.FindTemplate(name)
	if !ok {
		return "", fmt.Errorf("manifest defines no template %q", name)
	}
	return filepath.Join(filepath.Dir(manifest.Path), spec.Main), nil
}

func findManifest(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, "template.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", errManifestNotFound
		}
		abs = parent
	}
}

func printEntry(entry *template.Entry, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s %s @ %d+%d%s\n",
		indent, entry.TypeName, entry.Name, entry.Offset, entry.Size, valueSummary(entry.Value))
	for _, child := range entry.Children {
		printEntry(child, depth+1)
	}
}

func valueSummary(v runtime.Value) string {
	switch val := v.(type) {
	case *runtime.IntegerValue:
		if val.Signed {
			return fmt.Sprintf(" = %d", val.Int64())
		}
		return fmt.Sprintf(" = %d", val.Uint64())
	case *runtime.EnumValue:
		if val.Symbol != "" {
			return fmt.Sprintf(" = %s (%d)", val.Symbol, val.Int64())
		}
		return fmt.Sprintf(" = %d", val.Int64())
	case *runtime.FloatValue:
		return fmt.Sprintf(" = %g", val.Val)
	case *runtime.StringValue:
		return fmt.Sprintf(" = %q", val.String())
	case *runtime.BoolValue:
		return fmt.Sprintf(" = %t", val.Val)
	default:
		return ""
	}
}
