// Command questc компилирует исходник квеста в XML и печатает отчет
// компиляции. Используется авторами для проверки квестов без сервера.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"quest-server/internal/compiler"
	"quest-server/internal/encounters"
	"quest-server/internal/expr"
	"quest-server/internal/interpreter"
	sharedLogger "quest-server/shared/logger"

	"go.uber.org/zap"
)

var errCompileFailed = errors.New("compilation failed")

func main() {
	var (
		validate       = flag.Bool("validate", false, "run structural validation and a dry start")
		indent         = flag.String("indent", "    ", "indentation of the XML output")
		encountersFile = flag.String("encounters", "", "TOML encounter table (default: built-in)")
		quiet          = flag.Bool("q", false, "do not print the XML")
		listEncounters = flag.Bool("list-encounters", false, "print the encounter table and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: questc [flags] [file]\n\nReads stdin when no file is given.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:      os.Getenv("LOG_LEVEL"),
		Encoding:   "console",
		OutputPath: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "questc: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if *listEncounters {
		if err := printEncounters(*encountersFile, os.Stdout); err != nil {
			logger.Error("Не удалось загрузить таблицу противников", zap.Error(err))
			os.Exit(2)
		}
		return
	}

	source, name, err := readSource(flag.Arg(0))
	if err != nil {
		logger.Error("Не удалось прочитать исходник", zap.String("file", name), zap.Error(err))
		os.Exit(2)
	}

	opts := options{validate: *validate, indent: *indent, encountersFile: *encountersFile, quiet: *quiet}
	if err := run(source, opts, os.Stdout, os.Stderr, logger.Named("questc").With(zap.String("file", name))); err != nil {
		os.Exit(1)
	}
}

type options struct {
	validate       bool
	indent         string
	encountersFile string
	quiet          bool
}

func readSource(path string) (string, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "<stdin>", err
	}
	data, err := os.ReadFile(path)
	return string(data), path, err
}

// printEncounters печатает таблицу противников: tier, имя и класс.
func printEncounters(path string, out io.Writer) error {
	table, err := encounters.Load(path)
	if err != nil {
		return err
	}
	for _, e := range table.All() {
		fmt.Fprintf(out, "%d\t%s\t%s\n", e.Tier, e.Name, e.Class)
	}
	return nil
}

// run компилирует source, пишет XML в out и отчет в report.
func run(source string, opts options, out, report io.Writer, logger *zap.Logger) error {
	log := compiler.NewLog()
	root := compiler.Document(source, log)

	if root != nil && !opts.quiet {
		fmt.Fprintln(out, root.Indented(opts.indent))
	}
	if text := log.Finalize(); text != "" {
		fmt.Fprintln(report, text)
	}
	logger.Debug("Compiled", zap.Int("diagnostics", log.Len()), zap.Bool("hasErrors", log.HasErrors()))

	if root == nil || log.HasErrors() {
		return errCompileFailed
	}
	if !opts.validate {
		return nil
	}

	table, err := encounters.Load(opts.encountersFile)
	if err != nil {
		logger.Error("Не удалось загрузить таблицу противников", zap.Error(err))
		return err
	}
	in := interpreter.New(expr.NewLuaEngine(), table)
	if err := in.Validate(root); err != nil {
		fmt.Fprintf(report, "validation: %v\n", err)
		return err
	}
	if _, err := in.Init(root); err != nil {
		fmt.Fprintf(report, "start: %v\n", err)
		return err
	}
	logger.Debug("Quest is valid")
	return nil
}
