// Command sheetcost runs the Cost Engine end to end against a
// nesting result produced elsewhere: it resolves material and
// machine rates, estimates per-sheet motion time, allocates material
// cost across parts, and prints the resulting cost summary as JSON,
// optionally also writing an Excel workbook breakdown.
//
// Usage:
//
//	sheetcost -ratebook rates.xlsx -nesting job.json -profile laser.json [-overrides overrides.json] [-out summary.xlsx]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metalforge/sheetcost/internal/config"
	"github.com/metalforge/sheetcost/internal/costing"
	"github.com/metalforge/sheetcost/internal/export"
	"github.com/metalforge/sheetcost/internal/logging"
	"github.com/metalforge/sheetcost/internal/model"
	"github.com/metalforge/sheetcost/internal/rates"
	"github.com/metalforge/sheetcost/internal/statscache"
)

var (
	ratebookPath  string
	nestingPath   string
	profilePath   string
	overridesPath string
	configPath    string
	outPath       string
	redisAddr     string
	logMode       string
	timeoutSec    int
)

func flags() {
	flag.StringVar(&ratebookPath, "ratebook", "", "path to the rate book (.csv or .xlsx)")
	flag.StringVar(&nestingPath, "nesting", "", "path to a NestingResult JSON file")
	flag.StringVar(&profilePath, "profile", "", "path to a MachineProfile JSON file")
	flag.StringVar(&overridesPath, "overrides", "", "path to a JobOverrides JSON file (optional, defaults applied otherwise)")
	flag.StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the persisted app config")
	flag.StringVar(&outPath, "out", "", "path to write an Excel cost-summary workbook (optional)")
	flag.StringVar(&redisAddr, "redis", "", "redis address for the stats cache (optional; defaults to an in-process cache)")
	flag.StringVar(&logMode, "logmode", "dev", "logger mode: dev or prod")
	flag.IntVar(&timeoutSec, "timeout", 60, "overall job timeout in seconds")
	flag.Parse()
}

func main() {
	flags()

	log, err := logging.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sheetcost: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if ratebookPath == "" || nestingPath == "" || profilePath == "" {
		fmt.Fprintln(os.Stderr, "sheetcost: -ratebook, -nesting, and -profile are required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(log); err != nil {
		log.Fatal("job failed", "error", err)
	}
}

func run(log *logging.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	book, err := loadRateBook(ratebookPath, appCfg)
	if err != nil {
		return fmt.Errorf("load rate book: %w", err)
	}
	log.Info("rate book loaded", "path", ratebookPath, "entries", book.Len())

	var nesting model.NestingResult
	if err := readJSONFile(nestingPath, &nesting); err != nil {
		return fmt.Errorf("load nesting result: %w", err)
	}

	var profile model.MachineProfile
	if err := readJSONFile(profilePath, &profile); err != nil {
		return fmt.Errorf("load machine profile: %w", err)
	}

	overrides := model.DefaultJobOverrides(nesting.SourceType, nesting.SourceID)
	appCfg.ApplyToOverrides(&overrides)
	if overridesPath != "" {
		if err := readJSONFile(overridesPath, &overrides); err != nil {
			return fmt.Errorf("load job overrides: %w", err)
		}
	}

	cache, closeCache, err := buildStatsCache(ctx)
	if err != nil {
		return fmt.Errorf("init stats cache: %w", err)
	}
	defer closeCache()

	facade := costing.NewFacade(book, cache, nil)
	summary, warnings, err := facade.Cost(ctx, nesting, profile, overrides)
	if err != nil {
		return fmt.Errorf("cost job: %w", err)
	}
	for _, w := range warnings {
		log.Warn("costing warning", "kind", w.Kind, "message", w.Message)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	fmt.Println(string(out))

	if outPath != "" {
		if err := export.WriteXLSX(outPath, summary); err != nil {
			return fmt.Errorf("write xlsx export: %w", err)
		}
		log.Info("exported cost summary", "path", outPath)
	}

	appCfg.RememberRateBook(ratebookPath, 10)
	if err := config.Save(configPath, appCfg); err != nil {
		log.Warn("failed to persist app config", "error", err)
	}
	return nil
}

func loadRateBook(path string, appCfg config.AppConfig) (*rates.Book, error) {
	var result config.LoadResult
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		result = config.LoadRateBookCSVWithTolerance(path, appCfg.ThicknessTolerance, appCfg.FoilThresholdMM)
	case ".xlsx", ".xls":
		result = config.LoadRateBookXLSXWithTolerance(path, appCfg.ThicknessTolerance, appCfg.FoilThresholdMM)
	default:
		return nil, fmt.Errorf("unsupported rate book extension %q", ext)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(result.Errors, "; "))
	}
	return result.Book, nil
}

func buildStatsCache(ctx context.Context) (statscache.Cache, func(), error) {
	if redisAddr == "" {
		return statscache.NewMemory(), func() {}, nil
	}
	r, err := statscache.NewRedis(ctx, statscache.RedisOptions{Addr: redisAddr})
	if err != nil {
		return nil, nil, err
	}
	return r, func() { _ = r.Close() }, nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
