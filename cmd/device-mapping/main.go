package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"promo-data/internal/config"
	"promo-data/internal/devices"
	logpkg "promo-data/internal/logger"
	"promo-data/internal/repository"
	"promo-data/internal/service"
	"promo-data/internal/store"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage: %s <command> [flags]

Commands:
  mapping                         rebuild the marketing alias table from the catalog
  search <alias>                  list catalog rows for one marketing alias
  batch  [-file list.txt] [-out results.xlsx] [alias,alias,...]
                                  resolve many aliases, optionally export to xlsx
  detect                          compare the catalog with the last snapshot

Paths come from the same environment variables as the service (CATALOG_PATH, ALIAS_PATH, ...).
`, os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg := config.Load()
	logger, err := logpkg.NewLogger(cfg.Log.Level, "console", "device-mapping")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	classifier, err := service.NewClassifier(cfg.Catalog.RulesPath)
	if err != nil {
		logger.Fatal("Failed to load classifier rules", zap.Error(err))
	}
	svc := service.NewDeviceService(service.DeviceConfigFrom(cfg.Catalog), classifier, nil, logger)
	ctx := context.Background()

	switch cmd {
	case "mapping":
		stats, err := svc.RebuildMapping(ctx)
		if err != nil {
			logger.Fatal("Failed to rebuild alias mapping", zap.Error(err))
		}
		printJSON(stats)
	case "search":
		if len(args) == 0 {
			usage(os.Stderr)
			os.Exit(2)
		}
		out := svc.Search(ctx, strings.Join(args, " "))
		exitIfUnavailable(out, logger)
		printRows(os.Stdout, out)
	case "batch":
		runBatch(ctx, svc, args, logger)
	case "detect":
		det, err := runDetect(ctx, cfg, classifier, logger)
		if err != nil {
			logger.Fatal("Device detection failed", zap.Error(err))
		}
		printJSON(det)
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runBatch(ctx context.Context, svc *service.DeviceService, args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	listPath := fs.String("file", "", "alias list, one per line")
	outPath := fs.String("out", "", "write Results/Summary workbook to this xlsx path")
	_ = fs.Parse(args)

	var aliases []string
	if *listPath != "" {
		data, err := os.ReadFile(*listPath)
		if err != nil {
			logger.Fatal("Failed to read alias list", zap.String("path", *listPath), zap.Error(err))
		}
		aliases = devices.ParseAliasList(string(data))
	}
	for _, arg := range fs.Args() {
		aliases = append(aliases, splitAliases(arg)...)
	}
	if len(aliases) == 0 {
		logger.Fatal("No aliases provided")
	}

	if *outPath == "" {
		out := svc.BatchSearch(ctx, aliases)
		exitIfUnavailable(out, logger)
		printRows(os.Stdout, out)
		printSummary(os.Stdout, out.Batch)
		return
	}
	data, out, err := svc.ExportBatch(ctx, aliases)
	if err != nil {
		logger.Fatal("Failed to export batch results", zap.Error(err))
	}
	exitIfUnavailable(out, logger)
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		logger.Fatal("Failed to write results", zap.String("path", *outPath), zap.Error(err))
	}
	printSummary(os.Stdout, out.Batch)
	logger.Info("Batch results saved", zap.String("path", *outPath), zap.Int("rows", len(out.Batch.Rows)))
}

func runDetect(ctx context.Context, cfg *config.Config, classifier *devices.Classifier, logger *zap.Logger) (*devices.Detection, error) {
	var snapshots devices.SnapshotStore = repository.NewFileSnapshotStore(cfg.Catalog.SnapshotPath)
	if cfg.SnapshotBackend == "redis" {
		client := store.NewRedisClient(&cfg.Redis)
		defer client.Close()
		snapshots = repository.NewKVSnapshotStore(store.NewRedisKV(client, cfg.Redis.Prefix))
	}
	detector := devices.NewDetector(service.DetectorConfigFrom(cfg.Catalog), snapshots, classifier, nil, logger)
	return detector.Run(ctx)
}

// splitAliases 命令行参数允许逗号分隔
func splitAliases(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func exitIfUnavailable(out *service.SearchOutcome, logger *zap.Logger) {
	if !out.Available {
		logger.Fatal("Device data unavailable", zap.String("reason", out.Message))
	}
}

func printRows(w io.Writer, out *service.SearchOutcome) {
	for _, row := range out.Batch.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Alias, row.Device.Model, row.Device.SKUType, row.Device.Brand)
	}
}

func printSummary(w io.Writer, res *devices.BatchResult) {
	for _, s := range res.Summary {
		fmt.Fprintf(w, "%-40s %-12s %d\n", s.Alias, s.Status, s.DevicesFound)
	}
	counts := res.Counts()
	fmt.Fprintf(w, "found=%d no_mapping=%d no_devices=%d\n",
		counts[devices.StatusFound], counts[devices.StatusNoMapping], counts[devices.StatusNoDevices])
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
