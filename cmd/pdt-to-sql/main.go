package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"promo-data/internal/config"
	logpkg "promo-data/internal/logger"
	"promo-data/internal/service"
	"promo-data/internal/sqlgen"
)

// 每行一条 PDT 导出（tab 分隔），输出对应的资格规则 INSERT。
// 解析失败的行跳过并记日志，有失败时退出码为 1。

const maxLineBytes = 1 << 20

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-input pdt.txt] [-out rules.sql]\n", os.Args[0])
		flag.PrintDefaults()
	}
	inputPath := flag.String("input", "", "PDT export file, one promo per line (default stdin)")
	outputPath := flag.String("out", "", "SQL output file (default stdout)")
	flag.Parse()

	cfg := config.Load()
	logger, err := logpkg.NewLogger(cfg.Log.Level, "console", "pdt-to-sql")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	in := io.Reader(os.Stdin)
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			logger.Fatal("Failed to open input", zap.String("path", *inputPath), zap.Error(err))
		}
		defer f.Close()
		in = f
	}
	out := io.Writer(os.Stdout)
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			logger.Fatal("Failed to create output", zap.String("path", *outputPath), zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	builder := sqlgen.NewBuilder(service.SQLOptions(cfg.SQL))
	written, failed, err := convert(in, out, builder, logger)
	if err != nil {
		logger.Fatal("Conversion failed", zap.Error(err))
	}
	logger.Info("PDT conversion finished", zap.Int("statements", written), zap.Int("failed_lines", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

// convert 逐行转换；空行忽略
func convert(r io.Reader, w io.Writer, b *sqlgen.Builder, logger *zap.Logger) (written, failed int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	bw := bufio.NewWriter(w)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, perr := sqlgen.ParsePDTLine(line)
		if perr != nil {
			failed++
			logger.Warn("skip PDT line", zap.Int("line", lineNo), zap.Error(perr))
			continue
		}
		if _, err := fmt.Fprintf(bw, "-- %s\n%s\n", rec.Code(), b.EligibilityFromPDT(rec)); err != nil {
			return written, failed, fmt.Errorf("failed to write output: %w", err)
		}
		written++
	}
	if err := sc.Err(); err != nil {
		return written, failed, fmt.Errorf("failed to read input: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return written, failed, fmt.Errorf("failed to write output: %w", err)
	}
	return written, failed, nil
}
