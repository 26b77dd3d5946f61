package main

import (
	"context"
	"flag"
	"os"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
	"github.com/nnaakkaaii/rankmerge/internal/logx"
	"github.com/nnaakkaaii/rankmerge/internal/usecase"
)

func main() {
	depth := flag.Int("depth", 5, "initial search depth")
	spawn := flag.Int("spawn", 1, "rank placed at chance nodes")
	size := flag.Int("size", 4, "board size")
	budget := flag.Int("budget", 0, "node budget per analysis (0 = unlimited)")
	parallel := flag.Bool("parallel", false, "search root moves in parallel")
	logLevel := flag.String("log", "info", "log level")
	flag.Parse()

	logger := logx.NewLoggerTo(os.Stderr, logx.ParseLevel(*logLevel))

	if *size < 1 || *size > domain.MaxSize {
		logger.Fatal().Int("size", *size).Msg("board size out of range")
	}
	advisor, err := usecase.NewAdvisor(domain.SearchConfig{SearchDepth: *depth, SpawnValue: *spawn, NodeBudget: *budget}, *parallel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create advisor")
	}

	analyzer := usecase.NewAnalyzer(os.Stdin, os.Stdout, advisor, *size, logger)
	if err := analyzer.Run(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("analyze")
	}
}
