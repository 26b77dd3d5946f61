package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
	"github.com/nnaakkaaii/rankmerge/internal/logx"
	"github.com/nnaakkaaii/rankmerge/internal/usecase"
)

func main() {
	size := flag.Int("size", 4, "board size")
	spawn := flag.Int("spawn", 1, "rank of spawned tiles")
	seed := flag.Int64("seed", 0, "random seed (0 = time based)")
	hint := flag.Bool("hint", true, "enable hints with h")
	depth := flag.Int("depth", 3, "search depth for hints")
	logLevel := flag.String("log", "info", "log level")
	flag.Parse()

	logger := logx.NewLoggerTo(os.Stderr, logx.ParseLevel(*logLevel))

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	var advisor domain.Advisor
	if *hint {
		a, err := usecase.NewAdvisor(domain.SearchConfig{SearchDepth: *depth, SpawnValue: *spawn}, false, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create advisor")
		}
		advisor = a
	}

	if err := usecase.PlayGame(context.Background(), os.Stdin, os.Stdout, rng, *size, *spawn, advisor); err != nil {
		logger.Fatal().Err(err).Msg("play")
	}
}
