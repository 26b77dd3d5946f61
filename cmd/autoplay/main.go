package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
	"github.com/nnaakkaaii/rankmerge/internal/logx"
	"github.com/nnaakkaaii/rankmerge/internal/transcript"
	"github.com/nnaakkaaii/rankmerge/internal/usecase"
)

func main() {
	size := flag.Int("size", 4, "board size")
	depth := flag.Int("depth", 5, "search depth")
	spawn := flag.Int("spawn", 1, "rank of spawned tiles")
	budget := flag.Int("budget", 0, "node budget per move (0 = unlimited)")
	adaptive := flag.Bool("adaptive", true, "adjust depth by empty cell count")
	parallel := flag.Bool("parallel", false, "search root moves in parallel")
	seed := flag.Int64("seed", 0, "random seed (0 = time based)")
	delay := flag.Int("delay", 100, "delay between moves (ms)")
	maxMoves := flag.Int("max-moves", 0, "stop after this many moves (0 = unlimited)")
	record := flag.String("record", "", "write a zstd transcript to this file")
	quiet := flag.Bool("quiet", false, "suppress board output")
	prof := flag.String("profile", "", "write a cpu or mem profile to the current directory")
	logLevel := flag.String("log", "info", "log level")
	flag.Parse()

	logger := logx.NewLoggerTo(os.Stderr, logx.ParseLevel(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	config := usecase.DefaultAutoPlayConfig()
	config.Size = *size
	config.Search = domain.SearchConfig{SearchDepth: *depth, SpawnValue: *spawn, NodeBudget: *budget}
	config.Adaptive = *adaptive
	config.UseParallel = *parallel
	config.Delay = time.Duration(*delay) * time.Millisecond
	config.MaxMoves = *maxMoves
	config.Verbose = !*quiet

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet, profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet, profile.NoShutdownHook).Stop()
	default:
		logger.Fatal().Str("profile", *prof).Msg("unknown profile mode")
	}

	logger.Info().Int64("seed", *seed).Msg("starting autoplay")
	if err := run(ctx, rng, config, *record, logger); err != nil {
		logger.Error().Err(err).Msg("autoplay")
		stop()
		os.Exit(1)
	}
}

// run は自動プレイを実行し、pathが空でなければ棋譜を書き出す
func run(ctx context.Context, rng *rand.Rand, config usecase.AutoPlayConfig, path string, logger zerolog.Logger) error {
	if path == "" {
		_, err := usecase.AutoPlay(ctx, os.Stdout, rng, config, logger, nil)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	defer f.Close()
	tw, err := transcript.NewWriter(f)
	if err != nil {
		return fmt.Errorf("open transcript writer: %w", err)
	}

	_, err = usecase.AutoPlay(ctx, os.Stdout, rng, config, logger, tw)
	if closeErr := tw.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		logger.Info().Str("path", path).Msg("transcript written")
	}
	return err
}
