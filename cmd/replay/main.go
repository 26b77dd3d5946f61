package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nnaakkaaii/rankmerge/internal/logx"
	"github.com/nnaakkaaii/rankmerge/internal/transcript"
)

func main() {
	verbose := flag.Bool("v", false, "print every recorded move")
	flag.Parse()

	logger := logx.NewLogger()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-v] <transcript.zst>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("open transcript")
	}
	defer f.Close()

	r, err := transcript.NewReader(f)
	if err != nil {
		logger.Fatal().Err(err).Msg("open transcript reader")
	}
	defer r.Close()

	if *verbose {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				logger.Fatal().Err(err).Msg("read transcript")
			}
			fmt.Printf("#%d %-5s depth=%d empty=%d score=%d\n", rec.Move, rec.Direction, rec.Depth, rec.Empty, rec.Score)
		}
	}

	s, err := transcript.Summarize(r)
	if err != nil {
		logger.Fatal().Err(err).Msg("read transcript")
	}
	fmt.Printf("Moves: %d\n", s.Moves)
	fmt.Printf("Final Score: %d\n", s.FinalScore)
	fmt.Printf("Max Tile: %d\n", s.MaxTile)
	fmt.Printf("Max Depth: %d\n", s.MaxDepth)
}
