// Package transcript はゲームの棋譜をzstd圧縮したJSON Linesで読み書きする
package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Record は1手分の記録
type Record struct {
	Move      int     `json:"move"`
	Board     [][]int `json:"board"`
	Direction string  `json:"direction"`
	Depth     int     `json:"depth"`
	Empty     int     `json:"empty"`
	Score     int     `json:"score"`
}

// Writer は棋譜を書き込む
type Writer struct {
	enc *zstd.Encoder
	buf *bufio.Writer
}

// NewWriter はwにzstd圧縮で書き込むWriterを生成する
// Closeはwを閉じない
func NewWriter(w io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Writer{enc: enc, buf: bufio.NewWriter(enc)}, nil
}

// Write は1件の記録を書き込む
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %d: %w", rec.Move, err)
	}
	data = append(data, '\n')
	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("write record %d: %w", rec.Move, err)
	}
	return nil
}

// Close はバッファをフラッシュしてzstdフレームを閉じる
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.enc.Close()
		return fmt.Errorf("flush transcript: %w", err)
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	return nil
}

// Reader は棋譜を読み込む
type Reader struct {
	dec     *zstd.Decoder
	scanner *bufio.Scanner
}

// NewReader はzstd圧縮された棋譜を読み込むReaderを生成する
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Reader{dec: dec, scanner: scanner}, nil
}

// Next は次の記録を返す。終端ではio.EOFを返す
func (r *Reader) Next() (Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Record{}, fmt.Errorf("read transcript: %w", err)
		}
		return Record{}, io.EOF
	}
	var rec Record
	if err := json.Unmarshal(r.scanner.Bytes(), &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// Close はデコーダを解放する
func (r *Reader) Close() {
	r.dec.Close()
}

// Summary は棋譜の集計
type Summary struct {
	Moves      int
	FinalScore int
	MaxTile    int
	MaxDepth   int
}

// Summarize は棋譜を最後まで読んで集計する
func Summarize(r *Reader) (Summary, error) {
	var s Summary
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return s, err
		}
		s.Moves++
		s.FinalScore = rec.Score
		s.MaxDepth = max(s.MaxDepth, rec.Depth)
		for _, row := range rec.Board {
			for _, v := range row {
				s.MaxTile = max(s.MaxTile, v)
			}
		}
	}
}
