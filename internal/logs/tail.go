package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const maxLineBytes = 1024 * 1024

// Window is a run of log lines plus the byte offset just past the last one.
type Window struct {
	Lines  []string
	Offset int64
}

// Last returns the final n lines of path. A missing file yields an empty
// window so a fresh station can be inspected before anything was logged.
func Last(path string, n int) (Window, error) {
	file, err := openLog(path)
	if err != nil || file == nil {
		return Window{}, err
	}
	defer file.Close()

	if n <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Window{}, fmt.Errorf("seek log file: %w", err)
		}
		return Window{Offset: end}, nil
	}

	ring := make([]string, n)
	total := 0
	scanner := newScanner(file)
	for scanner.Scan() {
		ring[total%n] = scanner.Text()
		total++
	}
	if err := scanner.Err(); err != nil {
		return Window{}, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return Window{}, fmt.Errorf("determine log offset: %w", err)
	}

	count := min(total, n)
	lines := make([]string, count)
	start := total - count
	for i := range count {
		lines[i] = ring[(start+i)%n]
	}
	return Window{Lines: lines, Offset: end}, nil
}

// Since returns the complete lines appended after offset. When the file
// shrank below offset it was truncated and reading restarts at the top.
func Since(path string, offset int64) (Window, error) {
	file, err := openLog(path)
	if err != nil || file == nil {
		return Window{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Window{}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Window{}, fmt.Errorf("seek log file: %w", err)
	}

	window := Window{Offset: offset}
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial trailing line is picked up on the next call.
			break
		}
		if err != nil {
			return Window{}, fmt.Errorf("read log file: %w", err)
		}
		window.Offset += int64(len(line))
		window.Lines = append(window.Lines, trimNewline(line))
	}
	return window, nil
}

// Follow polls path every interval and hands each new line to emit until ctx
// is done. It returns nil on cancellation.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		window, err := Since(path, offset)
		if err != nil {
			return err
		}
		for _, line := range window.Lines {
			emit(line)
		}
		offset = window.Offset

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func openLog(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
