// Package pipereader implements the shared line-delimited event stream
// reader used by the Roon-style and Spotify-style pipe adapters
// (§4.10.1): open a local named pipe or a tcp://host:port URL, read
// until EOF or error, and on loss reopen with backoff.
package pipereader

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// BackoffSchedule is the reconnect delay ladder from §4.10.1: 1s, 2s,
// 4s, 8s, 15s, 30s, then a constant 60s.
var BackoffSchedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// Backoff returns the delay for the given 0-based reconnect attempt,
// clamped to the schedule's final (constant) step.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(BackoffSchedule) {
		return BackoffSchedule[len(BackoffSchedule)-1]
	}
	return BackoffSchedule[attempt]
}

// Source opens the configured pipe or TCP endpoint, chosen by URL
// scheme: "tcp://host:port" dials a TCP connection, anything else is
// opened as a local named pipe (or plain file).
func Source(source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "tcp://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, err
		}
		return net.Dial("tcp", u.Host)
	}
	return os.Open(source)
}

// Run opens source, reads newline-delimited records until EOF/error,
// calling onLine for each non-empty line, then reopens with backoff
// (per BackoffSchedule) until ctx is cancelled. A shutdown signal
// aborts an in-progress backoff wait within 100ms, per §4.10.1.
func Run(ctx context.Context, source string, onLine func(string)) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := Source(source)
		if err != nil {
			log.Warn().Err(err).Str("source", source).Msg("pipereader: open failed")
			if !sleepOrCancel(ctx, Backoff(attempt)) {
				return
			}
			attempt++
			continue
		}

		readLines(conn, onLine)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.Info().Str("source", source).Msg("pipereader: stream closed, reconnecting")
		if !sleepOrCancel(ctx, Backoff(attempt)) {
			return
		}
		attempt++
	}
}

func readLines(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		onLine(line)
	}
}

// sleepOrCancel waits for d or until ctx is done, checking for
// cancellation at a sub-100ms granularity so shutdown is prompt.
func sleepOrCancel(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
