package session

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Chunk is one step of the simulated streaming reveal: the growing prefix of
// the final answer. The sequence is finite and non-restartable; the last
// chunk has Final set, and Aborted marks a sequence stopped before the full
// text was revealed.
type Chunk struct {
	Text    string
	Final   bool
	Aborted bool
}

// StreamWords splits text on whitespace and emits one chunk per word, with a
// randomized delay in [minDelay, maxDelay) between words. Cancellation is
// checked between every word; the channel is closed after the final chunk.
// The full answer already exists; the reveal is cosmetic.
func StreamWords(ctx context.Context, text string, minDelay, maxDelay time.Duration) <-chan Chunk {
	ch := make(chan Chunk, 1)
	go func() {
		defer close(ch)
		words := strings.Fields(text)
		if len(words) == 0 {
			ch <- Chunk{Text: text, Final: true}
			return
		}
		var b strings.Builder
		for i, w := range words {
			if i > 0 {
				b.WriteByte(' ')
				if !sleepOrAbort(ctx, randomDelay(minDelay, maxDelay)) {
					ch <- Chunk{Text: strings.TrimSpace(b.String()), Final: true, Aborted: true}
					return
				}
			}
			b.WriteString(w)
			chunk := Chunk{Text: b.String(), Final: i == len(words)-1}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				ch <- Chunk{Text: b.String(), Final: true, Aborted: true}
				return
			}
		}
	}()
	return ch
}

// sleepOrAbort waits for d; false means the context was cancelled first.
func sleepOrAbort(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func randomDelay(minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}
	return minDelay + time.Duration(rand.Int63n(int64(maxDelay-minDelay)))
}
