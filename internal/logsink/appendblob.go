// Package logsink ships structured logs to an Azure append blob.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type Config struct {
	AccountName string
	AccountKey  string
	Container   string
	BlobName    string        // may include slashes; defaults to <date>/<hostname>.jsonl
	FlushEvery  time.Duration // default 2s
	Level       slog.Leveler  // default info
}

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

var errClosed = errors.New("log sink closed")

type Handler struct {
	ab    appender
	level slog.Leveler
	ch    chan []byte
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func New(ctx context.Context, cfg Config) (*Handler, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, errors.New("AccountName, AccountKey and Container are required")
	}
	if cfg.BlobName == "" {
		host, _ := os.Hostname()
		cfg.BlobName = DefaultBlobName(host, time.Now())
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" +
		url.PathEscape(cfg.Container) + "/" + cfg.BlobName

	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, err
	}

	// create only if missing so restarts keep appending
	_, err = ab.Create(ctx, &appendblob.CreateOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: to.Ptr(azcore.ETagAny)},
		},
	})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return nil, err
	}

	return newHandler(ab, cfg.FlushEvery, cfg.Level), nil
}

func newHandler(ab appender, flushEvery time.Duration, level slog.Leveler) *Handler {
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	if level == nil {
		level = slog.LevelInfo
	}
	h := &Handler{
		ab:    ab,
		level: level,
		ch:    make(chan []byte, 1024),
	}
	h.wg.Add(1)
	go h.loop(flushEvery)
	return h
}

// Close flushes buffered lines and stops the background writer.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.ch)
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ev := make(map[string]any, r.NumAttrs()+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		a.Value = a.Value.Resolve()
		if a.Value.Kind() == slog.KindGroup {
			// one level deep
			m := map[string]any{}
			for _, aa := range a.Value.Group() {
				m[aa.Key] = aa.Value.Resolve().Any()
			}
			ev[a.Key] = m
		} else if err, ok := a.Value.Any().(error); ok {
			ev[a.Key] = err.Error()
		} else {
			ev[a.Key] = a.Value.Any()
		}
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errClosed
	}
	h.ch <- b.Bytes()
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: h, attrs: attrs}
}

func (h *Handler) WithGroup(string) slog.Handler { return h }

func (h *Handler) loop(flushEvery time.Duration) {
	defer h.wg.Done()
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := h.ab.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			// can't log through ourselves
			_, _ = os.Stderr.WriteString("logsink: append failed: " + err.Error() + "\n")
		}
		buf = buf[:0]
	}

	for {
		select {
		case line, ok := <-h.ch:
			if !ok {
				flush()
				return
			}
			buf = append(buf, line...)
		case <-ticker.C:
			flush()
		}
	}
}

type withAttrs struct {
	*Handler
	attrs []slog.Attr
}

func (w *withAttrs) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(w.attrs...)
	return w.Handler.Handle(ctx, r2)
}

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: w.Handler, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
