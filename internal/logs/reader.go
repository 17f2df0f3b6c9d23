// Package logs reads back what logsink shipped to blob storage.
package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"zest/internal/logsink"
)

// Entry is one shipped log line. Attributes other than ts, level and msg
// land in Extra.
type Entry struct {
	Time  string         `json:"ts"`
	Level string         `json:"level"`
	Msg   string         `json:"msg"`
	Extra map[string]any `json:"-"`
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	if err := json.Unmarshal(data, (*alias)(e)); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	delete(all, "ts")
	delete(all, "level")
	delete(all, "msg")
	e.Extra = all
	return nil
}

type Config struct {
	AccountName string
	AccountKey  string
	Container   string
}

type Reader struct {
	container string
	client    *azblob.Client
}

func NewReader(cfg Config) (*Reader, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, errors.New("AccountName, AccountKey, and Container are required")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, err
	}
	return &Reader{container: cfg.Container, client: client}, nil
}

// Since returns entries logged after since, oldest first.
func (r *Reader) Since(ctx context.Context, since time.Time) ([]Entry, error) {
	var all []Entry
	for _, prefix := range datePrefixes(since, time.Now()) {
		pager := r.client.NewListBlobsFlatPager(r.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list blobs: %w", err)
			}
			for _, item := range resp.Segment.BlobItems {
				if item.Properties != nil && item.Properties.LastModified != nil && item.Properties.LastModified.Before(since) {
					continue
				}
				entries, err := r.readBlob(ctx, *item.Name, since)
				if err != nil {
					slog.WarnContext(ctx, "skipping unreadable log blob", "blob", *item.Name, "error", err)
					continue
				}
				all = append(all, entries...)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time < all[j].Time })
	return all, nil
}

func (r *Reader) readBlob(ctx context.Context, name string, since time.Time) ([]Entry, error) {
	resp, err := r.client.DownloadStream(ctx, r.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return parse(resp.Body, since)
}

// datePrefixes lists the logsink date folders covering [since, until].
func datePrefixes(since, until time.Time) []string {
	var prefixes []string
	current := since.UTC().Truncate(24 * time.Hour)
	end := until.UTC().Truncate(24 * time.Hour)
	for !current.After(end) {
		prefixes = append(prefixes, logsink.FormatDateFolder(current.Year(), int(current.Month()), current.Day())+"/")
		current = current.Add(24 * time.Hour)
	}
	return prefixes
}

// parse skips lines that are not JSON and entries older than since.
func parse(reader io.Reader, since time.Time) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, e.Time); err == nil && ts.Before(since) {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("error scanning logs: %w", err)
	}
	return entries, nil
}
