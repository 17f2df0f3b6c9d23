package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type BlobCache struct {
	containerClient *azblob.Client
	container       string
}

var _ Cache = (*BlobCache)(nil)

func NewBlobCache(accountName, accountKey, container string) (*BlobCache, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("azure storage account name and key are required")
	}

	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	// The service URL for blob endpoints is usually in the form: http(s)://<account>.blob.core.windows.net/
	client, err := azblob.NewClientWithSharedKeyCredential(fmt.Sprintf("https://%s.blob.core.windows.net/", accountName), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobCache{
		containerClient: client,
		container:       container,
	}, nil
}

func (fc *BlobCache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	stream, err := fc.containerClient.DownloadStream(ctx, fc.container, key, &azblob.DownloadStreamOptions{})
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		slog.ErrorContext(ctx, "failed to download blob", "key", key, "error", err)
		return nil, err
	}

	return stream.Body, nil
}

func (fc *BlobCache) Put(ctx context.Context, key, value string) error {
	_, err := fc.containerClient.UploadStream(ctx, fc.container, key, strings.NewReader(value), &azblob.UploadStreamOptions{})
	return err
}

func (fc *BlobCache) Ready(ctx context.Context) error {
	_, err := fc.containerClient.ServiceClient().NewContainerClient(fc.container).GetProperties(ctx, nil)
	if err != nil {
		return fmt.Errorf("blob container %s: %w", fc.container, err)
	}
	return nil
}
