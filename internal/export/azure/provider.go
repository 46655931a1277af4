package azure

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/Chapsvision-dev/volume-backup-client/internal/retry"
	"github.com/Chapsvision-dev/volume-backup-client/internal/util"
)

const metaSHA256 = "sha256"

// Sink stores inventory exports as block blobs.
type Sink struct {
	client    *azblob.Client
	container string
	authMode  string
	ro        retry.Options
}

func (p *Sink) Name() string { return "azure" }

// Put uploads data with its sha256 as metadata, then validates size and
// checksum through the blob properties.
func (p *Sink) Put(ctx context.Context, key string, data []byte) error {
	if err := p.ensureContainer(ctx); err != nil {
		return fmt.Errorf("ensure container: %w", err)
	}
	key = normalizeKey(key)

	sum, size, err := util.SHA256(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}

	upStart := time.Now()
	upAttempt := 0
	uploadOnce := func(ctx context.Context) error {
		upAttempt++
		log.Debug().Str("action", "azure_upload").Str("container", p.container).Str("key", key).
			Str("auth", p.authMode).Int("attempt", upAttempt).Msg("starting attempt")

		_, err := p.client.UploadBuffer(ctx, p.container, key, data, &azblob.UploadBufferOptions{
			Metadata:    map[string]*string{metaSHA256: to.Ptr(sum)},
			HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/json")},
		})
		if err != nil {
			log.Debug().Err(err).Str("action", "azure_upload").Str("container", p.container).Str("key", key).
				Int("attempt", upAttempt).Msg("attempt failed")
			return err
		}
		return nil
	}
	if err := retry.Do(ctx, p.ro, p.isAzRetryable, uploadOnce); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	log.Info().Str("action", "azure_upload").Str("container", p.container).Str("key", key).
		Int("attempts", upAttempt).Dur("elapsed_ms", time.Since(upStart)).Msg("upload OK")

	// Post-upload validation.
	validateAttempt := 0
	validateOnce := func(ctx context.Context) error {
		validateAttempt++
		props, err := p.client.ServiceClient().NewContainerClient(p.container).NewBlobClient(key).GetProperties(ctx, nil)
		if err != nil {
			log.Debug().Err(err).Str("action", "azure_validate").Str("key", key).
				Int("attempt", validateAttempt).Msg("attempt failed")
			return err
		}
		var remoteSize int64
		if props.ContentLength != nil {
			remoteSize = *props.ContentLength
		}
		return checkUploaded(size, sum, remoteSize, metadataValue(props.Metadata, metaSHA256))
	}
	if err := retry.Do(ctx, p.ro, p.isAzRetryable, validateOnce); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	log.Info().Str("action", "azure_validate").Str("container", p.container).Str("key", key).
		Int64("size", size).Msg("validation OK (sha256 & size)")
	return nil
}

func checkUploaded(localSize int64, localSHA string, remoteSize int64, remoteSHA string) error {
	if remoteSize != localSize {
		return fmt.Errorf("size mismatch: local=%d, remote=%d", localSize, remoteSize)
	}
	if remoteSHA == "" {
		return fmt.Errorf("missing metadata: %s", metaSHA256)
	}
	if remoteSHA != localSHA {
		return fmt.Errorf("sha256 mismatch: local=%s, remote=%s", localSHA, remoteSHA)
	}
	return nil
}

// metadataValue looks a key up case-insensitively; the service canonicalizes
// metadata header names.
func metadataValue(md map[string]*string, key string) string {
	for k, v := range md {
		if strings.EqualFold(k, key) && v != nil {
			return *v
		}
	}
	return ""
}

func normalizeKey(k string) string {
	return strings.TrimPrefix(k, "/")
}
