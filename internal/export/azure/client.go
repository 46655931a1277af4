package azure

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/Chapsvision-dev/volume-backup-client/internal/config"
	"github.com/Chapsvision-dev/volume-backup-client/internal/export"
	"github.com/Chapsvision-dev/volume-backup-client/internal/retry"
)

// Build client from config.
// Priority: 1) SAS  2) Service Principal  3) DefaultAzureCredential.
func newClientFromConfig(c config.AzureConfig) (*azblob.Client, string, error) {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", c.Account)
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	// 1) SAS
	if sasRaw := strings.TrimSpace(c.SASToken); sasRaw != "" {
		sas := strings.TrimPrefix(sasRaw, "?")
		cl, err := azblob.NewClientWithNoCredential(endpoint+"?"+sas, nil)
		return cl, "sas", err
	}

	// 2) Service Principal
	if c.ClientID != "" && c.ClientSecret != "" && c.TenantID != "" {
		cred, err := azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.ClientSecret, nil)
		if err != nil {
			return nil, "", err
		}
		cl, err := azblob.NewClient(endpoint, cred, nil)
		return cl, "service_principal", err
	}

	// 3) Managed Identity / DefaultAzureCredential
	defCred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, "", err
	}
	cl, err := azblob.NewClient(endpoint, defCred, nil)
	return cl, "default_credential", err
}

func init() {
	export.Register(config.ExportAzure, func(cfg any) (export.Sink, error) {
		c, ok := cfg.(config.Config)
		if !ok {
			return nil, fmt.Errorf("azure: invalid config type")
		}
		client, authMode, err := newClientFromConfig(c.Azure)
		if err != nil {
			return nil, err
		}
		// Uploads keep the default budget; RETRY_MAX_ATTEMPTS=1 only governs API calls.
		ro := c.RetryOptions()
		if ro.MaxAttempts <= 1 {
			ro.MaxAttempts = retry.Default.MaxAttempts
		}
		return &Sink{
			client:    client,
			container: c.Azure.Container,
			authMode:  authMode,
			ro:        ro,
		}, nil
	})
}
