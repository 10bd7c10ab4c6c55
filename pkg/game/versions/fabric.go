package versions

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"arvenne.fr/craftlaunch/pkg/game/shared"
)

// LoaderVersion is one entry of the fabric loader catalogue, newest
// first.
type LoaderVersion struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

// FabricClient talks to the fabric meta service for loader versions and
// loader profile manifests.
type FabricClient struct {
	client *resty.Client
}

func NewFabricClient(baseURL ...string) *FabricClient {
	base := shared.FabricMetaURL
	if len(baseURL) > 0 {
		base = baseURL[0]
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "craftlaunch")
	return &FabricClient{client: client}
}

func (c *FabricClient) LoaderVersions(ctx context.Context) ([]LoaderVersion, error) {
	var list []LoaderVersion
	resp, err := c.client.R().SetContext(ctx).SetResult(&list).Get("/versions/loader")
	if err != nil {
		return nil, fmt.Errorf("failed to list loader versions: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to list loader versions: status %s", resp.Status())
	}
	return list, nil
}

// LatestStableLoader picks the newest stable entry of the catalogue.
func (c *FabricClient) LatestStableLoader(ctx context.Context) (string, error) {
	list, err := c.LoaderVersions(ctx)
	if err != nil {
		return "", err
	}
	for _, lv := range list {
		if lv.Stable {
			return lv.Version, nil
		}
	}
	return "", fmt.Errorf("no stable loader version published")
}

// ProfileURL is where the launcher profile manifest for one loader+base
// pair lives.
func (c *FabricClient) ProfileURL(baseID string, loaderVersion string) string {
	return fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", c.client.BaseURL, baseID, loaderVersion)
}
