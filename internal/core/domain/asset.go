package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vulpemventures/go-elements/network"
)

// Asset is the descriptive metadata of an asset.
type Asset struct {
	ID        string
	Name      string
	Ticker    string
	Precision uint8
}

// AssetCache maps asset ids to their metadata.
type AssetCache struct {
	assets map[string]Asset
}

// NewAssetCache returns a cache where the policy asset of the given network
// is already registered.
func NewAssetCache(net *network.Network) *AssetCache {
	c := &AssetCache{assets: make(map[string]Asset)}
	c.Insert(PolicyAsset(net))
	return c
}

// PolicyAsset returns the metadata of the native asset of the network.
func PolicyAsset(net *network.Network) Asset {
	ticker := "L-BTC"
	if net.Name != network.Liquid.Name {
		ticker = "tL-BTC"
	}
	return Asset{
		ID:        net.AssetID,
		Name:      "liquid bitcoin",
		Ticker:    ticker,
		Precision: 8,
	}
}

// Insert adds or replaces the metadata of an asset.
func (c *AssetCache) Insert(asset Asset) {
	c.assets[strings.ToLower(asset.ID)] = asset
}

// Get returns the metadata of the asset identified by the given hex id.
func (c *AssetCache) Get(assetID string) (Asset, error) {
	buf, err := hex.DecodeString(assetID)
	if err != nil || len(buf) != 32 {
		return Asset{}, ErrInvalidAssetID
	}
	asset, ok := c.assets[strings.ToLower(assetID)]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}
	return asset, nil
}
