package esplora

import (
	"context"
	"fmt"
	"strconv"
)

func (e *esplora) GetBlockHeight(ctx context.Context) (uint32, error) {
	resp, err := e.get(ctx, fmt.Sprintf("%s/blocks/tip/height", e.apiURL))
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(resp, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid block height %q: %w", resp, err)
	}
	return uint32(height), nil
}
