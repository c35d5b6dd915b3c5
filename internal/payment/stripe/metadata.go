package stripe

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidItemsMetadata = errors.New("invalid_items_metadata")

// MetadataItem is the compact line-item form the checkout flow stores in
// session metadata, so the webhook can validate the cart as sold even if
// the persisted order drifts.
type MetadataItem struct {
	ProductID string `json:"productId"`
	BinaryID  string `json:"binaryId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func EncodeItemsMetadata(items []MetadataItem) string {
	raw, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(raw)
}

func DecodeItemsMetadata(raw string) ([]MetadataItem, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidItemsMetadata
	}
	var items []MetadataItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, ErrInvalidItemsMetadata
	}
	if len(items) == 0 {
		return nil, ErrInvalidItemsMetadata
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" || item.Quantity <= 0 {
			return nil, ErrInvalidItemsMetadata
		}
	}
	return items, nil
}
