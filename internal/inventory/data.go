package inventory

import "github.com/gravitas-games/stockpile/pkg/models"

// UpsertData merges data into a copy of the item's payload. Keys present in
// data overwrite existing ones.
func UpsertData(item models.StoredItem, data map[string]any) models.StoredItem {
	out := item.Clone()
	if out.Data == nil {
		out.Data = make(map[string]any, len(data))
	}
	for k, v := range models.CloneData(data) {
		out.Data[k] = v
	}
	return out
}

// SetData replaces the item's payload with a copy of data.
func SetData(item models.StoredItem, data map[string]any) models.StoredItem {
	out := item.Clone()
	out.Data = models.CloneData(data)
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	return out
}

// ClearData empties the item's payload.
func ClearData(item models.StoredItem) models.StoredItem {
	out := item.Clone()
	out.Data = map[string]any{}
	return out
}
