package store

import (
	"encoding/json"
	"fmt"
)

// MergeJSON overlays patch onto base. Objects merge key by key, recursively;
// any other value in patch replaces the one in base. Keys absent from
// patch keep their base value. A null or empty base yields patch.
func MergeJSON(base, patch json.RawMessage) (json.RawMessage, error) {
	if len(base) == 0 || string(base) == "null" {
		return patch, nil
	}
	if len(patch) == 0 {
		return base, nil
	}

	var b, p any
	if err := json.Unmarshal(base, &b); err != nil {
		return nil, fmt.Errorf("decode base document: %w", err)
	}
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, fmt.Errorf("decode patch document: %w", err)
	}

	out, err := json.Marshal(mergeValue(b, p))
	if err != nil {
		return nil, fmt.Errorf("encode merged document: %w", err)
	}
	return out, nil
}

func mergeValue(base, patch any) any {
	bm, ok := base.(map[string]any)
	if !ok {
		return patch
	}
	pm, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	for k, v := range pm {
		if existing, ok := bm[k]; ok {
			bm[k] = mergeValue(existing, v)
		} else {
			bm[k] = v
		}
	}
	return bm
}
