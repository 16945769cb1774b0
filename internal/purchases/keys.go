package purchases

import (
	"encoding/json"

	"gamekey-bot/internal/market"
)

type keyRecord struct {
	Serial string `json:"serial"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// EncodeKeys serializes delivered keys into the form stored on the purchase
// row. Immutable once written.
func EncodeKeys(keys []market.OrderKey) (string, error) {
	recs := make([]keyRecord, 0, len(keys))
	for _, k := range keys {
		recs = append(recs, keyRecord{Serial: k.Serial, Name: k.Name, Type: k.Type})
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeKeys parses the stored key list back into key values.
func DecodeKeys(s string) ([]market.OrderKey, error) {
	if s == "" {
		return nil, nil
	}
	var recs []keyRecord
	if err := json.Unmarshal([]byte(s), &recs); err != nil {
		return nil, err
	}
	out := make([]market.OrderKey, 0, len(recs))
	for _, r := range recs {
		out = append(out, market.OrderKey{Serial: r.Serial, Name: r.Name, Type: r.Type})
	}
	return out, nil
}
