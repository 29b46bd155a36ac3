package cache

import "encoding/json"

// Decode loads key into dst. The memory backend hands back the stored Go
// value and the Redis backend hands back generic JSON, so both go through a
// JSON round trip into dst.
func Decode(c Cache, key string, dst interface{}) bool {
	if c == nil {
		return false
	}

	cached, ok := c.Get(key)
	if !ok || cached == nil {
		return false
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
