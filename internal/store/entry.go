package store

import (
	"encoding/json"
	"time"
)

// Entry is one stored value with an optional absolute expiry.
// A nil Expiry means the entry never expires.
type Entry struct {
	Value  string
	Expiry *time.Time
}

// On disk the expiry is whole seconds since the Unix epoch, or null.
type entryJSON struct {
	Value string `json:"value"`
	TTL   *int64 `json:"ttl"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{Value: e.Value}
	if e.Expiry != nil {
		secs := e.Expiry.Unix()
		out.TTL = &secs
	}
	return json.Marshal(out)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var in entryJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	e.Value = in.Value
	e.Expiry = nil
	if in.TTL != nil {
		t := time.Unix(*in.TTL, 0)
		e.Expiry = &t
	}
	return nil
}

// remaining returns whole seconds until expiry, clamped at zero.
func (e Entry) remaining(now time.Time) uint64 {
	d := e.Expiry.Sub(now)
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}
