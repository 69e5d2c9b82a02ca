package article

import (
	"encoding/json"
	"time"
)

const StorageTimeLayout = "2006-01-02 15:04:05"

// Published is a best-effort publication date: either a parsed instant or
// the raw string the source supplied when no structured value was usable.
type Published struct {
	Time *time.Time
	Raw  string
}

func PublishedAt(t time.Time) Published {
	utc := t.UTC()
	return Published{Time: &utc}
}

func PublishedRaw(raw string) Published {
	return Published{Raw: raw}
}

func (p Published) IsZero() bool {
	return p.Time == nil && p.Raw == ""
}

// StorageValue returns the column value; nil when there is no date.
func (p Published) StorageValue() any {
	if p.Time != nil {
		return p.Time.UTC().Format(StorageTimeLayout)
	}
	if p.Raw != "" {
		return p.Raw
	}
	return nil
}

// ParseStored reverses StorageValue. Values that do not match the storage
// layout are kept raw.
func ParseStored(v string) Published {
	if v == "" {
		return Published{}
	}
	if t, err := time.ParseInLocation(StorageTimeLayout, v, time.UTC); err == nil {
		return Published{Time: &t}
	}
	return Published{Raw: v}
}

func (p Published) String() string {
	if p.Time != nil {
		return p.Time.UTC().Format(time.RFC3339)
	}
	return p.Raw
}

func (p Published) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

func (p *Published) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*p = Published{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		*p = PublishedAt(t)
		return nil
	}
	*p = ParseStored(*s)
	return nil
}
