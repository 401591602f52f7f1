package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 是可以用 JSON 字符串表示的 time.Duration
//
// 接受 "1s"、"250ms" 这样的字符串，也接受纳秒整数；
// 序列化时总是输出字符串。
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler 接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration string %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(int64(v))
	default:
		return fmt.Errorf("duration must be a string or nanoseconds, got %s", data)
	}
	return nil
}

// MarshalJSON 实现 json.Marshaler 接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Duration 返回底层的 time.Duration 值
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// String 返回字符串表示
func (d Duration) String() string { return time.Duration(d).String() }
