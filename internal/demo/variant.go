package demo

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrUnknownVariant 未知的演示变体
var ErrUnknownVariant = errors.New("demo: unknown variant")

// Variant 演示对象的种类
type Variant int

const (
	// EventRaiserVariant 短生命周期事件源，处理器由长生命周期表单提供
	EventRaiserVariant Variant = iota
	// ControlSubscriberVariant 订阅长生命周期控件事件的短生命周期对象
	ControlSubscriberVariant
	// BusPublisherVariant 持有强引用发布器的短生命周期发布者
	BusPublisherVariant
	// BusSubscriberVariant 在强引用发布器上订阅的短生命周期对象
	BusSubscriberVariant
	// WeakSubscriberVariant 在弱引用聚合器上订阅的短生命周期对象
	WeakSubscriberVariant

	numVariants
)

var variantNames = [numVariants]string{
	EventRaiserVariant:       "event-raiser",
	ControlSubscriberVariant: "control-subscriber",
	BusPublisherVariant:      "bus-publisher",
	BusSubscriberVariant:     "bus-subscriber",
	WeakSubscriberVariant:    "weak-subscriber",
}

// AllVariants 返回所有变体，按展示顺序
func AllVariants() []Variant {
	vs := make([]Variant, numVariants)
	for i := range vs {
		vs[i] = Variant(i)
	}
	return vs
}

// String 返回变体名称
func (v Variant) String() string {
	if !v.Valid() {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// Valid 返回是否为已知变体
func (v Variant) Valid() bool { return v >= 0 && v < numVariants }

// Leaks 返回该变体在强制回收后是否仍然存活
func (v Variant) Leaks() bool {
	return v == ControlSubscriberVariant || v == BusSubscriberVariant
}

// ParseVariant 解析变体名称（不区分大小写）
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range variantNames {
		if n == name {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// ParseVariants 解析逗号分隔的变体列表
//
// "all" 表示全部变体；重复项只保留第一次出现。
// 所有无法解析的项合并为一个错误返回。
func ParseVariants(csv string) ([]Variant, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}

	var (
		out  []Variant
		seen [numVariants]bool
		all  bool
		errs error
	)
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "all") {
			all = true
			continue
		}
		v, err := ParseVariant(part)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if errs != nil {
		return nil, errs
	}
	if all {
		return AllVariants(), nil
	}
	return out, nil
}
