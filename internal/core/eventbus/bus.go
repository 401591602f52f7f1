// Package eventbus 实现强引用事件发布器
package eventbus

import (
	"errors"
	"reflect"
	"sync"

	pkgif "github.com/dep2p/go-leaklab/pkg/interfaces"
	"github.com/dep2p/go-leaklab/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("channel requested with non-pointer type")
	// ErrNilHandler 订阅回调为空
	ErrNilHandler = errors.New("subscribe called with nil handler")
)

// ============================================================================
// Publisher 实现
// ============================================================================

// Publisher 强引用事件发布器
//
// 按事件类型维护广播通道。通道在首次访问时创建并永久保留，
// 挂在通道上的订阅者因此与 Publisher 同寿命。
type Publisher struct {
	mu sync.RWMutex

	// channels 事件类型 → 广播通道
	channels map[reflect.Type]*Channel
}

// NewPublisher 创建新的发布器
func NewPublisher() *Publisher {
	return &Publisher{
		channels: make(map[reflect.Type]*Channel),
	}
}

// ============================================================================
// EventPublisher 接口实现
// ============================================================================

// Channel 返回（必要时创建）指定类型的广播通道
func (p *Publisher) Channel(eventType interface{}) (pkgif.Channel, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}
	return p.channelFor(typ), nil
}

// Publish 按事件的动态类型投递
//
// 该类型尚无通道时为空操作。
func (p *Publisher) Publish(event interface{}) error {
	if event == nil {
		return ErrInvalidEventType
	}
	p.publish(reflect.TypeOf(event), event)
	return nil
}

// GetAllEventTypes 返回所有已创建通道的事件类型
func (p *Publisher) GetAllEventTypes() []interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	types := make([]interface{}, 0, len(p.channels))
	for typ := range p.channels {
		// 返回零值实例
		types = append(types, reflect.Zero(typ).Interface())
	}
	return types
}

// ============================================================================
// 内部方法
// ============================================================================

// channelFor 获取或创建通道，同一类型只创建一次
func (p *Publisher) channelFor(typ reflect.Type) *Channel {
	p.mu.RLock()
	c, ok := p.channels[typ]
	p.mu.RUnlock()
	if ok {
		return c
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.channels[typ]; ok {
		return c
	}
	c = newChannel(typ)
	p.channels[typ] = c
	logger.Debug("创建广播通道", "type", typ)
	return c
}

// lookup 查找通道，不创建
func (p *Publisher) lookup(typ reflect.Type) (*Channel, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.channels[typ]
	return c, ok
}

func (p *Publisher) publish(typ reflect.Type, event interface{}) {
	c, ok := p.lookup(typ)
	if !ok {
		return
	}
	c.emit(event)
}

// elemType 从类型令牌（如 new(T)）中取出 T
func elemType(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}
