package demo

import "sync"

// Control 长生命周期的文本控件
//
// 订阅 TextChanged 的处理器由控件强引用，控件存活多久处理器就存活多久。
type Control struct {
	mu       sync.Mutex
	text     string
	handlers []func(*Control)
}

// Text 返回当前文本
func (c *Control) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// SetText 设置文本并通知所有 TextChanged 处理器，返回通知数量
//
// 文本未变化时不通知。
func (c *Control) SetText(text string) int {
	c.mu.Lock()
	if c.text == text {
		c.mu.Unlock()
		return 0
	}
	c.text = text
	handlers := c.handlers
	c.mu.Unlock()

	for _, h := range handlers {
		h(c)
	}
	return len(handlers)
}

// OnTextChanged 追加 TextChanged 处理器
func (c *Control) OnTextChanged(h func(*Control)) {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

// HandlerCount 返回处理器数量
func (c *Control) HandlerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Form 演示窗体：一个标题加一个文本控件，生命周期与 Harness 相同
type Form struct {
	mu    sync.RWMutex
	title string

	// Text 窗体的文本控件
	Text *Control
}

// NewForm 创建窗体
func NewForm(title string) *Form {
	return &Form{title: title, Text: &Control{}}
}

// Title 返回标题
func (f *Form) Title() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.title
}

// SetTitle 设置标题
func (f *Form) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}
