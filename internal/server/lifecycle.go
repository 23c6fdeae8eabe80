package server

import "sync"

// ShutdownHooks 是交给缓存协调器的宿主生命周期句柄：回调在进程收到退出
// 信号后统一触发。Fire 只会执行一轮，宿主从多条路径重复触发是安全的。
type ShutdownHooks struct {
	mu    sync.Mutex
	fired bool
	hooks []func()
}

// OnShutdown 注册一个退出回调。已经触发过之后注册的回调立即执行，
// 避免晚注册的清理被悄悄丢掉。
func (s *ShutdownHooks) OnShutdown(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	fired := s.fired
	if !fired {
		s.hooks = append(s.hooks, fn)
	}
	s.mu.Unlock()

	if fired {
		fn()
	}
}

// Fire 按注册顺序执行全部回调，幂等。
func (s *ShutdownHooks) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
