package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/hestia-go/pkg/logger"
	"github.com/lk2023060901/hestia-go/pkg/service"
)

var (
	errNilService       = errors.New("app: service is nil")
	errEmptyGroup       = errors.New("app: group is empty")
	errRegisterLocked   = errors.New("app: register is locked after start")
	errApplicationAlive = errors.New("app: application already started")
	errConfigLocked     = errors.New("app: config is locked after start")
)

// Application 定义应用的生命周期与注册入口。
// 应用本身是一个根服务节点：注册的服务构成它的依赖分组，
// 由生命周期协议统一启动、停止并汇聚后台任务失败。
type Application interface {
	// Name 返回应用名称，用于标识当前应用实例。
	Name() string

	// Register 注册一个服务，独占一个串行分组。
	Register(s service.Service) error

	// RegisterGroup 注册一个并行分组，组内服务并行启动与停止。
	RegisterGroup(group service.Group) error

	// Start 启动应用及其所有注册服务。
	Start(ctx context.Context) error

	// Run 启动应用并阻塞运行，直到收到退出信号、上下文取消
	// 或某个服务的后台任务失败。
	Run(ctx context.Context) error

	// Shutdown 触发应用的优雅关闭流程，只生效一次。
	Shutdown(ctx context.Context) error

	// Stop 停止应用及其所有注册服务。
	Stop(ctx context.Context) error

	// Running 返回应用当前是否处于运行状态。
	Running() bool

	// Groups 返回已注册的服务分组。
	Groups() []service.Group
}

// BaseApplication 提供 Application 的基础实现。
type BaseApplication struct {
	name string
	root *rootService

	mu         sync.RWMutex
	groups     []service.Group
	configPath string
	starting   bool
	started    bool
	timeout    time.Duration

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	shutdownErr  error
}

// rootService 是应用的根服务节点，其依赖分组即注册的服务。
type rootService struct {
	service.Base
	app *BaseApplication
}

func (r *rootService) Dependencies() []service.Group {
	return r.app.Groups()
}

func (r *rootService) GracefulShutdownTimeout() time.Duration {
	r.app.mu.RLock()
	defer r.app.mu.RUnlock()
	if r.app.timeout > 0 {
		return r.app.timeout
	}
	return service.DefaultGracefulShutdownTimeout
}

// NewBaseApplication 创建一个基础应用实例。
func NewBaseApplication(name string) *BaseApplication {
	a := &BaseApplication{
		name:       name,
		shutdownCh: make(chan struct{}),
	}
	a.root = &rootService{app: a}
	return a
}

// Name 返回应用名称，用于标识当前应用实例。
func (a *BaseApplication) Name() string {
	return a.name
}

// Register 注册一个服务，独占一个串行分组。
func (a *BaseApplication) Register(s service.Service) error {
	if s == nil {
		return errNilService
	}
	return a.RegisterGroup(service.Group{s})
}

// RegisterGroup 注册一个并行分组，组内服务并行启动与停止。
func (a *BaseApplication) RegisterGroup(group service.Group) error {
	if len(group) == 0 {
		return errEmptyGroup
	}
	for _, s := range group {
		if s == nil {
			return errNilService
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.starting || a.started {
		return errRegisterLocked
	}
	a.groups = append(a.groups, group)
	return nil
}

// SetConfigPath 设置应用配置文件路径，需在 Start 前调用。
func (a *BaseApplication) SetConfigPath(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.starting || a.started {
		return errConfigLocked
	}
	a.configPath = path
	return nil
}

// SetLogger 设置应用根节点使用的日志记录器。
func (a *BaseApplication) SetLogger(l logger.Logger) {
	a.root.SetLogger(l)
}

// SetShutdownTimeout 设置应用的优雅关闭超时时间。
func (a *BaseApplication) SetShutdownTimeout(d time.Duration) {
	a.mu.Lock()
	a.timeout = d
	a.mu.Unlock()
}

// Start 启动应用及其所有注册服务。
func (a *BaseApplication) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	if a.starting {
		a.mu.Unlock()
		return errApplicationAlive
	}
	a.starting = true
	configPath := a.configPath
	a.mu.Unlock()

	finish := func(err error) error {
		a.mu.Lock()
		a.starting = false
		a.started = err == nil
		a.mu.Unlock()
		return err
	}

	if err := a.applyConfig(configPath); err != nil {
		return finish(err)
	}
	return finish(service.Start(ctx, a.root))
}

// Run 启动应用并阻塞运行，直到收到退出信号、上下文取消
// 或某个服务的后台任务失败。
func (a *BaseApplication) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- service.Wait(context.Background(), a.root)
	}()

	select {
	case <-ctx.Done():
		_ = a.Shutdown(context.Background())
		return ctx.Err()
	case <-sigCh:
		_ = a.Shutdown(context.Background())
		return a.shutdownError()
	case err := <-waitCh:
		if shutdownErr := a.Shutdown(context.Background()); err == nil {
			err = shutdownErr
		}
		return err
	case <-a.shutdownCh:
		return a.shutdownError()
	}
}

// Shutdown 触发应用的优雅关闭流程，只生效一次。
func (a *BaseApplication) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		err := a.Stop(ctx)
		a.mu.Lock()
		a.shutdownErr = err
		a.mu.Unlock()
		close(a.shutdownCh)
	})
	return a.shutdownError()
}

// Stop 停止应用及其所有注册服务。
func (a *BaseApplication) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	err := service.Stop(ctx, a.root)

	a.mu.Lock()
	a.started = false
	a.mu.Unlock()
	return err
}

// Running 返回应用当前是否处于运行状态。
func (a *BaseApplication) Running() bool {
	return a.root.Running()
}

// Groups 返回已注册的服务分组。
func (a *BaseApplication) Groups() []service.Group {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]service.Group(nil), a.groups...)
}

func (a *BaseApplication) shutdownError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.shutdownErr
}
