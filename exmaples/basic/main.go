package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/hestia-go/pkg/app"
	"github.com/lk2023060901/hestia-go/pkg/logger"
	"github.com/lk2023060901/hestia-go/pkg/scheduler"
	"github.com/lk2023060901/hestia-go/pkg/ticker"
)

func main() {
	a := app.NewBaseApplication("basic")
	a.SetLogger(logger.NewConsoleLogger(logger.LevelDebug))
	a.SetShutdownTimeout(5 * time.Second)

	// 心跳服务：以被追踪的后台任务驱动
	heartbeat := ticker.New(time.Second, func() {
		fmt.Println("tick")
	})

	// 调度服务：挂入生命周期后由应用统一启停
	sched, err := scheduler.New(nil, scheduler.WithLogger(logger.NewConsoleLogger(logger.LevelInfo)))
	if err != nil {
		panic(err)
	}
	defer sched.Release()

	if _, err := sched.AddFunc("report", "* * * * *", func() error {
		fmt.Println("report at", time.Now().Format(time.RFC3339))
		return nil
	}); err != nil {
		panic(err)
	}

	if err := a.Register(heartbeat); err != nil {
		panic(err)
	}
	if err := a.Register(sched); err != nil {
		panic(err)
	}

	// 阻塞运行，Ctrl+C 触发优雅关闭
	if err := a.Run(context.Background()); err != nil {
		fmt.Println("exit:", err)
	}
}
