/*
swipekit 是个性化排序引擎的命令行工具，用于本地调试画像、feed 与兼容度。

用法：

	swipekit [command]

命令：

	record   记录一次 like/pass/save
	feed     获取一页 feed
	compat   计算两个用户的兼容度
	profile  查看用户画像或偏好排行
	reset    重置用户画像
	blacklist 覆盖黑名单
	config   打印生效的配置

示例：

	swipekit --config swipekit.yaml record alice i1 like
	swipekit --config swipekit.yaml feed alice --size 10 --category Activewear
*/
package main

import (
	"fmt"
	"os"

	"github.com/rushteam/swipekit/internal/cli"
)

// 由 ldflags 注入
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s)", version, commit))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
