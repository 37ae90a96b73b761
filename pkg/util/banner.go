package util

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
)

// ANSI 颜色常量
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

// PrintBanner 启动时打印统一着色的 ASCII banner
func PrintBanner(text string, ansiColor string) {
	fig := figure.NewFigure(text, "", true)
	for _, line := range fig.Slicify() {
		fmt.Println(ansiColor + line + ColorReset)
	}
}
