package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ErrorKind 采集错误分类（送往日志与 poll_errors_total 的 reason 标签）
type ErrorKind string

const (
	KindConnectivityTimeout ErrorKind = "connectivity_timeout" // 设备不可达或等待超限
	KindProtocolError       ErrorKind = "protocol_error"       // 设备可达但应答畸形
	KindStructureError      ErrorKind = "structure_error"      // 设备已应答但缺少预期内容结构
	KindConfigurationError  ErrorKind = "configuration_error"  // 未知设备类型/未注册指标名
)

// PollError 分类后的采集错误，携带设备上下文
type PollError struct {
	Kind   ErrorKind
	Site   string
	Device string
	Err    error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("%s: poll %s/%s: %v", e.Kind, e.Site, e.Device, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

func newPollError(kind ErrorKind, site, device string, err error) *PollError {
	return &PollError{Kind: kind, Site: site, Device: device, Err: err}
}

// KindOf 提取错误分类；未分类错误按 protocol_error 计（设备有响应但行为异常）
func KindOf(err error) ErrorKind {
	var pe *PollError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindProtocolError
}

// isTimeout 网络超时判定（ctx 截止、net.Error 超时、gosnmp 的字符串超时）
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}
