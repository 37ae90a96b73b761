package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Validate HTTP服务配置校验
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	// 	校验Addr格式(必须是 ":port" 或 "ip:port")
	if h.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	// 	用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}

// Validate 轮询配置校验
func (p *PollerConfig) Validate() error {
	if err := valid.Struct(p); err != nil {
		return err
	}
	if p.Interval < time.Second || p.Interval > 3600*time.Second {
		return fmt.Errorf("poller.interval must be between 1 and 3600 seconds, got %s", p.Interval)
	}
	if err := p.Scrape.validate(); err != nil {
		return err
	}
	if err := p.SNMP.validate(); err != nil {
		return err
	}
	return nil
}

func (s *ScrapeConfig) validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	// 	等待上限过短会把慢链路全部判成超时，过长会拖垮整轮周期
	if s.WaitCeiling < 5*time.Second || s.WaitCeiling > 10*time.Minute {
		return fmt.Errorf("poller.scrape.wait_ceiling must be between 5s and 10m, got %s", s.WaitCeiling)
	}
	return nil
}

func (s *SNMPConfig) validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	// 	总耗时上限 = timeout × (retries+1)，不能超过渲染采集的量级
	total := s.Timeout * time.Duration(s.Retries+1)
	if total > 10*time.Minute {
		return fmt.Errorf("poller.snmp timeout*(retries+1) must not exceed 10m, got %s", total)
	}
	return nil
}
