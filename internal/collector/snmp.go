package collector

import (
	"context"
	"fmt"

	"github.com/gosnmp/gosnmp"

	"github.com/site-exporter/internal/inventory"
	"github.com/site-exporter/pkg/config"
)

// SNMPCollector SNMP v2c 查询采集器：对设备发起一次批量 Get，
// 按请求顺序把 OID 声明名和返回值配对。套接字 attempt 级持有，用完即关
type SNMPCollector struct {
	name string
	cfg  config.SNMPConfig
	oids []config.OIDConfig
}

// NewSNMPCollector 创建 SNMP 采集器（oids 为该设备类型的固定有序对象表）
func NewSNMPCollector(cfg config.SNMPConfig, oids []config.OIDConfig) *SNMPCollector {
	return &SNMPCollector{
		name: "snmp-collector",
		cfg:  cfg,
		oids: oids,
	}
}

func (c *SNMPCollector) Name() string {
	return c.name
}

func (c *SNMPCollector) Kind() inventory.DeviceKind {
	return inventory.KindSNMP
}

// Collect 一次批量 Get 请求固定 OID 表。传输/协议失败返回分类错误且零字段，
// 不回传半截列表；单个对象无值（Null/NoSuchObject）仅跳过该对象
func (c *SNMPCollector) Collect(ctx context.Context, device inventory.Device, site string) ([]Field, error) {
	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             device.Address,
		Port:               c.cfg.Port,
		Community:          c.cfg.Community,
		Version:            gosnmp.Version2c,
		Timeout:            c.cfg.Timeout,
		Retries:            c.cfg.Retries,
		MaxOids:            gosnmp.MaxOids,
		ExponentialTimeout: true,
	}

	if err := client.Connect(); err != nil {
		return nil, newPollError(KindConnectivityTimeout, site, device.Name, err)
	}
	defer func() {
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}()

	oids := make([]string, len(c.oids))
	for i, o := range c.oids {
		oids[i] = o.OID
	}

	result, err := client.Get(oids)
	if err != nil {
		// 重试耗尽的超时与其它传输失败都归为不可达
		if isTimeout(err) {
			return nil, newPollError(KindConnectivityTimeout, site, device.Name, err)
		}
		return nil, newPollError(KindProtocolError, site, device.Name, err)
	}
	if result.Error != gosnmp.NoError {
		return nil, newPollError(KindProtocolError, site, device.Name,
			fmt.Errorf("snmp error status %v (index %d)", result.Error, result.ErrorIndex))
	}

	return pairVariables(c.oids, result.Variables), nil
}

// pairVariables 应答按请求顺序逐位与声明名配对；无值对象整体跳过，不产生占位
func pairVariables(oids []config.OIDConfig, vars []gosnmp.SnmpPDU) []Field {
	fields := make([]Field, 0, len(vars))
	for i, v := range vars {
		if i >= len(oids) {
			break
		}
		switch v.Type {
		case gosnmp.Null, gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
			continue
		}
		fields = append(fields, Field{Name: oids[i].Name, Text: pduText(v)})
	}
	return fields
}

// pduText SNMP 值转文本，数值提取交给归一化层统一处理
func pduText(v gosnmp.SnmpPDU) string {
	switch v.Type {
	case gosnmp.OctetString:
		if b, ok := v.Value.([]byte); ok {
			return string(b)
		}
		return fmt.Sprintf("%v", v.Value)
	case gosnmp.OpaqueFloat:
		return fmt.Sprintf("%v", v.Value)
	case gosnmp.OpaqueDouble:
		return fmt.Sprintf("%v", v.Value)
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		if s, ok := v.Value.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v.Value)
	default:
		return gosnmp.ToBigInt(v.Value).String()
	}
}
