package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ResolveFields 提供请求解析日志的公共字段，source 为 filesystem 或 cache。
func ResolveFields(virtualPath, physicalPath, source string) logrus.Fields {
	return logrus.Fields{
		"virtual_path":  virtualPath,
		"physical_path": physicalPath,
		"source":        source,
	}
}
