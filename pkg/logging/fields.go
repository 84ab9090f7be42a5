package logging

import (
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"go.uber.org/zap"
)

const unitKey = "unit"

func UnitField(name string) zap.Field {
	return zap.String(unitKey, name)
}

func ResourceField(id construct.ResourceId) zap.Field {
	return zap.Stringer("resource", id)
}

func PathField(path string) zap.Field {
	return zap.String("path", path)
}
