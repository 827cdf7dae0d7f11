// Copyright 2016 Aleksandr Demakin. All rights reserved.

package interprocess

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger sets the logger used by the library. By default nothing is logged.
// Passing nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Logger returns the library logger.
func Logger() *zap.Logger {
	return logger.Load()
}
