package testutil

import (
	"context"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/config"
	"github.com/sahelpay/payd/pkg/service"
)

const (
	logChanBufferSize = 32
)

// WithContext is a decorator for GoConvey based tests
//
// It will inject a service context and a log channel, where log messages can be read from
func WithContext(f func(*service.Context, <-chan *log15.Record)) func() {
	return func() {
		logChan := make(chan *log15.Record, logChanBufferSize)
		log := log15.New()
		log.SetHandler(log15.ChannelHandler(logChan))

		baseCtx, cancel := context.WithCancel(context.Background())
		ctx := service.NewContext(baseCtx, config.DefaultConfig(), log)

		f(ctx, logChan)

		Reset(cancel)
	}
}
