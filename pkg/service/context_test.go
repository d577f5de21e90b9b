package service

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/config"
)

func TestServiceContext(t *testing.T) {
	Convey("Given a new service context", t, func() {
		log := log15.New()
		log.SetHandler(log15.DiscardHandler())
		cfg := config.DefaultConfig()
		ctx := NewContext(context.Background(), cfg, log)

		Convey("It should expose the config and logger", func() {
			So(ctx.Config().API.Service.Address, ShouldEqual, cfg.API.Service.Address)
			So(ctx.Log(), ShouldNotBeNil)
			So(ctx.Value("cfg"), ShouldNotBeNil)
			So(ctx.Value("log"), ShouldNotBeNil)
		})

		Convey("When deriving a context with a value", func() {
			derived := ctx.WithValue("answer", 42)

			Convey("The derived context should carry the value and the services", func() {
				So(derived.Value("answer"), ShouldEqual, 42)
				So(derived.Config(), ShouldNotBeNil)
				So(derived.Log(), ShouldNotBeNil)
			})
		})

		Convey("When no read-only DB connection is set", func() {
			Convey("Requesting a read-only connection should fall back to the write connection", func() {
				So(ctx.PaymentDB(ReadOnly), ShouldEqual, ctx.PaymentDB())
			})
		})
	})
}
