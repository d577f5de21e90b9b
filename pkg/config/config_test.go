package config

import (
	"bytes"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReadConfig(t *testing.T) {
	Convey("Given a config", t, func() {
		buf := bytes.NewBuffer(nil)

		Convey("When the config Reader content is erroneous", func() {
			buf.WriteString("feeffefefe")
			_, err := ReadConfig(buf)

			Convey("The ReadConfig method should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a default config is written and read back", func() {
			err := WriteConfig(buf, DefaultConfig())
			So(err, ShouldBeNil)

			cfg, err := ReadConfig(buf)

			Convey("The round trip should preserve the config", func() {
				So(err, ShouldBeNil)
				So(cfg.API.Service.Address, ShouldEqual, ":8080")
				So(cfg.Payment.PollMaxAttempts, ShouldEqual, 100)
			})

			Convey("The duration fields should parse", func() {
				d, err := cfg.Payment.PollInterval.Duration()
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 5*time.Second)

				d, err = cfg.Payment.PollMaxInterval.Duration()
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 30*time.Second)
			})
		})
	})
}
