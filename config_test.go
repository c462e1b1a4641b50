package qtensor

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given an empty viper instance", t, func() {
		config, err := LoadConfig(viper.New())

		Convey("Then the defaults are used", func() {
			So(err, ShouldBeNil)
			So(config, ShouldResemble, NewConfig())
		})
	})

	Convey("Given a YAML configuration", t, func() {
		v := viper.New()
		v.SetConfigType("yaml")
		err := v.ReadConfig(strings.NewReader(`
dtype: complex64
shot_batch_size: 1024
symbolic:
  decimals: 3
  max_terms: 4
`))
		So(err, ShouldBeNil)

		Convey("When loading it", func() {
			config, err := LoadConfig(v)

			Convey("Then the given keys override the defaults", func() {
				So(err, ShouldBeNil)
				So(config.Dtype, ShouldEqual, Complex64)
				So(config.ShotBatchSize, ShouldEqual, 1024)
				So(config.SymbolicDecimals, ShouldEqual, 3)
				So(config.SymbolicMaxTerms, ShouldEqual, 4)
				So(config.SymbolicCutoff, ShouldEqual, 1e-10)
				So(config.Device, ShouldEqual, CPUDevice)
			})

			Convey("Then a backend can run on it", func() {
				b, err := NewBackend(WithConfig(config))
				So(err, ShouldBeNil)
				So(b.Dtype(), ShouldEqual, Complex64)
			})
		})
	})

	Convey("Given settings the engine cannot honor", t, func() {
		Convey("When the dtype is unknown", func() {
			v := viper.New()
			v.Set("dtype", "float16")
			_, err := LoadConfig(v)

			Convey("Then it is a configuration error", func() {
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the symbolic term limit is negative", func() {
			v := viper.New()
			v.Set("symbolic.max_terms", -1)
			_, err := LoadConfig(v)

			Convey("Then it is a configuration error", func() {
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When more threads are requested", func() {
			v := viper.New()
			v.Set("threads", 8)
			_, err := LoadConfig(v)

			Convey("Then it is a configuration error", func() {
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			})
		})
	})
}
