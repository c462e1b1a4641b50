package qtensor

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewChannel(t *testing.T) {
	Convey("Given channel probabilities", t, func() {
		Convey("When they sum to at most one", func() {
			ch, err := PauliNoiseChannel(0, 0.1, 0, 0.2)

			Convey("Then zero terms are dropped and the sum is kept", func() {
				So(err, ShouldBeNil)
				So(ch.Kind(), ShouldEqual, MixtureChannel)
				So(len(ch.Gates()), ShouldEqual, 2)
				So(ch.CoefficientSum(), ShouldAlmostEqual, 0.3, tol)
			})
		})

		Convey("When they exceed one", func() {
			_, err := NewChannel("bad", ChannelTerm{0.7, X(0)}, ChannelTerm{0.7, Z(0)})

			Convey("Then it is a configuration error", func() {
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When a relaxation time is inconsistent", func() {
			_, err := NewThermalRelaxationChannel(0, 1, 3, 1, 0)

			Convey("Then it is a configuration error", func() {
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			})
		})
	})
}

func TestApplyChannel(t *testing.T) {
	Convey("Given a state vector", t, func() {
		b := newTestBackend()

		Convey("When a channel certainly applies X", func() {
			ch, _ := NewChannel("flip", ChannelTerm{1, X(0)})
			state, err := b.ApplyChannel(ch, b.ZeroState(1), 1)

			Convey("Then the qubit is flipped", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, []complex128{0, 1})
			})
		})

		Convey("When a channel never applies", func() {
			ch, _ := NewChannel("idle", ChannelTerm{0, X(0)})
			state, err := b.ApplyChannel(ch, b.ZeroState(1), 1)

			Convey("Then the state is unchanged", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, []complex128{1, 0})
			})
		})

		Convey("When a reset certainly sends the qubit to |0>", func() {
			ch, _ := NewResetChannel(1, 1, 0)
			state, err := b.ApplyChannel(ch, basis(3, 2), 2)

			Convey("Then only the target is reset", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(2, 2))
			})
		})

		Convey("When a reset certainly sends the qubit to |1>", func() {
			ch, _ := NewResetChannel(0, 0, 1)
			state, err := b.ApplyChannel(ch, b.ZeroState(1), 1)

			Convey("Then the qubit ends up in |1>", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, []complex128{0, 1})
			})
		})

		Convey("When applying thermal relaxation", func() {
			ch, _ := NewThermalRelaxationChannel(0, 1, 1, 1, 0)
			_, err := b.ApplyChannel(ch, b.ZeroState(1), 1)

			Convey("Then it is unsupported", func() {
				So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
			})
		})
	})
}

func TestApplyChannelDensityMatrix(t *testing.T) {
	Convey("Given a density matrix", t, func() {
		b := newTestBackend()

		Convey("When applying bit-flip noise", func() {
			ch, _ := PauliNoiseChannel(0, 0.3, 0, 0)
			rho, err := b.ApplyChannelDensityMatrix(ch, b.ZeroDensityMatrix(1), 1)

			Convey("Then the populations are mixed", func() {
				So(err, ShouldBeNil)
				So(rho, ShouldBeAllClose, []complex128{0.7, 0, 0, 0.3})
			})
		})

		Convey("When applying Pauli noise to an entangled state", func() {
			bell := outer(applyAll(b, b.ZeroState(2), 2, H(0), CNOT(0, 1)))
			ch, _ := PauliNoiseChannel(1, 0.1, 0.2, 0.3)
			rho, err := b.ApplyChannelDensityMatrix(ch, bell, 2)

			Convey("Then the trace is preserved", func() {
				So(err, ShouldBeNil)
				So(real(rho.Trace()), ShouldAlmostEqual, 1, tol)
				So(rho.IsHermitian(tol), ShouldBeTrue)
			})
		})

		Convey("When resetting one qubit of |11>", func() {
			ch, _ := NewResetChannel(1, 0.5, 0)
			rho, err := b.ApplyChannelDensityMatrix(ch, outer(basis(3, 2)), 2)

			Convey("Then half the weight moves to |10>", func() {
				So(err, ShouldBeNil)

				want := NewDense(4, 4, nil)
				want.Set(2, 2, 0.5)
				want.Set(3, 3, 0.5)
				So(rho, ShouldBeAllClose, want)
			})
		})

		Convey("When resetting toward |1>", func() {
			ch, _ := NewResetChannel(0, 0.25, 0.75)
			rho, err := b.ResetErrorDensityMatrix(ch, b.ZeroDensityMatrix(1), 1)

			Convey("Then the populations follow p0 and p1", func() {
				So(err, ShouldBeNil)
				So(rho, ShouldBeAllClose, []complex128{0.25, 0, 0, 0.75})
			})
		})

		Convey("When a qubit fully relaxes", func() {
			ch, _ := NewThermalRelaxationChannel(0, 1, 1, 1e9, 0)
			rho, err := b.ApplyChannelDensityMatrix(ch, outer(basis(1, 1)), 1)

			Convey("Then it decays to the ground state", func() {
				So(err, ShouldBeNil)
				So(rho, ShouldBeAllClose, []complex128{1, 0, 0, 0})
			})
		})

		Convey("When a superposition partially relaxes", func() {
			psi := applyAll(b, b.ZeroState(2), 2, H(0), H(1))
			ch, _ := NewThermalRelaxationChannel(1, 2, 1, 0.5, 0.1)
			rho, err := b.ApplyChannelDensityMatrix(ch, outer(psi), 2)

			Convey("Then the trace is preserved and coherences shrink", func() {
				So(err, ShouldBeNil)
				So(real(rho.Trace()), ShouldAlmostEqual, 1, tol)
				So(real(rho.At(0, 1)), ShouldBeLessThan, 0.25)
			})
		})

		Convey("When passing a mixture to the thermal routine", func() {
			ch, _ := PauliNoiseChannel(0, 0.1, 0, 0)
			_, err := b.ThermalErrorDensityMatrix(ch, b.ZeroDensityMatrix(1), 1)

			Convey("Then it is unsupported", func() {
				So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
			})
		})
	})
}
