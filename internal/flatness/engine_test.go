package flatness_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/flatness"
)

var identity = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func mustField(lines ...string) *field.Field {
	f, err := field.Parse(lines)
	Expect(err).NotTo(HaveOccurred())
	return f
}

func mustEngine(f *field.Field, mass float64, inertia [3][3]float64, opts ...flatness.Option) *flatness.Engine {
	eng, err := flatness.NewEngine(f, flatness.NewVehicleParameters(mass, inertia), opts...)
	Expect(err).NotTo(HaveOccurred())
	return eng
}

func writeField(dir, name string, lines ...string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Engine", func() {
	Context("with a constant field", func() {
		It("hovers at the origin", func() {
			eng := mustEngine(mustField("0"), 2, identity)

			in, st, err := eng.Update(0, 0, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Thrust).To(BeNumerically("~", 19.6, 1e-9))
			Expect(in.TorqueX).To(BeNumerically("~", 0, 1e-12))
			Expect(in.TorqueY).To(BeNumerically("~", 0, 1e-12))
			Expect(in.TorqueZ).To(BeNumerically("~", 0, 1e-12))
			for _, v := range st.Vector() {
				Expect(v).To(BeNumerically("~", 0, 1e-12))
			}
		})

		It("ignores the pinned axes of a single component field", func() {
			eng := mustEngine(mustField("0.5*x + y"), 1.5, identity)

			in, st, err := eng.Update(2, 7, -3, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.X).To(Equal(2.0))
			Expect(st.Y).To(BeZero())
			Expect(st.Z).To(BeZero())
			Expect(st.Psi).To(BeZero())
			Expect(st.VX).To(BeNumerically("~", 1, 1e-12))
			Expect(in.Thrust).To(BeNumerically("~", 1.5*math.Hypot(0.5, 9.8), 1e-9))
			for _, v := range in.Vector() {
				Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse())
			}
		})

		It("reproduces the constant velocity scenario", func() {
			eng := mustEngine(mustField("2", "-1", "0"), 2, identity)

			in, st, err := eng.Update(-1, -2, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.X).To(Equal(-1.0))
			Expect(st.Y).To(Equal(-2.0))
			Expect(st.VX).To(BeNumerically("~", 2, 1e-12))
			Expect(st.VY).To(BeNumerically("~", -1, 1e-12))
			Expect(st.VZ).To(BeNumerically("~", 0, 1e-12))
			Expect(st.Phi).To(BeNumerically("~", 0, 1e-12))
			Expect(st.Theta).To(BeNumerically("~", 0, 1e-12))
			Expect(in.Thrust).To(BeNumerically("~", 19.6, 1e-9))
			Expect(in.TorqueX).To(BeNumerically("~", 0, 1e-9))
			Expect(in.TorqueY).To(BeNumerically("~", 0, 1e-9))
			Expect(in.TorqueZ).To(BeNumerically("~", 0, 1e-9))
		})
	})

	Context("with a singular configuration", func() {
		It("reports a domain error when vertical acceleration equals gravity", func() {
			eng := mustEngine(mustField("0", "0", "z"), 1, identity)

			in, _, err := eng.Update(0, 0, 9.8, 0)
			Expect(err).To(MatchError(flatness.ErrDomain))
			var de *flatness.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Quantity).To(Equal("bb"))
			Expect(in).To(Equal(flatness.InputRecord{}))

			_, _, err = eng.Update(0, 0, 1, 0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports field domain failures as domain errors", func() {
			eng := mustEngine(mustField("log(x)"), 1, identity)
			_, _, err := eng.Update(-1, 0, 0, 0)
			Expect(err).To(MatchError(flatness.ErrDomain))
		})
	})

	It("is idempotent across initializations", func() {
		dir := GinkgoT().TempDir()
		path := writeField(dir, "spiral.txt", "-y + 0.1*x", "x", "0.3", "0.1")

		a, err := flatness.Init(path, 1.2, identity)
		Expect(err).NotTo(HaveOccurred())
		b, err := flatness.Init(path, 1.2, identity)
		Expect(err).NotTo(HaveOccurred())

		for _, p := range []field.Point{{1, 0, 0, 0}, {0.3, -0.4, 2, 1}, {-2, 1, 0.5, -0.7}} {
			sa, ia, errA := a.Evaluate(p)
			sb, ib, errB := b.Evaluate(p)
			Expect(errA).NotTo(HaveOccurred())
			Expect(errB).NotTo(HaveOccurred())
			Expect(sb).To(Equal(sa))
			Expect(ib).To(Equal(ia))
		}
	})

	It("is invariant under the y/z axis flip", func() {
		f := mustField("-y", "x + 0.2*z", "0.1*z*y", "0.3")
		native := mustEngine(f, 2, identity)
		flipped := mustEngine(f, 2, identity, flatness.WithConvention(field.FlipYZ))

		for _, p := range []field.Point{{1, 0.5, 0.3, 0.4}, {-0.2, 1.1, -0.6, 2}} {
			in1, st1, err := native.Update(p[0], p[1], p[2], p[3])
			Expect(err).NotTo(HaveOccurred())
			in2, st2, err := flipped.Update(p[0], -p[1], -p[2], p[3])
			Expect(err).NotTo(HaveOccurred())
			Expect(st2).To(Equal(st1))
			Expect(in2).To(Equal(in1))
		}
	})

	Context("along a trajectory", func() {
		inertia := [3][3]float64{{0.1, 0, 0}, {0, 0.2, 0}, {0, 0, 0.3}}
		f := mustFieldNoExpect("-y", "x", "0.1*z", "0.2")
		p := field.Point{1, 0.5, 0.3, 0.4}
		settings := &fd.Settings{Formula: fd.Central, Step: 1e-5}

		// stateAt evaluates the engine at p + s·V(p), which follows the
		// field's flow to first order in s.
		stateAt := func(eng *flatness.Engine, s float64) (flatness.StateRecord, flatness.InputRecord) {
			v, err := f.Derive(p)
			Expect(err).NotTo(HaveOccurred())
			var q field.Point
			for i := range q {
				q[i] = p[i] + s*v[i]
			}
			st, in, err := eng.Evaluate(q)
			Expect(err).NotTo(HaveOccurred())
			return st, in
		}

		It("produces body rates consistent with the Euler angle rates", func() {
			eng := mustEngine(f, 1, inertia)
			st, _ := stateAt(eng, 0)

			dphi := fd.Derivative(func(s float64) float64 { st, _ := stateAt(eng, s); return st.Phi }, 0, settings)
			dtheta := fd.Derivative(func(s float64) float64 { st, _ := stateAt(eng, s); return st.Theta }, 0, settings)
			dpsi := fd.Derivative(func(s float64) float64 { st, _ := stateAt(eng, s); return st.Psi }, 0, settings)

			cphi, sphi := math.Cos(st.Phi), math.Sin(st.Phi)
			cth, sth := math.Cos(st.Theta), math.Sin(st.Theta)
			Expect(dpsi).To(BeNumerically("~", 0.2, 1e-6))
			Expect(st.P).To(BeNumerically("~", cphi*cth*dphi-sphi*dtheta, 1e-5))
			Expect(st.Q).To(BeNumerically("~", cth*sphi*dphi+cphi*dtheta, 1e-5))
			Expect(st.R).To(BeNumerically("~", -sth*dphi+dpsi, 1e-5))
		})

		It("produces torques satisfying the rigid body equation", func() {
			eng := mustEngine(f, 1, inertia)
			st, in := stateAt(eng, 0)

			var domega [3]float64
			for i := range domega {
				i := i
				domega[i] = fd.Derivative(func(s float64) float64 {
					st, _ := stateAt(eng, s)
					return []float64{st.P, st.Q, st.R}[i]
				}, 0, settings)
			}

			j := mat.NewDense(3, 3, []float64{0.1, 0, 0, 0, 0.2, 0, 0, 0, 0.3})
			omega := mat.NewVecDense(3, []float64{st.P, st.Q, st.R})
			var jw, jdw mat.VecDense
			jw.MulVec(j, omega)
			jdw.MulVec(j, mat.NewVecDense(3, domega[:]))
			cross := []float64{
				st.Q*jw.AtVec(2) - st.R*jw.AtVec(1),
				st.R*jw.AtVec(0) - st.P*jw.AtVec(2),
				st.P*jw.AtVec(1) - st.Q*jw.AtVec(0),
			}

			Expect(in.TorqueX).To(BeNumerically("~", jdw.AtVec(0)+cross[0], 1e-4))
			Expect(in.TorqueY).To(BeNumerically("~", jdw.AtVec(1)+cross[1], 1e-4))
			Expect(in.TorqueZ).To(BeNumerically("~", jdw.AtVec(2)+cross[2], 1e-4))
		})

		It("needs derivatives up to order four", func() {
			eng := mustEngine(f, 1, inertia)
			Expect(eng.Equations().MaxOrder()).To(Equal(4))
		})
	})

	It("rejects use before initialization", func() {
		var eng *flatness.Engine
		_, _, err := eng.Update(0, 0, 0, 0)
		Expect(err).To(MatchError(flatness.ErrConfig))
	})

	It("rejects invalid vehicle parameters", func() {
		_, err := flatness.NewEngine(mustField("0"), flatness.NewVehicleParameters(0, identity))
		Expect(err).To(MatchError(flatness.ErrConfig))

		skewed := flatness.NewVehicleParameters(1, [3][3]float64{{1, 0.5, 0}, {0, 1, 0}, {0, 0, 1}})
		_, err = flatness.NewEngine(mustField("0"), skewed)
		Expect(err).To(MatchError(flatness.ErrConfig))

		_, err = flatness.NewEngine(nil, flatness.DefaultParameters())
		Expect(err).To(MatchError(flatness.ErrConfig))
	})
})

var _ = Describe("Session", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("fails loudly before Init", func() {
		s := flatness.NewSession()
		Expect(s.Ready()).To(BeFalse())
		_, _, err := s.Update(0, 0, 0, 0)
		Expect(err).To(MatchError(flatness.ErrConfig))
	})

	It("surfaces initialization errors and stays uninitialized", func() {
		s := flatness.NewSession()
		Expect(s.Init(filepath.Join(dir, "missing.txt"), 1, identity)).To(MatchError(flatness.ErrIO))
		Expect(s.Init(writeField(dir, "bad.txt", "x +"), 1, identity)).To(MatchError(flatness.ErrParse))
		Expect(s.Ready()).To(BeFalse())
	})

	It("keeps the previous engine when a reload fails", func() {
		s := flatness.NewSession()
		Expect(s.Init(writeField(dir, "hover.txt", "0"), 2, identity)).To(Succeed())
		before := s.Engine()

		Expect(s.Init(writeField(dir, "bad.txt", "q"), 2, identity)).To(MatchError(flatness.ErrParse))
		Expect(s.Engine()).To(BeIdenticalTo(before))

		in, _, err := s.Update(0, 0, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Thrust).To(BeNumerically("~", 19.6, 1e-9))
	})

	It("swaps fields while updates are running", func() {
		s := flatness.NewSession()
		hover := writeField(dir, "hover.txt", "0")
		cruise := writeField(dir, "cruise.txt", "1", "0", "0")
		Expect(s.Init(hover, 1, identity)).To(Succeed())

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for k := 0; k < 50; k++ {
					in, _, err := s.Update(0, 0, 0, 0)
					Expect(err).NotTo(HaveOccurred())
					Expect(in.Thrust).To(BeNumerically("~", 9.8, 1e-9))
				}
			}()
		}
		for k := 0; k < 5; k++ {
			path := hover
			if k%2 == 0 {
				path = cruise
			}
			Expect(s.Init(path, 1, identity)).To(Succeed())
		}
		wg.Wait()
	})
})

func mustFieldNoExpect(lines ...string) *field.Field {
	f, err := field.Parse(lines)
	if err != nil {
		panic(err)
	}
	return f
}
