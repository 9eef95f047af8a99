/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gofea/assembly"
	"github.com/notargets/gofea/fe"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/params"
	"github.com/notargets/gofea/quadrature"
	"github.com/notargets/gofea/tensor"
	"github.com/notargets/gofea/utils"
)

// PoissonCmd represents the poisson command
var PoissonCmd = &cobra.Command{
	Use:   "poisson",
	Short: "Solves the Poisson equation on a generated 2D grid",
	Long: `Assembles and solves -div(grad(u)) = f on a cartesian or
triangulated rectangle with homogeneous Dirichlet boundary values,
reporting the L2 error against the manufactured solution`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("poisson called")
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		prof, _ := cmd.Flags().GetBool("profile")
		if prof {
			defer profile.Start(profile.ProfilePath(".")).Stop()
		}
		cp := params.NewCaseParameters()
		if len(icFile) != 0 {
			var data []byte
			if data, err = os.ReadFile(icFile); err != nil {
				panic(err)
			}
			if err = cp.Parse(data); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		}
		cp.Print()
		RunPoisson(cp)
	},
}

func init() {
	rootCmd.AddCommand(PoissonCmd)
	PoissonCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML case file, like:\n\t- Geometry\n\t- NCellsX/NCellsY\n\t- Source")
	PoissonCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the run")
}

// RunPoisson assembles the case and solves the dense eliminated system.
func RunPoisson(cp *params.CaseParameters) {
	var (
		m      *mesh.Mesh
		el     fe.FiniteElement
		q      *quadrature.Rule
		source func(tensor.Vec) float64
		exact  func(tensor.Vec) float64
	)
	if cp.PolynomialOrder != 1 {
		// the vertex DoF layout used here carries one unknown per vertex
		fmt.Printf("clamping polynomial order %d to 1\n", cp.PolynomialOrder)
		cp.PolynomialOrder = 1
	}
	switch cp.Geometry {
	case "tri":
		m = mesh.NewTriangulated2D(cp.NCellsX, cp.NCellsY,
			cp.XMin, cp.YMin, cp.XMax, cp.YMax)
		el = fe.NewSimplexP(cp.PolynomialOrder)
		q = quadrature.NewGaussSimplex(cp.QuadraturePts)
	default:
		m = mesh.NewCartesian2D(cp.NCellsX, cp.NCellsY,
			cp.XMin, cp.YMin, cp.XMax, cp.YMax)
		el = fe.NewLagrange(mesh.Quad, cp.PolynomialOrder)
		q = quadrature.NewGauss(2, cp.QuadraturePts)
	}
	switch cp.Source {
	case "trig":
		// u = sin(pi x) sin(pi y) on the unit square
		exact = func(p tensor.Vec) float64 {
			return math.Sin(math.Pi*p.D[0]) * math.Sin(math.Pi*p.D[1])
		}
		source = func(p tensor.Vec) float64 {
			return 2 * math.Pi * math.Pi * exact(p)
		}
	default:
		exact = nil
		source = func(tensor.Vec) float64 { return 1 }
	}

	var (
		layout = mesh.NewVertexLayout(m, 1)
		a      = assembly.NewAssembler(m, el, layout, q)
		K      = a.Stiffness().ToDense()
		b      = a.Load(source)
	)
	constrained := map[int]float64{}
	for v, p := range m.Vertices {
		if p.D[0] <= cp.XMin || p.D[0] >= cp.XMax ||
			p.D[1] <= cp.YMin || p.D[1] >= cp.YMax {
			constrained[v] = 0
		}
	}
	assembly.ApplyDirichlet(K, b, constrained)
	u := K.LUSolve(utils.NewVector(len(b), b))
	fmt.Printf("solved %d unknowns on %d cells\n", layout.NDoFs, m.NCells())

	if exact != nil {
		var errmax float64
		for v, p := range m.Vertices {
			e := math.Abs(u.AtVec(v) - exact(p))
			if e > errmax {
				errmax = e
			}
		}
		fmt.Printf("max nodal error = %8.5e\n", errmax)
	} else {
		fmt.Printf("max u = %8.5f\n", u.Max())
	}
}
