package params

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML case file
type CaseParameters struct {
	Title           string             `yaml:"Title"`
	Geometry        string             `yaml:"Geometry"` // "quad" or "tri"
	PolynomialOrder int                `yaml:"PolynomialOrder"`
	NCellsX         int                `yaml:"NCellsX"`
	NCellsY         int                `yaml:"NCellsY"`
	XMin            float64            `yaml:"XMin"`
	YMin            float64            `yaml:"YMin"`
	XMax            float64            `yaml:"XMax"`
	YMax            float64            `yaml:"YMax"`
	QuadraturePts   int                `yaml:"QuadraturePoints"`
	Source          string             `yaml:"Source"` // "constant" or "trig"
	BCs             map[string]float64 `yaml:"BCs"`    // key is boundary name
}

func NewCaseParameters() *CaseParameters {
	return &CaseParameters{
		Title:           "Poisson Case",
		Geometry:        "quad",
		PolynomialOrder: 1,
		NCellsX:         8,
		NCellsY:         8,
		XMin:            0,
		YMin:            0,
		XMax:            1,
		YMax:            1,
		QuadraturePts:   2,
		Source:          "constant",
	}
}

func (cp *CaseParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, cp); err != nil {
		return err
	}
	return cp.Validate()
}

func (cp *CaseParameters) Validate() error {
	if cp.Geometry != "quad" && cp.Geometry != "tri" {
		return fmt.Errorf("unknown geometry %q, want quad or tri", cp.Geometry)
	}
	if cp.PolynomialOrder < 1 {
		return fmt.Errorf("polynomial order must be >= 1, have %d", cp.PolynomialOrder)
	}
	if cp.NCellsX < 1 || cp.NCellsY < 1 {
		return fmt.Errorf("grid must have at least one cell per direction, have %dx%d",
			cp.NCellsX, cp.NCellsY)
	}
	if cp.XMax <= cp.XMin || cp.YMax <= cp.YMin {
		return fmt.Errorf("domain [%g,%g]x[%g,%g] is empty",
			cp.XMin, cp.XMax, cp.YMin, cp.YMax)
	}
	if cp.QuadraturePts < 1 {
		return fmt.Errorf("need at least one quadrature point per direction")
	}
	return nil
}

func (cp *CaseParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%s]\t\t\t= Geometry\n", cp.Geometry)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", cp.PolynomialOrder)
	fmt.Printf("[%dx%d]\t\t\t= Grid\n", cp.NCellsX, cp.NCellsY)
	fmt.Printf("[%g,%g]x[%g,%g]\t= Domain\n", cp.XMin, cp.XMax, cp.YMin, cp.YMax)
	fmt.Printf("[%d]\t\t\t\t= Quadrature Points\n", cp.QuadraturePts)
	fmt.Printf("[%s]\t\t= Source\n", cp.Source)
	keys := make([]string, len(cp.BCs))
	i := 0
	for k := range cp.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, cp.BCs[key])
	}
}
