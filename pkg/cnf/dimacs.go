package cnf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/go-air/gini"
	"github.com/go-air/gini/dimacs"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// WriteDimacs writes the formula as a DIMACS CNF problem.
func WriteDimacs(w io.Writer, f *Formula) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "p cnf %d %d\n", f.NumVars, len(f.Clauses))
	for _, c := range f.Clauses {
		for _, l := range c {
			bw.WriteString(strconv.Itoa(l))
			bw.WriteByte(' ')
		}
		bw.WriteString("0\n")
	}
	return bw.Flush()
}

var problemLine = regexp.MustCompile(`(?m)^p cnf `)

// formulaVis collects clauses read by the gini DIMACS reader.
type formulaVis struct {
	f       Formula
	clause  []int
	numVars int
}

func (v *formulaVis) Init(vars, clauses int) {
	v.numVars = vars
	v.f.Clauses = make([][]int, 0, clauses)
}

func (v *formulaVis) Add(m z.Lit) {
	if m == z.LitNull {
		v.f.Clauses = append(v.f.Clauses, v.clause)
		v.clause = nil
		return
	}
	v.clause = append(v.clause, m.Dimacs())
}

func (v *formulaVis) Eof() {
	if len(v.clause) > 0 {
		v.f.Clauses = append(v.f.Clauses, v.clause)
		v.clause = nil
	}
}

// ReadDimacs parses a DIMACS CNF problem. The problem line is
// required, and every literal must lie within its variable count.
func ReadDimacs(r io.Reader) (*Formula, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading dimacs")
	}
	if !problemLine.Match(data) {
		return nil, errors.New("dimacs input has no 'p cnf' problem line")
	}
	vis := &formulaVis{}
	if err := dimacs.ReadCnf(bytes.NewReader(data), vis); err != nil {
		return nil, errors.Wrap(err, "parsing dimacs")
	}
	vis.Eof()
	f := &vis.f
	f.NumVars = vis.numVars
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// ToGini loads the formula into a new gini solver.
func ToGini(f *Formula) *gini.Gini {
	g := gini.NewVc(f.NumVars, len(f.Clauses))
	for _, c := range f.Clauses {
		for _, l := range c {
			g.Add(z.Dimacs2Lit(l))
		}
		g.Add(z.LitNull)
	}
	return g
}

// Satisfiable decides the formula with gini.
func Satisfiable(f *Formula) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	return ToGini(f).Solve() == 1, nil
}
