package model

import (
	"fmt"
	"math"
	"strings"
)

const summaryWidth = 78

// coefTable is the parameter block of a regression report.
type coefTable struct {
	stat   string // "t" or "z"
	names  []string
	params []float64
	bse    []float64
	stats  []float64
	pvals  []float64
	ci     [][2]float64
}

// report lays out a fit summary as a title, two columns of key/value pairs,
// an optional coefficient table and trailing notes.
type report struct {
	title string
	left  [][2]string
	right [][2]string
	coef  *coefTable
	notes []string
}

func (r report) String() string {
	var b strings.Builder
	pad := (summaryWidth - len(r.title)) / 2
	b.WriteString(strings.Repeat(" ", max(pad, 0)) + r.title + "\n")
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")
	rows := max(len(r.left), len(r.right))
	for i := range rows {
		b.WriteString(cell(r.left, i))
		b.WriteString(cell(r.right, i))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")
	if c := r.coef; c != nil {
		fmt.Fprintf(&b, "%-12s%11s%11s%11s%11s%11s%11s\n", "", "coef", "std err", c.stat, "P>|"+c.stat+"|", "[0.025", "0.975]")
		b.WriteString(strings.Repeat("-", summaryWidth) + "\n")
		for i, name := range c.names {
			fmt.Fprintf(&b, "%-12s%11s%11s%11s%11s%11s%11s\n",
				trunc(name, 12), num(c.params[i], 4), num(c.bse[i], 3), num(c.stats[i], 3),
				num(c.pvals[i], 3), num(c.ci[i][0], 3), num(c.ci[i][1], 3))
		}
		b.WriteString(strings.Repeat("=", summaryWidth) + "\n")
	}
	for _, n := range r.notes {
		b.WriteString(n + "\n")
	}
	return b.String()
}

func cell(kv [][2]string, i int) string {
	if i >= len(kv) {
		return strings.Repeat(" ", summaryWidth/2)
	}
	return fmt.Sprintf("%-20s%18s ", kv[i][0], kv[i][1])
}

func trunc(s string, n int) string {
	if len(s) <= n-1 {
		return s
	}
	return s[:n-2] + "~"
}

// num formats v with prec decimals, falling back to exponent notation for
// values that would not fit the column.
func num(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := fmt.Sprintf("%.*f", prec, v)
	if len(s) > 10 || (v != 0 && math.Abs(v) < math.Pow(10, -float64(prec))) {
		return fmt.Sprintf("%.3e", v)
	}
	return s
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

func ftoa(v float64, prec int) string { return num(v, prec) }
