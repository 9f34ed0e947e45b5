package assignment

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Binary is a 0/1 assignment matrix with agents as rows and targets as
// columns.
type Binary [][]uint8

// Binarize marks, in each row of the coupling, every column whose entry
// reaches the row maximum. Ties are all kept.
func Binarize(coupling mat.Matrix) Binary {
	r, c := coupling.Dims()
	out := make(Binary, r)
	for i := 0; i < r; i++ {
		peak := math.Inf(-1)
		for j := 0; j < c; j++ {
			if v := coupling.At(i, j); v > peak {
				peak = v
			}
		}
		row := make([]uint8, c)
		for j := 0; j < c; j++ {
			if coupling.At(i, j) >= peak {
				row[j] = 1
			}
		}
		out[i] = row
	}
	return out
}

// Dims returns the number of rows and columns.
func (b Binary) Dims() (int, int) {
	if len(b) == 0 {
		return 0, 0
	}
	return len(b), len(b[0])
}

// Targets returns the column indices set in row i, in column order.
func (b Binary) Targets(i int) []int {
	var cols []int
	for j, v := range b[i] {
		if v != 0 {
			cols = append(cols, j)
		}
	}
	return cols
}

// MultiAssigned counts rows with more than one column set.
func (b Binary) MultiAssigned() int {
	n := 0
	for i := range b {
		if len(b.Targets(i)) > 1 {
			n++
		}
	}
	return n
}

func (b Binary) String() string {
	var sb strings.Builder
	for _, row := range b {
		fmt.Fprintln(&sb, strings.Trim(fmt.Sprint(row), "[]"))
	}
	return sb.String()
}
