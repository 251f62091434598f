package chisqtest

import (
	"fmt"
	"strconv"
	"strings"
)

// reportPlaces is the number of decimal places of the statistic and the p-value in a report.
const reportPlaces = 4

func (k TestKind) String() string {
	switch k {
	case OneWay:
		return "One-way chi-square goodness-of-fit test"
	case TwoWay:
		return "Two-way chi-square test for marginal independence"
	}
	return "TestKind(" + strconv.Itoa(int(k)) + ")"
}

// Format renders r as a human-readable report:
//
//	One-way chi-square goodness-of-fit test.
//		null hypothesis: values occur in each category with equal frequency.
//		test statistic: 6.5
//		df: 5
//		p-value: 0.2606
//
// Statistic and p-value are rounded half-up to four decimal places.
func Format(r Result) string {
	var sb strings.Builder
	sb.WriteString(r.Kind.String())
	if r.Replicates > 0 {
		fmt.Fprintf(&sb, " (p-value simulated with %d replicates)", r.Replicates)
	}
	sb.WriteString(".\n")
	fmt.Fprintf(&sb, "\tnull hypothesis: %s.\n", r.NullHypothesis)
	fmt.Fprintf(&sb, "\ttest statistic: %s\n", formatRounded(r.Statistic))
	fmt.Fprintf(&sb, "\tdf: %d\n", r.DegreesOfFreedom)
	fmt.Fprintf(&sb, "\tp-value: %s\n", formatRounded(r.PValue))
	return sb.String()
}

// String implements fmt.Stringer by calling Format.
func (r Result) String() string {
	return Format(r)
}

func formatRounded(x float64) string {
	return strconv.FormatFloat(roundN(x, reportPlaces), 'f', -1, 64)
}
