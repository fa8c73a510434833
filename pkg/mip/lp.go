package mip

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteLP 以 CPLEX LP 格式输出模型，便于用 glpsol/cbc 等外部工具复现
func (m *Model) WriteLP(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ %s\n", m.Name)
	if m.sense == Maximize {
		bw.WriteString("Maximize\n")
	} else {
		bw.WriteString("Minimize\n")
	}
	fmt.Fprintf(bw, " obj: %s\n", m.formatTerms(m.objective.Terms))

	bw.WriteString("Subject To\n")
	for i, r := range m.rows {
		name := lpName(r.Name, i)
		lhs := m.formatTerms(r.Terms)
		switch {
		case r.Lower == r.Upper:
			fmt.Fprintf(bw, " %s: %s = %s\n", name, lhs, num(r.Upper))
		case math.IsInf(r.Lower, -1) && math.IsInf(r.Upper, 1):
			continue
		case math.IsInf(r.Lower, -1):
			fmt.Fprintf(bw, " %s: %s <= %s\n", name, lhs, num(r.Upper))
		case math.IsInf(r.Upper, 1):
			fmt.Fprintf(bw, " %s: %s >= %s\n", name, lhs, num(r.Lower))
		default:
			fmt.Fprintf(bw, " %s: %s <= %s <= %s\n", name, num(r.Lower), lhs, num(r.Upper))
		}
	}

	bw.WriteString("Binary\n")
	for _, n := range m.names {
		fmt.Fprintf(bw, " %s\n", n)
	}
	bw.WriteString("End\n")
	return bw.Flush()
}

func (m *Model) formatTerms(terms []Term) string {
	if len(terms) == 0 {
		return "0 " + m.zeroVar()
	}
	var sb strings.Builder
	for i, t := range terms {
		switch {
		case i == 0 && t.Coef < 0:
			sb.WriteString("- ")
		case i > 0 && t.Coef < 0:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		if c := math.Abs(t.Coef); c != 1 {
			sb.WriteString(num(c))
			sb.WriteByte(' ')
		}
		sb.WriteString(m.names[t.Var])
	}
	return sb.String()
}

// zeroVar 空表达式需要一个变量占位
func (m *Model) zeroVar() string {
	if len(m.names) > 0 {
		return m.names[0]
	}
	return "x"
}

func lpName(name string, i int) string {
	if name == "" {
		return "r" + strconv.Itoa(i)
	}
	return name
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
