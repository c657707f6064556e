// Package alphabet maps the four DNA bases to dense integer indices and
// back. Anything outside A, C, G, T (including N, IUPAC ambiguity codes,
// and non-nucleotide characters) is reported as unscorable rather than
// rejected outright, matching how the scanner treats a window it cannot
// score.
package alphabet

// Size is the number of symbols in the alphabet.
const Size = 4

// Unscorable is the index returned by Index for any byte that isn't one
// of A, C, G, T (case-insensitively).
const Unscorable = 4

const (
	A = iota
	C
	G
	T
)

// table maps every possible byte value to its alphabet index, or
// Unscorable. Built once at init time instead of via a branchy switch,
// matching the lookup-table idiom biosimd uses for small fixed
// alphabets.
var table [256]int8

func init() {
	for i := range table {
		table[i] = Unscorable
	}
	table['A'], table['a'] = A, A
	table['C'], table['c'] = C, C
	table['G'], table['g'] = G, G
	table['T'], table['t'] = T, T
}

// Index returns the alphabet index of b, or Unscorable if b is not one of
// A, C, G, T (case-insensitive).
func Index(b byte) int {
	return int(table[b])
}

// complement maps an alphabet index to the index of its complementary
// base (A<->T, C<->G).
var complement = [Size]int{T, G, C, A}

// Complement returns the alphabet index of the base complementary to i.
// i must be in [0, Size).
func Complement(i int) int {
	return complement[i]
}

// ReverseComplementString returns the reverse complement of s. Bytes
// outside ACGT/acgt pass through unchanged (reversed but not
// complemented), since they carry no base identity to complement.
func ReverseComplementString(s string) string {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := s[n-1-i]
		idx := Index(c)
		if idx == Unscorable {
			out[i] = c
			continue
		}
		out[i] = bases[Complement(idx)]
	}
	return string(out)
}

// bases is the canonical upper-case letter for each alphabet index.
var bases = [Size]byte{'A', 'C', 'G', 'T'}

// Base returns the canonical upper-case letter for alphabet index i.
func Base(i int) byte {
	return bases[i]
}
