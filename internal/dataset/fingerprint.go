package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
)

const fingerprintSampleRows = 1000

// Fingerprint hashes shape, column names, types and content. Datasets above
// 1000 rows hash a fixed-seed sample of 1000 rows instead of every row.
func Fingerprint(d *Dataset) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d\n", d.Rows(), len(d.Columns))
	for _, c := range d.Columns {
		fmt.Fprintf(h, "%s\x1f%s\n", c.Name, c.Type)
	}
	for _, i := range fingerprintRows(d.Rows()) {
		h.Write([]byte(d.RowKey(i)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fingerprintRows(n int) []int {
	if n <= fingerprintSampleRows {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rows := rand.New(rand.NewSource(42)).Perm(n)[:fingerprintSampleRows]
	sort.Ints(rows)
	return rows
}

// Sample returns a seeded, order-preserving row sample when the dataset has
// more than threshold rows. The boolean reports whether sampling happened.
func Sample(d *Dataset, threshold int, fraction float64, seed int64) (*Dataset, bool) {
	n := d.Rows()
	if threshold <= 0 || n <= threshold || fraction <= 0 || fraction >= 1 {
		return d, false
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	rows := rand.New(rand.NewSource(seed)).Perm(n)[:k]
	sort.Ints(rows)
	return d.Take(rows), true
}
