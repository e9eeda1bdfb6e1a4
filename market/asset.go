package market

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// FilterAsset extracts time,price rows from an exchange kline dump with
// pipe-separated columns (time|open|high|close|...), keeping rows whose UTC
// time falls within [from, to] inclusive; a zero bound is open. The close is
// the fourth column.
// Rows with an unparseable timestamp are skipped. It returns the number of
// rows written.
func FilterAsset(r io.Reader, w io.Writer, from, to time.Time) (int, error) {
	sc := bufio.NewScanner(decode(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	bw := bufio.NewWriter(w)

	written := 0
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), "|")
		if len(parts) < 4 {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			continue
		}
		t := time.Unix(ts, 0).UTC()
		if t.Before(from) || (!to.IsZero() && t.After(to)) {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d,%s\n", ts, strings.TrimSpace(parts[3])); err != nil {
			return written, err
		}
		written++
	}
	if err := sc.Err(); err != nil {
		return written, err
	}
	return written, bw.Flush()
}
