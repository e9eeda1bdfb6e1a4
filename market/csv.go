package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Line formats shared with the rest of the tool chain:
//
//	prices: time,price
//	trades: time,action,reason
//
// time is integer Unix seconds. A single header row whose first column is
// "time" or "timestamp" is allowed. Extra columns are ignored.

// decode drops a leading byte order mark; UTF-16 exports with a BOM are
// transcoded to UTF-8.
func decode(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(decode(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	h := strings.ToLower(strings.TrimSpace(row[0]))
	return h == "time" || h == "timestamp"
}

// ParseUnix parses integer seconds; "1700000000.0" is accepted as well.
func ParseUnix(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad time %q: %w", s, err)
	}
	return int64(f), nil
}

// ReadPrices decodes price rows.
func ReadPrices(r io.Reader) ([]PricePoint, error) {
	cr := newReader(r)
	var out []PricePoint
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: need time,price: %v", line, row)
		}
		t, err := ParseUnix(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad price %q: %w", line, row[1], err)
		}
		out = append(out, PricePoint{Time: t, Price: p})
	}
}

// WritePrices encodes price rows without a header.
func WritePrices(w io.Writer, points []PricePoint) error {
	cw := csv.NewWriter(w)
	for _, p := range points {
		if err := cw.Write([]string{
			strconv.FormatInt(p.Time, 10),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTrades decodes trade rows. A missing reason column is allowed.
func ReadTrades(r io.Reader) ([]TradeEvent, error) {
	cr := newReader(r)
	var out []TradeEvent
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: need time,action[,reason]: %v", line, row)
		}
		t, err := ParseUnix(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		a, err := ParseAction(row[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tr := TradeEvent{Time: t, Action: a}
		if len(row) > 2 {
			tr.Reason = strings.TrimSpace(row[2])
		}
		out = append(out, tr)
	}
}

// WriteTrades encodes trade rows without a header.
func WriteTrades(w io.Writer, trades []TradeEvent) error {
	cw := csv.NewWriter(w)
	for _, tr := range trades {
		if err := cw.Write([]string{
			strconv.FormatInt(tr.Time, 10),
			tr.Action.String(),
			tr.Reason,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTradesFile opens and decodes a trades file.
func ReadTradesFile(path string) ([]TradeEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrades(f)
}

// WriteTradesFile truncates path and writes trades to it.
func WriteTradesFile(path string, trades []TradeEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTrades(f, trades); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CSVFile is a PriceSource backed by a time,price file.
type CSVFile struct {
	Path string
}

func (c CSVFile) Prices(ctx context.Context) (*PriceSeries, error) {
	_ = ctx // file reads are not cancellable

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	points, err := ReadPrices(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}
	return NewPriceSeries(points)
}
