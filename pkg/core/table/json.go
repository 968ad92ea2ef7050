package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"
)

// jsonTable is the wire shape of a statement upload:
//
//	{"columns": ["CHỈ TIÊU", "2024"], "rows": [["Tổng cộng tài sản", 1000], ...]}
type jsonTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ParseJSON reads a statement table from JSON. Hand-edited or truncated payloads
// are accepted: strict JSON is tried first, then a repaired version, then Hjson.
func ParseJSON(data []byte) (*RawTable, error) {
	var payload jsonTable
	if err := smartDecode(data, &payload); err != nil {
		return nil, err
	}
	if len(payload.Rows) == 0 && len(payload.Columns) == 0 {
		return nil, ErrNoTable
	}

	columns := payload.Columns
	if len(columns) == 0 {
		columns = defaultColumns(payload.Rows)
	}

	t := New(columns...)
	for _, rec := range payload.Rows {
		if len(rec) == 0 {
			continue
		}
		cells := make([]Value, 0, len(rec)-1)
		for _, v := range rec[1:] {
			cells = append(cells, jsonValue(v))
		}
		t.Append(jsonLabel(rec[0]), cells...)
	}
	t.Clean()
	return t, nil
}

// smartDecode tries the decoding strategies in order:
// 1. Standard JSON
// 2. JSON repair
// 3. Hjson (most lenient)
func smartDecode(data []byte, out *jsonTable) error {
	err := decodeStrict(data, out)
	if err == nil {
		return nil
	}

	if repaired, rerr := jsonrepair.RepairJSON(string(data)); rerr == nil {
		if derr := decodeStrict([]byte(repaired), out); derr == nil {
			return nil
		}
	}

	var loose any
	if herr := hjson.Unmarshal(data, &loose); herr == nil {
		if normalized, merr := json.Marshal(loose); merr == nil {
			if derr := decodeStrict(normalized, out); derr == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("failed to parse json table: %w", err)
}

func decodeStrict(data []byte, out *jsonTable) error {
	*out = jsonTable{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after table")
	}
	return nil
}

func defaultColumns(rows [][]any) []string {
	width := 2
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	columns := []string{LabelColumn, "VALUE"}
	for i := 2; i < width; i++ {
		columns = append(columns, fmt.Sprintf("VALUE_%d", i))
	}
	return columns
}

func jsonLabel(v any) string {
	switch l := v.(type) {
	case nil:
		return ""
	case string:
		return l
	default:
		return fmt.Sprint(l)
	}
}

func jsonValue(v any) Value {
	switch c := v.(type) {
	case nil:
		return Value{}
	case json.Number:
		d, err := decimal.NewFromString(c.String())
		if err != nil {
			return Text(c.String())
		}
		return Number(d)
	case float64:
		return Float(c)
	case string:
		return Text(c)
	default:
		return Text(fmt.Sprint(c))
	}
}
